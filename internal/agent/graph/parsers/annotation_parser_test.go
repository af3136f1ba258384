package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-csa/server/internal/agent/model"
)

func TestParseAnnotationFullRecord(t *testing.T) {
	content := `("sentiment"<||>-0.6<||>0.9)##
("entity"<||>order_id<||>12345)##
("entity"<||>email<||>jane@example.com)##
("language"<||>en)##
<|COMPLETE|>`

	ann, err := ParseAnnotation(content)
	require.NoError(t, err)
	require.NotNil(t, ann)

	assert.InDelta(t, -0.6, ann.SentimentScore, 1e-9)
	assert.InDelta(t, 0.9, ann.SentimentMagnitude, 1e-9)
	assert.Equal(t, "en", ann.Language)
	require.Len(t, ann.Entities, 2)
	assert.Equal(t, model.NamedEntity{Type: "order_id", Value: "12345"}, ann.Entities[0])
	assert.Equal(t, model.NamedEntity{Type: "email", Value: "jane@example.com"}, ann.Entities[1])
}

func TestParseAnnotationSkipsMalformedRecords(t *testing.T) {
	content := `("sentiment"<||>not-a-number<||>0.5)##
not even a tuple##
("entity"<||><||>missing type)##
("entity"<||>topic<||>shipping)##
("language"<||>english)##
<|COMPLETE|>`

	ann, err := ParseAnnotation(content)
	require.NoError(t, err)

	// bad sentiment leaves the zero default
	assert.Zero(t, ann.SentimentScore)
	assert.Zero(t, ann.SentimentMagnitude)
	// "english" is not a 2-3 letter code
	assert.Empty(t, ann.Language)
	require.Len(t, ann.Entities, 1)
	assert.Equal(t, "topic", ann.Entities[0].Type)
}

func TestParseAnnotationOutOfRangeSentiment(t *testing.T) {
	ann, err := ParseAnnotation(`("sentiment"<||>2.5<||>0.1)##<|COMPLETE|>`)
	require.NoError(t, err)
	assert.Zero(t, ann.SentimentScore)
}

func TestParseAnnotationEmptyContent(t *testing.T) {
	ann, err := ParseAnnotation("")
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Empty(t, ann.Entities)
	assert.Empty(t, ann.Language)
}

func TestParseAnnotationIgnoresTrailingAfterComplete(t *testing.T) {
	content := `("language"<||>th)##<|COMPLETE|>("entity"<||>topic<||>ignored)##`
	ann, err := ParseAnnotation(content)
	require.NoError(t, err)
	assert.Equal(t, "th", ann.Language)
	assert.Empty(t, ann.Entities)
}

func TestParseAnnotationRecordCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxRecords+50; i++ {
		b.WriteString(`("entity"<||>topic<||>x)##`)
	}
	ann, err := ParseAnnotation(b.String())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ann.Entities), maxRecords)
}

func TestParseFloatInRange(t *testing.T) {
	v, err := parseFloatInRange(" 0.25 ", "x", -1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)

	_, err = parseFloatInRange("abc", "x", -1, 1)
	assert.Error(t, err)

	_, err = parseFloatInRange("1.01", "x", -1, 1)
	assert.Error(t, err)

	_, err = parseFloatInRange("NaN", "x", -1, 1)
	assert.Error(t, err)
}

func TestIsLanguageCode(t *testing.T) {
	assert.True(t, isLanguageCode("en"))
	assert.True(t, isLanguageCode("tha"))
	assert.False(t, isLanguageCode("e"))
	assert.False(t, isLanguageCode("english"))
	assert.False(t, isLanguageCode("e1"))
}
