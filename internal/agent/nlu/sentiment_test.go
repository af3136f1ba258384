package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vision-csa/server/internal/agent/model"
)

func TestNormalizeSentiment(t *testing.T) {
	cases := []struct {
		score float64
		want  model.SentimentLabel
	}{
		{0.9, model.SentimentPositive},
		{0.26, model.SentimentPositive},
		{0.25, model.SentimentNeutral},
		{0, model.SentimentNeutral},
		{-0.25, model.SentimentNeutral},
		{-0.26, model.SentimentNegative},
		{-1, model.SentimentNegative},
	}
	for _, tc := range cases {
		got := NormalizeSentiment(tc.score, 0.5)
		assert.Equal(t, tc.want, got.Label, "score %v", tc.score)
		assert.Equal(t, tc.score, got.Score)
		assert.Equal(t, 0.5, got.Magnitude)
	}
}

func TestEntityMap(t *testing.T) {
	got := EntityMap([]model.NamedEntity{
		{Type: "Person", Value: "Ada"},
		{Type: "LOCATION", Value: "Berlin"},
		{Type: "", Value: "dropped"},
		{Type: "number", Value: ""},
	})
	assert.Equal(t, map[string]any{"person": "Ada", "location": "Berlin"}, got)

	assert.Empty(t, EntityMap(nil))
}
