package nlu

import (
	"strings"

	"github.com/vision-csa/server/internal/agent/model"
)

// Sentiment scores within (-0.25, 0.25) are treated as neutral.
const sentimentBand = 0.25

// NormalizeSentiment buckets a raw annotator score into a label.
func NormalizeSentiment(score, magnitude float64) model.Sentiment {
	label := model.SentimentNeutral
	if score > sentimentBand {
		label = model.SentimentPositive
	} else if score < -sentimentBand {
		label = model.SentimentNegative
	}
	return model.Sentiment{Score: score, Magnitude: magnitude, Label: label}
}

// EntityMap flattens the annotator's generic entities into the slot map,
// keyed by lower-cased entity type. Targeted slot extraction runs after this
// and overrides any colliding key.
func EntityMap(entities []model.NamedEntity) map[string]any {
	if len(entities) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(entities))
	for _, e := range entities {
		t := strings.ToLower(strings.TrimSpace(e.Type))
		if t == "" || e.Value == "" {
			continue
		}
		out[t] = e.Value
	}
	return out
}
