package nlu

import (
	"strings"

	"github.com/vision-csa/server/internal/agent/model"
)

// Confidence bounds and adjustments. The score is a routing heuristic, not a
// probability; callers only ever compare it against routing thresholds.
const (
	confidenceFloor   = 0.1
	confidenceCeiling = 0.95
	neutralConfidence = 0.5

	entityBonusEach = 0.1
	entityBonusCap  = 0.2
)

// ScoreConfidence computes a deterministic confidence for one classification
// from the intent, the extracted entities, the sentiment label, and the raw
// text. It is pure and total: it never panics and never returns a value
// outside [0.1, 0.95]. Any internal failure yields the neutral default.
func ScoreConfidence(intent model.Intent, entities map[string]any, label model.SentimentLabel, text string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = neutralConfidence
		}
	}()

	lower := strings.ToLower(text)

	base := 0.5
	switch intent {
	case model.IntentUnknown, model.IntentNLUError:
		base = 0.2
	case model.IntentEscalateToHuman:
		if strings.Contains(lower, "human") || strings.Contains(lower, "agent") {
			base = 0.9
		} else {
			base = 0.7
		}
	case model.IntentCheckOrderStatus:
		if strings.Contains(lower, "order") {
			base = 0.85
		} else {
			base = 0.6
		}
	case model.IntentAskQuestion:
		if isQuestionShaped(lower) {
			base = 0.8
		} else {
			base = 0.6
		}
	}

	bonus := entityBonusEach * float64(len(entities))
	if bonus > entityBonusCap {
		bonus = entityBonusCap
	}
	if len(entities) == 0 && intent != model.IntentEscalateToHuman {
		base -= 0.1
	}

	if label != model.SentimentNeutral {
		base += 0.05
	}

	words := len(strings.Fields(text))
	if words < 3 {
		base -= 0.1
	} else if words > 20 {
		base -= 0.05
	}

	return clamp(base+bonus, confidenceFloor, confidenceCeiling)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
