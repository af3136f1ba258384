// Package nlu implements rule-based intent classification, slot extraction,
// and the confidence heuristic that drives workflow routing.
package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vision-csa/server/internal/agent/model"
)

// patternGroup binds one intent to the matchers that detect it and the slot
// extractor that runs when it wins. Groups are evaluated in order and the
// first group with any match wins, so they are ordered by specificity.
type patternGroup struct {
	intent   model.Intent
	patterns []*regexp.Regexp
	slots    func(text string, entities map[string]any)
}

var (
	orderIDRe    = regexp.MustCompile(`(?i)(?:order|#|id)\s*:?\s*(\w+\d+|\d+\w*|\d{3,})`)
	trackingIDRe = regexp.MustCompile(`(?i)\b([A-Z]{2}\d{9,}[A-Z]{2}|(?:\d\s?){10,})\b`)
	emailRe      = regexp.MustCompile(`([a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6})`)
	addressRe    = regexp.MustCompile(`(?i)(?:\bto\b|address:)\s*(.+)`)

	amountDollarRe  = regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`)
	amountDecimalRe = regexp.MustCompile(`(\d+\.\d{1,2})`)
	amountPlainRe   = regexp.MustCompile(`(\d+)`)

	questionStartRe = regexp.MustCompile(`^(?:what|how|why|when|where|who|which|can|could|do|does|is|are)\b`)
)

var groups = []patternGroup{
	{
		intent: model.IntentCheckOrderStatus,
		patterns: compile(
			`where is my order`,
			`track my order`,
			`\border\b[^?.!]*\bstatus\b`,
			`\bstatus\b[^?.!]*\border\b`,
		),
		slots: extractOrderID,
	},
	{
		intent: model.IntentTrackShipment,
		patterns: compile(
			`\btrack\w*\b[^?.!]*\b(?:shipment|package|parcel)\b`,
			`\b(?:shipment|package|parcel)\b[^?.!]*\btrack`,
		),
		slots: extractTrackingID,
	},
	{
		intent: model.IntentProcessRefund,
		patterns: compile(
			`\brefund\b`,
			`\bmoney back\b`,
		),
		slots: func(text string, entities map[string]any) {
			extractOrderID(text, entities)
			extractAmount(text, entities)
		},
	},
	{
		intent: model.IntentUpdateShippingAddress,
		patterns: compile(
			`\b(?:update|change)\b[^?.!]*\baddress\b`,
		),
		slots: func(text string, entities map[string]any) {
			extractOrderID(text, entities)
			if m := addressRe.FindStringSubmatch(text); m != nil {
				entities[model.SlotNewAddress] = strings.TrimSpace(m[1])
			}
		},
	},
	{
		intent: model.IntentResetPassword,
		patterns: compile(
			`\b(?:reset|forgot)\b[^?.!]*\bpassword\b`,
		),
		slots: func(text string, entities map[string]any) {
			if m := emailRe.FindStringSubmatch(text); m != nil {
				entities[model.SlotCustomerEmail] = m[1]
			}
		},
	},
	{
		intent: model.IntentEscalateToHuman,
		patterns: compile(
			`\bhuman\b`,
			`\bagent\b`,
			`\bescalate\b`,
			`\brepresentative\b`,
			`\bspeak to someone\b`,
			`\btalk to (?:a )?person\b`,
		),
	},
	{
		intent: model.IntentGreeting,
		patterns: compile(
			`^(?:hi|hello|hey|good (?:morning|afternoon|evening)|greetings)\b`,
		),
	},
	{
		intent: model.IntentRequestSupport,
		patterns: compile(
			`\bhelp\b`,
			`\bsupport\b`,
			`\btrouble\b`,
			`\bissue\b`,
			`\bproblem\b`,
			`\bnot working\b`,
			`\bbroken\b`,
		),
	},
	{
		intent: model.IntentProductInquiry,
		patterns: compile(
			`\bproducts?\b`,
			`\bfeatures?\b`,
			`\bpric(?:e|es|ing)\b`,
			`\bcost\b`,
			`\bhow much\b`,
			`\bplans?\b`,
			`\bsubscription\b`,
		),
	},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Classification is the result of one classifier pass.
type Classification struct {
	Intent   model.Intent
	Entities map[string]any
}

// Classify maps raw text to an intent from the closed catalog plus the slot
// values it could extract. Entities from the previous turn seed the result
// and are overridden by anything extracted from the current text, which lets
// a follow-up message complete an action started earlier. Classify is pure:
// the same text and previous entities always produce the same result.
func Classify(text string, previous map[string]any) Classification {
	entities := make(map[string]any, len(previous))
	for k, v := range previous {
		entities[k] = v
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Classification{Intent: model.IntentUnknown, Entities: entities}
	}
	lower := strings.ToLower(trimmed)

	for _, g := range groups {
		for _, p := range g.patterns {
			if p.MatchString(lower) {
				if g.slots != nil {
					g.slots(trimmed, entities)
				}
				return Classification{Intent: g.intent, Entities: entities}
			}
		}
	}

	// Question shape is the lowest-priority signal: only claimed when no
	// keyword group matched.
	if strings.HasSuffix(lower, "?") || questionStartRe.MatchString(lower) {
		return Classification{Intent: model.IntentAskQuestion, Entities: entities}
	}

	return Classification{Intent: model.IntentUnknown, Entities: entities}
}

func extractOrderID(text string, entities map[string]any) {
	if m := orderIDRe.FindStringSubmatch(text); m != nil {
		entities[model.SlotOrderID] = m[1]
	}
}

func extractTrackingID(text string, entities map[string]any) {
	if m := trackingIDRe.FindStringSubmatch(text); m != nil {
		entities[model.SlotTrackingID] = strings.ReplaceAll(m[1], " ", "")
	}
}

// extractAmount prefers an explicit $ amount, then a decimal, then any bare
// number, so a refund amount is not confused with an order id when both
// appear in the same message.
func extractAmount(text string, entities map[string]any) {
	for _, re := range []*regexp.Regexp{amountDollarRe, amountDecimalRe, amountPlainRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				entities[model.SlotAmount] = v
				return
			}
		}
	}
}

// isQuestionShaped reports whether the text looks like a question. Shared by
// the classifier fallback and the confidence heuristic.
func isQuestionShaped(lower string) bool {
	return strings.HasSuffix(strings.TrimSpace(lower), "?") || questionStartRe.MatchString(lower)
}
