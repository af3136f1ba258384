// Package dialog turns the accumulated conversation state into the reply
// shown to the customer.
package dialog

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/vision-csa/server/internal/agent/graph/prompts"
	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// FallbackReply is used whenever generation fails. The customer always gets
// an answer.
const FallbackReply = "Sorry, I'm having a little trouble responding right now. Could you try rephrasing?"

// Composer renders the dialogue prompt and generates the assistant reply.
type Composer struct {
	gen model.Generator
	cfg model.PromptConfig
}

// NewComposer wires the reply generator.
func NewComposer(gen model.Generator, cfg model.PromptConfig) *Composer {
	return &Composer{gen: gen, cfg: cfg}
}

// Compose produces the reply for the current turn. Failures fall back to a
// fixed apology rather than an error.
func (c *Composer) Compose(ctx context.Context, st *model.ConversationState) string {
	contextBlock := st.Context
	if res := st.ActionResult; res != nil && res.Message != "" {
		if contextBlock != "" {
			contextBlock += "\n\n"
		}
		contextBlock += "Action outcome: " + res.Message
	}

	sys, err := prompts.RenderDialogSystem(ctx, prompts.DialogVars{
		AgentName: c.cfg.AgentName,
		History:   Transcript(st.History),
		Context:   contextBlock,
		UserInput: st.UserInput,
		Intent:    string(st.Intent),
		Sentiment: string(st.Sentiment.Label),
	})
	if err != nil {
		logx.Error().Err(err).Msg("dialog prompt render failed")
		return FallbackReply
	}

	reply, err := c.gen.Complete(ctx, []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(st.UserInput),
	})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", st.ThreadID).Msg("dialog generation failed")
		return FallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

// Transcript renders history as role-prefixed lines for prompt interpolation.
func Transcript(history []model.Message) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case model.RoleHuman:
			lines = append(lines, "Human: "+m.Content)
		case model.RoleAI:
			lines = append(lines, "AI: "+m.Content)
		case model.RoleSystem:
			lines = append(lines, "System: "+m.Content)
		default:
			lines = append(lines, m.Content)
		}
	}
	return strings.Join(lines, "\n")
}
