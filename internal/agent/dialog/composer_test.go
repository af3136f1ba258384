package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-csa/server/internal/agent/model"
)

type stubGenerator struct {
	reply    string
	err      error
	lastMsgs []*schema.Message
}

func (g *stubGenerator) Complete(_ context.Context, msgs []*schema.Message) (string, error) {
	g.lastMsgs = msgs
	return g.reply, g.err
}

func TestComposeUsesStateInPrompt(t *testing.T) {
	gen := &stubGenerator{reply: "Your order ships tomorrow."}
	c := NewComposer(gen, model.PromptConfig{AgentName: "Vision AI"})

	st := &model.ConversationState{
		UserInput: "when does my order ship?",
		Intent:    model.IntentCheckOrderStatus,
		Sentiment: model.NeutralSentiment(),
		Context:   "Orders ship within 2 business days.",
		History: []model.Message{
			{Role: model.RoleHuman, Content: "hi"},
			{Role: model.RoleAI, Content: "hello, how can I help?"},
		},
	}
	reply := c.Compose(context.Background(), st)
	assert.Equal(t, "Your order ships tomorrow.", reply)

	require.Len(t, gen.lastMsgs, 2)
	sys := gen.lastMsgs[0].Content
	assert.Contains(t, sys, "Vision AI")
	assert.Contains(t, sys, "Human: hi")
	assert.Contains(t, sys, "Orders ship within 2 business days.")
	assert.Contains(t, sys, "check_order_status")
	assert.Equal(t, "when does my order ship?", gen.lastMsgs[1].Content)
}

func TestComposeIncludesActionOutcome(t *testing.T) {
	gen := &stubGenerator{reply: "Done!"}
	c := NewComposer(gen, model.PromptConfig{})

	st := &model.ConversationState{
		UserInput:    "refund order 9981 please",
		Intent:       model.IntentProcessRefund,
		Sentiment:    model.NeutralSentiment(),
		ActionResult: &model.ActionResult{Success: true, Message: "I've started a refund of 25.50 for order 9981."},
	}
	c.Compose(context.Background(), st)

	require.Len(t, gen.lastMsgs, 2)
	assert.Contains(t, gen.lastMsgs[0].Content, "Action outcome: I've started a refund")
}

func TestComposeFallsBackOnError(t *testing.T) {
	c := NewComposer(&stubGenerator{err: errors.New("model down")}, model.PromptConfig{})

	st := &model.ConversationState{
		UserInput: "hello",
		Sentiment: model.NeutralSentiment(),
	}
	assert.Equal(t, FallbackReply, c.Compose(context.Background(), st))
}

func TestComposeFallsBackOnEmptyReply(t *testing.T) {
	c := NewComposer(&stubGenerator{reply: "   "}, model.PromptConfig{})

	st := &model.ConversationState{UserInput: "hello", Sentiment: model.NeutralSentiment()}
	assert.Equal(t, FallbackReply, c.Compose(context.Background(), st))
}

func TestTranscript(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleHuman, Content: "a"},
		{Role: model.RoleAI, Content: "b"},
		{Role: model.RoleSystem, Content: "c"},
	}
	assert.Equal(t, "Human: a\nAI: b\nSystem: c", Transcript(history))
	assert.Equal(t, "", Transcript(nil))
}
