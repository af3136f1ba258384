package actions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-csa/server/internal/agent/model"
)

type stubIntegration struct {
	lastOp     model.Operation
	lastParams map[string]any
	data       map[string]any
	err        error
}

func (s *stubIntegration) Invoke(_ context.Context, op model.Operation, params map[string]any) (map[string]any, error) {
	s.lastOp = op
	s.lastParams = params
	return s.data, s.err
}

func TestDispatchOrderStatus(t *testing.T) {
	svc := &stubIntegration{data: map[string]any{"status": "shipped"}}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		Intent:   model.IntentCheckOrderStatus,
		Entities: map[string]any{model.SlotOrderID: "12345"},
	}
	res := d.Dispatch(context.Background(), st)

	require.True(t, res.Success)
	assert.Equal(t, model.OpGetOrderStatus, svc.lastOp)
	assert.Equal(t, "12345", svc.lastParams["orderId"])
	assert.Equal(t, "shipped", res.Data["status"])
}

func TestDispatchMissingSlotAsksForIt(t *testing.T) {
	svc := &stubIntegration{}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{Intent: model.IntentCheckOrderStatus}
	res := d.Dispatch(context.Background(), st)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "order number")
	assert.Empty(t, svc.lastOp) // no call was made
}

func TestDispatchRefundRequiresBothSlots(t *testing.T) {
	svc := &stubIntegration{data: map[string]any{}}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		Intent:   model.IntentProcessRefund,
		Entities: map[string]any{model.SlotOrderID: "9981"},
	}
	res := d.Dispatch(context.Background(), st)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "refund amount")

	st.Entities[model.SlotAmount] = "25.50"
	res = d.Dispatch(context.Background(), st)
	require.True(t, res.Success)
	assert.Equal(t, model.OpProcessRefund, svc.lastOp)
	assert.Equal(t, "25.50", svc.lastParams["amount"])
	assert.Equal(t, "Not specified", svc.lastParams["reason"])
}

func TestDispatchBackendFailureKeepsUserSafeMessage(t *testing.T) {
	svc := &stubIntegration{err: errors.New("connection refused to 10.0.0.5")}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		Intent:   model.IntentTrackShipment,
		Entities: map[string]any{model.SlotTrackingID: "AB123456789CD"},
	}
	res := d.Dispatch(context.Background(), st)

	assert.False(t, res.Success)
	assert.NotContains(t, res.Message, "10.0.0.5")
	assert.Contains(t, res.Err, "connection refused")
}

func TestDispatchUnknownIntentNoops(t *testing.T) {
	svc := &stubIntegration{}
	d := NewDispatcher(svc, 0)

	res := d.Dispatch(context.Background(), &model.ConversationState{Intent: model.IntentGreeting})
	assert.True(t, res.Success)
	assert.Equal(t, "No action required.", res.Message)
	assert.Empty(t, res.Err)
	assert.Empty(t, svc.lastOp)
}

func TestEscalateBuildsTicket(t *testing.T) {
	svc := &stubIntegration{data: map[string]any{"ticket_id": "HS-4417"}}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		ThreadID:  "t1",
		UserInput: "I am extremely unhappy, this is the third time my delivery failed",
		Intent:    model.IntentEscalateToHuman,
		Sentiment: model.Sentiment{Score: -0.7, Label: model.SentimentNegative},
		History: []model.Message{
			{Role: model.RoleHuman, Content: "where is my parcel"},
			{Role: model.RoleAI, Content: "let me check"},
		},
	}
	res := d.Escalate(context.Background(), st)

	require.True(t, res.Success)
	assert.Equal(t, model.OpCreateTicket, svc.lastOp)
	assert.Contains(t, res.Message, "HS-4417")

	title, _ := svc.lastParams["title"].(string)
	assert.True(t, strings.HasPrefix(title, "Escalation: "))
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.LessOrEqual(t, len(title), len("Escalation: ")+titleSnippetLen+3)

	assert.Equal(t, "high", svc.lastParams["priority"])
	assert.Equal(t, unknownCustomerEmail, svc.lastParams["customer_email"])

	summary, _ := svc.lastParams["conversation_summary"].(string)
	assert.Contains(t, summary, "User: where is my parcel")
	assert.Contains(t, summary, "Agent: let me check")
	assert.Contains(t, summary, "Intent: escalate_to_human")
}

func TestEscalateMediumPriorityWhenNotNegative(t *testing.T) {
	svc := &stubIntegration{data: map[string]any{}}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		UserInput: "please connect me to a person",
		Intent:    model.IntentEscalateToHuman,
		Sentiment: model.NeutralSentiment(),
		Entities:  map[string]any{model.SlotCustomerEmail: "jane@example.com"},
	}
	res := d.Escalate(context.Background(), st)

	require.True(t, res.Success)
	assert.Equal(t, "medium", svc.lastParams["priority"])
	assert.Equal(t, "jane@example.com", svc.lastParams["customer_email"])
	assert.Contains(t, res.Message, "pending")
}

func TestEscalateFailure(t *testing.T) {
	svc := &stubIntegration{err: errors.New("webhook 500")}
	d := NewDispatcher(svc, 0)

	st := &model.ConversationState{
		UserInput: "talk to a human",
		Intent:    model.IntentEscalateToHuman,
		Sentiment: model.NeutralSentiment(),
	}
	res := d.Escalate(context.Background(), st)

	assert.False(t, res.Success)
	assert.Equal(t, "Failed to create support ticket due to technical error", res.Message)
	assert.Contains(t, res.Err, "webhook 500")
}
