// Package actions maps resolved intents onto integration operations and
// handles human escalation ticketing.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

const (
	defaultSummaryTurns  = 4
	titleSnippetLen      = 50
	unknownCustomerEmail = "unknown@customer.com"
)

// Dispatcher executes the operation an intent calls for through the
// integration service.
type Dispatcher struct {
	svc          model.IntegrationService
	summaryTurns int
}

// NewDispatcher wires the dispatcher to the integration backend.
// summaryTurns bounds how much trailing history feeds escalation tickets;
// zero or negative uses the default.
func NewDispatcher(svc model.IntegrationService, summaryTurns int) *Dispatcher {
	if summaryTurns <= 0 {
		summaryTurns = defaultSummaryTurns
	}
	return &Dispatcher{svc: svc, summaryTurns: summaryTurns}
}

// Dispatch runs the operation for the state's intent. Missing slots produce a
// failed result whose message is a clarifying question, so the dialogue layer
// can ask for the missing value instead of erroring. Backend failures keep
// the raw error in Err and a user safe text in Message.
func (d *Dispatcher) Dispatch(ctx context.Context, st *model.ConversationState) model.ActionResult {
	switch st.Intent {
	case model.IntentCheckOrderStatus:
		orderID, ok := slotString(st.Entities, model.SlotOrderID)
		if !ok {
			return askFor("Could you share your order number so I can check its status?")
		}
		return d.invoke(ctx, model.OpGetOrderStatus,
			map[string]any{"orderId": orderID},
			fmt.Sprintf("I've looked up order %s for you.", orderID))

	case model.IntentTrackShipment:
		trackingID, ok := slotString(st.Entities, model.SlotTrackingID)
		if !ok {
			return askFor("Could you share your tracking number so I can trace the shipment?")
		}
		return d.invoke(ctx, model.OpTrackShipment,
			map[string]any{"trackingId": trackingID},
			fmt.Sprintf("Here's the latest on shipment %s.", trackingID))

	case model.IntentProcessRefund:
		orderID, okID := slotString(st.Entities, model.SlotOrderID)
		amount, okAmt := slotString(st.Entities, model.SlotAmount)
		if !okID || !okAmt {
			return askFor("To process a refund I need your order number and the refund amount.")
		}
		return d.invoke(ctx, model.OpProcessRefund,
			map[string]any{"orderId": orderID, "amount": amount, "reason": "Not specified"},
			fmt.Sprintf("I've started a refund of %s for order %s.", amount, orderID))

	case model.IntentUpdateShippingAddress:
		orderID, okID := slotString(st.Entities, model.SlotOrderID)
		addr, okAddr := slotString(st.Entities, model.SlotNewAddress)
		if !okID || !okAddr {
			return askFor("I need your order number and the new shipping address to update it.")
		}
		return d.invoke(ctx, model.OpUpdateShippingAddress,
			map[string]any{"orderId": orderID, "newAddress": addr},
			fmt.Sprintf("The shipping address on order %s has been updated.", orderID))

	case model.IntentResetPassword:
		email, ok := slotString(st.Entities, model.SlotCustomerEmail)
		if !ok {
			return askFor("What's the email on your account? I'll send a password reset link there.")
		}
		return d.invoke(ctx, model.OpResetPassword,
			map[string]any{"customerEmail": email},
			fmt.Sprintf("I've sent a password reset link to %s.", email))

	case model.IntentEscalateToHuman:
		return d.Escalate(ctx, st)

	default:
		// Intents with no side effect are successful no-ops.
		return model.ActionResult{Success: true, Message: "No action required."}
	}
}

// Escalate opens a support ticket summarizing the conversation. Negative
// sentiment raises the ticket priority.
func (d *Dispatcher) Escalate(ctx context.Context, st *model.ConversationState) model.ActionResult {
	priority := "medium"
	if st.Sentiment.Label == model.SentimentNegative {
		priority = "high"
	}
	email, ok := slotString(st.Entities, model.SlotCustomerEmail)
	if !ok {
		email = unknownCustomerEmail
	}

	params := map[string]any{
		"title":                "Escalation: " + snippet(st.UserInput, titleSnippetLen) + "...",
		"description":          st.UserInput,
		"customer_email":       email,
		"priority":             priority,
		"conversation_summary": d.summarize(st),
	}

	data, err := d.svc.Invoke(ctx, model.OpCreateTicket, params)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", st.ThreadID).Msg("ticket creation failed")
		return model.ActionResult{
			Success: false,
			Message: "Failed to create support ticket due to technical error",
			Err:     err.Error(),
		}
	}

	ticketID := "pending"
	if v, ok := data["ticket_id"]; ok {
		ticketID = fmt.Sprintf("%v", v)
	}
	return model.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Your ticket reference is: %s.", ticketID),
		Data:    data,
	}
}

func (d *Dispatcher) invoke(ctx context.Context, op model.Operation, params map[string]any, okMsg string) model.ActionResult {
	data, err := d.svc.Invoke(ctx, op, params)
	if err != nil {
		logx.Error().Err(err).Str("operation", string(op)).Msg("integration call failed")
		return model.ActionResult{
			Success: false,
			Message: "I couldn't complete that request right now. Please try again in a moment.",
			Err:     err.Error(),
		}
	}
	return model.ActionResult{Success: true, Message: okMsg, Data: data}
}

func askFor(question string) model.ActionResult {
	return model.ActionResult{Success: false, Message: question}
}

func slotString(entities map[string]any, key string) (string, bool) {
	if entities == nil {
		return "", false
	}
	v, ok := entities[key]
	if !ok {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return "", false
	}
	return s, true
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// summarize formats the recent turns plus the current query for the ticket.
func (d *Dispatcher) summarize(st *model.ConversationState) string {
	tail := fmt.Sprintf("Current query: %s\nIntent: %s\nSentiment: %s",
		st.UserInput, st.Intent, st.Sentiment.Label)

	history := st.LastTurns(d.summaryTurns)
	if len(history) == 0 {
		return tail
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case model.RoleHuman:
			lines = append(lines, "User: "+m.Content)
		case model.RoleAI:
			lines = append(lines, "Agent: "+m.Content)
		default:
			lines = append(lines, m.Content)
		}
	}
	return "Recent conversation:\n" + strings.Join(lines, "\n") + "\n\n" + tail
}
