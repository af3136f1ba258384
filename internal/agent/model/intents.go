package model

// Intent is the categorical label for what the user wants. The catalog is
// closed: classification always yields one of the constants below.
type Intent string

const (
	IntentCheckOrderStatus      Intent = "check_order_status"
	IntentTrackShipment         Intent = "track_shipment"
	IntentProcessRefund         Intent = "process_refund"
	IntentUpdateShippingAddress Intent = "update_shipping_address"
	IntentResetPassword         Intent = "reset_password"
	IntentEscalateToHuman       Intent = "escalate_to_human"
	IntentGreeting              Intent = "greeting"
	IntentRequestSupport        Intent = "request_support"
	IntentProductInquiry        Intent = "product_inquiry"
	IntentAskQuestion           Intent = "ask_question"
	IntentNLUError              Intent = "nlu_error"
	IntentUnknown               Intent = "unknown_intent"
)

// Catalog lists every intent the classifier can produce.
var Catalog = []Intent{
	IntentCheckOrderStatus,
	IntentTrackShipment,
	IntentProcessRefund,
	IntentUpdateShippingAddress,
	IntentResetPassword,
	IntentEscalateToHuman,
	IntentGreeting,
	IntentRequestSupport,
	IntentProductInquiry,
	IntentAskQuestion,
	IntentNLUError,
	IntentUnknown,
}

// InfoSeeking reports whether the intent routes through knowledge retrieval
// before conversing.
func (i Intent) InfoSeeking() bool {
	switch i {
	case IntentGreeting, IntentRequestSupport, IntentProductInquiry, IntentAskQuestion:
		return true
	}
	return false
}

// ActionEligible reports whether the intent can be handed to the action
// dispatcher when knowledge retrieval comes back weak.
func (i Intent) ActionEligible() bool {
	return i == IntentCheckOrderStatus || i == IntentEscalateToHuman
}

// Slot keys extracted by the classifier and consumed by the dispatcher.
const (
	SlotOrderID       = "orderId"
	SlotTrackingID    = "trackingId"
	SlotAmount        = "amount"
	SlotNewAddress    = "newAddress"
	SlotCustomerEmail = "customerEmail"
)

// Operation names one external side-effecting call the integration service
// can perform.
type Operation string

const (
	OpGetOrderStatus        Operation = "get_order_status"
	OpTrackShipment         Operation = "track_shipment"
	OpUpdateShippingAddress Operation = "update_shipping_address"
	OpProcessRefund         Operation = "process_refund"
	OpResetPassword         Operation = "reset_password"
	OpCreateTicket          Operation = "create_ticket"
)
