package notify

import "context"

// Event kinds that reach the customer. Dispatch is fire-and-forget: delivery
// failures must never affect the transaction that produced the event.
const (
	KindPaymentCompleted = "payment_completed"
	KindPaymentFailed    = "payment_failed"
	KindOrderCompleted   = "order_completed"
	KindRefundProcessed  = "refund_processed"
)

type Event struct {
	OrderNumber string `json:"order_number"`
	PaymentID   string `json:"payment_id,omitempty"`
	Kind        string `json:"kind"`
	Recipient   string `json:"recipient"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}
