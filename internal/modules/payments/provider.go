package payments

import (
	"context"
	"net/http"
)

type ChargeRequest struct {
	OrderNumber    string
	PaymentID      string
	AmountCents    int
	Method         Method
	CustomerEmail  string
	IdempotencyKey string
	ReturnURL      string
	CancelURL      string
}

type ChargeResponse struct {
	GatewayRef  string
	Status      string // accepted|completed|failed
	RedirectURL string
}

type RefundChargeRequest struct {
	OrderNumber    string
	PaymentID      string
	GatewayRef     string // charge handle (if available)
	AmountCents    int
	IdempotencyKey string
	Reason         string
}

type RefundChargeResponse struct {
	RefundID string
	Status   string // accepted|completed|failed
}

// Abstract event types every gateway adapter normalizes to.
const (
	EventPaymentCompleted = "PAYMENT_COMPLETED"
	EventPaymentFailed    = "PAYMENT_FAILED"
	EventPaymentCancelled = "PAYMENT_CANCELLED"
	EventRefundCompleted  = "REFUND_COMPLETED"
	EventRefundFailed     = "REFUND_FAILED"
)

// GatewayEvent is the normalized webhook shape shared by all providers.
type GatewayEvent struct {
	EventType      string
	IdempotencyKey string

	TransactionID string // charge handle / txn id
	RefundID      string

	AmountCents    int
	FailureCode    string
	FailureMessage string

	CardBrand      string
	CardLast4      string
	BankName       string
	VirtualAccount string
}

type Provider interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)
	RefundCharge(ctx context.Context, req RefundChargeRequest) (RefundChargeResponse, error)

	// Webhook: verify signature + parse into the normalized event
	VerifyAndParseWebhook(headers http.Header, body []byte) (GatewayEvent, error)
}
