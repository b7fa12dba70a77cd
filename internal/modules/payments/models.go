package payments

import (
	"time"

	"gorm.io/datatypes"
)

type Payment struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	PaymentID   string `gorm:"type:varchar(32);not null;uniqueIndex:ux_payments_payment_id"`
	OrderID     string `gorm:"type:char(36);not null;index:ix_payments_order_id"`
	OrderNumber string `gorm:"type:varchar(32);not null;index:ix_payments_order_number"`

	Provider      string  `gorm:"type:varchar(64);not null"`
	GatewayRef    *string `gorm:"type:varchar(128)"` // charge handle assigned by the gateway
	TransactionID *string `gorm:"type:varchar(128)"` // assigned on completion

	Method      Method `gorm:"type:varchar(32);not null"`
	AmountCents int    `gorm:"not null"`

	GatewayFeeCents    int `gorm:"not null;default:0"`
	ProcessingFeeCents int `gorm:"not null;default:0"`
	FeeTotalCents      int `gorm:"not null;default:0"`

	RefundedTotalCents int `gorm:"not null;default:0"`

	Status Status `gorm:"type:varchar(32);not null;index:ix_payments_status"`

	// method-specific completion details
	CardBrand      *string `gorm:"type:varchar(32)"`
	CardLast4      *string `gorm:"type:char(4)"`
	BankName       *string `gorm:"type:varchar(64)"`
	VirtualAccount *string `gorm:"type:varchar(64)"`

	FailureCode    *string `gorm:"type:varchar(64)"`
	FailureMessage *string `gorm:"type:varchar(255)"`

	CompletedAt *time.Time
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// TimelineEntry mirrors the order history: exactly one row per committed
// status transition, tagged with its source.
type TimelineEntry struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	PaymentID string  `gorm:"type:char(36);not null;index:ix_payment_timeline_payment_id"`
	Status    Status  `gorm:"type:varchar(32);not null"`
	Source    Source  `gorm:"type:varchar(16);not null"`
	Note      *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
}

func (TimelineEntry) TableName() string { return "payment_timeline" }

// WebhookEvent is the inbound gateway event ledger. Rows are retained even
// for duplicates and rejected events; (provider, idempotency_key) is the
// dedupe key.
type WebhookEvent struct {
	ID             string         `gorm:"type:char(36);primaryKey"`
	PaymentID      string         `gorm:"type:char(36);not null;index:ix_webhook_events_payment_id"`
	Provider       string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_webhook_events_provider_key,priority:1"`
	IdempotencyKey string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_webhook_events_provider_key,priority:2"`
	EventType      string         `gorm:"type:varchar(64);not null"`
	PayloadJSON    datatypes.JSON `gorm:"type:json;not null"`

	Processed    bool       `gorm:"not null;default:false"`
	ProcessedAt  *time.Time
	ProcessError *string    `gorm:"type:varchar(255)"`

	ReceivedAt time.Time `gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "payment_webhook_events" }

// RefundReceipt records every applied refund exactly once; refund_id is the
// idempotency key for ApplyRefund.
type RefundReceipt struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	PaymentID   string  `gorm:"type:char(36);not null;uniqueIndex:ux_payment_refunds_payment_refund,priority:1"`
	RefundID    string  `gorm:"type:varchar(128);not null;uniqueIndex:ux_payment_refunds_payment_refund,priority:2"`
	AmountCents int     `gorm:"not null"`
	Reason      *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
}

func (RefundReceipt) TableName() string { return "payment_refunds" }
