package orders

import "time"

type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_order_number"`

	// Service snapshot taken at checkout (catalog price changes never
	// retroactively affect an order).
	ServiceID   string `gorm:"type:char(36);not null;index:ix_orders_service_id"`
	ServiceName string `gorm:"type:varchar(255);not null"`
	TargetURL   string `gorm:"type:varchar(512);not null"`

	UnitPriceCents int `gorm:"not null"`
	Quantity       int `gorm:"not null"`
	TotalCents     int `gorm:"not null"`
	DiscountCents  int `gorm:"not null"`
	FinalCents     int `gorm:"not null"`

	ProgressCurrent int `gorm:"not null;default:0"`
	ProgressTarget  int `gorm:"not null"`

	Status        Status        `gorm:"type:varchar(32);not null;index:ix_orders_status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(32);not null"`

	RefundState       RefundState `gorm:"type:varchar(32);not null;default:'none'"`
	RefundReason      *string     `gorm:"type:varchar(255)"`
	RefundAmountCents int         `gorm:"not null;default:0"`
	RefundRef         *string     `gorm:"type:varchar(128);index:ix_orders_refund_ref"` // gateway refund id of the active request

	CustomerEmail string `gorm:"type:varchar(255);not null"`
	CustomerName  string `gorm:"type:varchar(255)"`

	ConfirmedAt       *time.Time
	DeliveryStartedAt *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	RefundedAt        *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// OrderEvent is the append-only status history. Rows are never updated or
// reordered.
type OrderEvent struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	OrderID     string  `gorm:"type:char(36);not null;index:ix_order_events_order_id"`
	OrderNumber string  `gorm:"type:varchar(32);not null"`
	Status      Status  `gorm:"type:varchar(32);not null"`
	Note        *string `gorm:"type:varchar(255)"`
	Actor       string  `gorm:"type:varchar(64);not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (OrderEvent) TableName() string { return "order_events" }

type Customer struct {
	Email string
	Name  string
}
