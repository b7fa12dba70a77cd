package view

import (
	"time"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
)

type Progress struct {
	Current    int `json:"current"`
	Target     int `json:"target"`
	Percentage int `json:"percentage"`
}

type Refund struct {
	State       string `json:"state"`
	Reason      string `json:"reason,omitempty"`
	AmountCents int    `json:"amount_cents,omitempty"`
}

type Order struct {
	OrderNumber string `json:"order_number"`
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	TargetURL   string `json:"target_url"`

	UnitPriceCents int `json:"unit_price_cents"`
	Quantity       int `json:"quantity"`
	TotalCents     int `json:"total_cents"`
	DiscountCents  int `json:"discount_cents"`
	FinalCents     int `json:"final_cents"`

	Progress Progress `json:"progress"`

	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Refund        *Refund `json:"refund,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
}

type OrderEvent struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	PaymentID     string `json:"payment_id"`
	OrderNumber   string `json:"order_number"`
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id,omitempty"`
	Method        string `json:"method"`
	AmountCents   int    `json:"amount_cents"`

	GatewayFeeCents    int `json:"gateway_fee_cents"`
	ProcessingFeeCents int `json:"processing_fee_cents"`
	FeeTotalCents      int `json:"fee_total_cents"`

	RefundedTotalCents int `json:"refunded_total_cents"`

	Status         string     `json:"status"`
	FailureCode    string     `json:"failure_code,omitempty"`
	FailureMessage string     `json:"failure_message,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func FromOrder(o orders.Order) Order {
	v := Order{
		OrderNumber:    o.OrderNumber,
		ServiceID:      o.ServiceID,
		ServiceName:    o.ServiceName,
		TargetURL:      o.TargetURL,
		UnitPriceCents: o.UnitPriceCents,
		Quantity:       o.Quantity,
		TotalCents:     o.TotalCents,
		DiscountCents:  o.DiscountCents,
		FinalCents:     o.FinalCents,
		Progress: Progress{
			Current:    o.ProgressCurrent,
			Target:     o.ProgressTarget,
			Percentage: o.Percentage(),
		},
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		ConfirmedAt:   o.ConfirmedAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
		RefundedAt:    o.RefundedAt,
	}
	if o.RefundState != orders.RefundNone {
		v.Refund = &Refund{
			State:       string(o.RefundState),
			AmountCents: o.RefundAmountCents,
		}
		if o.RefundReason != nil {
			v.Refund.Reason = *o.RefundReason
		}
	}
	return v
}

func FromOrderEvents(events []orders.OrderEvent) []OrderEvent {
	out := make([]OrderEvent, len(events))
	for i, e := range events {
		out[i] = OrderEvent{
			Status:    string(e.Status),
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt,
		}
		if e.Note != nil {
			out[i].Note = *e.Note
		}
	}
	return out
}

func FromPayment(p payments.Payment) Payment {
	v := Payment{
		PaymentID:          p.PaymentID,
		OrderNumber:        p.OrderNumber,
		Provider:           p.Provider,
		Method:             string(p.Method),
		AmountCents:        p.AmountCents,
		GatewayFeeCents:    p.GatewayFeeCents,
		ProcessingFeeCents: p.ProcessingFeeCents,
		FeeTotalCents:      p.FeeTotalCents,
		RefundedTotalCents: p.RefundedTotalCents,
		Status:             string(p.Status),
		CompletedAt:        p.CompletedAt,
		CreatedAt:          p.CreatedAt,
	}
	if p.TransactionID != nil {
		v.TransactionID = *p.TransactionID
	}
	if p.FailureCode != nil {
		v.FailureCode = *p.FailureCode
	}
	if p.FailureMessage != nil {
		v.FailureMessage = *p.FailureMessage
	}
	return v
}
