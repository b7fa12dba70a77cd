package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/catalog"
)

// New builds a pending order from a catalog snapshot. Quantity must sit inside
// the snapshot bounds and the target must be an absolute http(s) URL.
func New(snap catalog.ServiceSnapshot, quantity int, targetURL string, cust Customer, now time.Time) (Order, OrderEvent, error) {
	if quantity < snap.MinQuantity || quantity > snap.MaxQuantity {
		return Order{}, OrderEvent{}, ErrQuantityOutOfRange
	}
	if !isAbsoluteURL(targetURL) {
		return Order{}, OrderEvent{}, ErrInvalidTarget
	}

	unit := snap.EffectiveUnitPriceCents()
	total := snap.UnitPriceCents * quantity
	final := unit * quantity
	discount := total - final

	o := Order{
		ID:          uuid.NewString(),
		OrderNumber: NewOrderNumber(now),

		ServiceID:   snap.ServiceID,
		ServiceName: snap.Name,
		TargetURL:   targetURL,

		UnitPriceCents: unit,
		Quantity:       quantity,
		TotalCents:     total,
		DiscountCents:  discount,
		FinalCents:     final,

		ProgressCurrent: 0,
		ProgressTarget:  quantity,

		Status:        StatusPending,
		PaymentStatus: PayPending,
		RefundState:   RefundNone,

		CustomerEmail: cust.Email,
		CustomerName:  cust.Name,

		CreatedAt: now,
		UpdatedAt: now,
	}

	ev := o.event(StatusPending, "order created", "system", now)
	return o, ev, nil
}

// NewOrderNumber generates the human-readable order identity, e.g.
// MG-20250830-4F21A9.
func NewOrderNumber(now time.Time) string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return fmt.Sprintf("MG-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(b)))
}

// Percentage is derived, never stored.
func (o *Order) Percentage() int {
	if o.ProgressTarget <= 0 {
		return 0
	}
	return o.ProgressCurrent * 100 / o.ProgressTarget
}

// AdvanceProgress moves the fulfillment counter. Decreases and no-op repeats
// are tolerated silently (fulfillment polling may deliver results out of
// order); reaching the target completes the order in the same mutation.
// Returns the history event and whether anything changed.
func (o *Order) AdvanceProgress(newCurrent int, note string, now time.Time) (OrderEvent, bool, error) {
	if newCurrent > o.ProgressTarget {
		newCurrent = o.ProgressTarget
	}

	if o.Status.Terminal() {
		if o.Status == StatusCompleted {
			return OrderEvent{}, false, nil // late poll after completion
		}
		return OrderEvent{}, false, ErrInvalidTransition
	}
	if newCurrent <= o.ProgressCurrent {
		return OrderEvent{}, false, nil
	}

	o.ProgressCurrent = newCurrent
	o.UpdatedAt = now

	if newCurrent >= o.ProgressTarget {
		o.Status = StatusCompleted
		t := now
		o.CompletedAt = &t
		return o.event(StatusCompleted, noteOr(note, "fulfillment complete"), "system", now), true, nil
	}

	// first delivered units move the order into in_progress
	if o.Status == StatusConfirmed || o.Status == StatusProcessing || o.Status == StatusPartial {
		o.Status = StatusInProgress
		if o.DeliveryStartedAt == nil {
			t := now
			o.DeliveryStartedAt = &t
		}
	}
	return o.event(o.Status, noteOr(note, fmt.Sprintf("progress %d/%d", newCurrent, o.ProgressTarget)), "system", now), true, nil
}

// Transition applies a table-validated status change.
func (o *Order) Transition(to Status, note, actor string, now time.Time) (OrderEvent, error) {
	if !to.Valid() || !CanTransition(o.Status, to) {
		return OrderEvent{}, ErrInvalidTransition
	}

	o.Status = to
	o.UpdatedAt = now

	switch to {
	case StatusConfirmed:
		if o.ConfirmedAt == nil {
			t := now
			o.ConfirmedAt = &t
		}
	case StatusProcessing:
		if o.DeliveryStartedAt == nil {
			t := now
			o.DeliveryStartedAt = &t
		}
	case StatusCancelled:
		t := now
		o.CancelledAt = &t
	case StatusCompleted:
		if o.CompletedAt == nil {
			t := now
			o.CompletedAt = &t
		}
	case StatusRefunded:
		t := now
		o.RefundedAt = &t
	}

	return o.event(to, note, actor, now), nil
}

// RequestRefund opens a refund request. amountCents must already be resolved
// (the coordinator fills in the prorated default before calling).
func (o *Order) RequestRefund(reason string, amountCents int, now time.Time) (OrderEvent, error) {
	if o.PaymentStatus != PayPaid && o.PaymentStatus != PayPartialRefund {
		return OrderEvent{}, ErrNotPaid
	}
	if o.RefundState.Active() {
		return OrderEvent{}, ErrRefundAlreadyPending
	}

	o.RefundState = RefundRequested
	o.RefundAmountCents = amountCents
	if r := strings.TrimSpace(reason); r != "" {
		o.RefundReason = &r
	}
	o.UpdatedAt = now

	return o.event(o.Status, fmt.Sprintf("refund requested: %d", amountCents), "user", now), nil
}

// WithdrawRefund cancels a refund request. Only legal while still in
// requested; once approved it can only be overridden by an admin rejection.
func (o *Order) WithdrawRefund(now time.Time) (OrderEvent, error) {
	if !o.RefundState.Active() {
		return OrderEvent{}, ErrNoRefundRequest
	}
	if o.RefundState != RefundRequested {
		return OrderEvent{}, ErrRefundNotWithdrawable
	}
	o.RefundState = RefundWithdrawn
	o.UpdatedAt = now
	return o.event(o.Status, "refund request withdrawn", "user", now), nil
}

// ApproveRefund marks the request approved without moving money.
func (o *Order) ApproveRefund(actor string, now time.Time) (OrderEvent, error) {
	if o.RefundState != RefundRequested {
		return OrderEvent{}, ErrNoRefundRequest
	}
	o.RefundState = RefundApproved
	o.UpdatedAt = now
	return o.event(o.Status, "refund approved", actor, now), nil
}

// BeginRefundProcessing marks the active request as handed to the gateway.
// From here the user can no longer withdraw it; only an admin rejection or
// the gateway callback resolves it.
func (o *Order) BeginRefundProcessing(refundRef string, now time.Time) (OrderEvent, error) {
	if o.RefundState != RefundRequested && o.RefundState != RefundApproved {
		return OrderEvent{}, ErrNoRefundRequest
	}
	o.RefundState = RefundProcessing
	if r := strings.TrimSpace(refundRef); r != "" {
		o.RefundRef = &r
	}
	o.UpdatedAt = now
	return o.event(o.Status, "refund sent to gateway", "system", now), nil
}

// ReopenRefund puts a gateway-failed refund back to requested so it can be
// retried or rejected.
func (o *Order) ReopenRefund(note string, now time.Time) (OrderEvent, error) {
	if o.RefundState != RefundProcessing && o.RefundState != RefundApproved {
		return OrderEvent{}, ErrNoRefundRequest
	}
	o.RefundState = RefundRequested
	o.RefundRef = nil
	o.UpdatedAt = now
	return o.event(o.Status, noteOr(note, "refund reopened"), "gateway", now), nil
}

// RejectRefund closes the request.
func (o *Order) RejectRefund(actor string, now time.Time) (OrderEvent, error) {
	if !o.RefundState.Active() {
		return OrderEvent{}, ErrNoRefundRequest
	}
	o.RefundState = RefundRejected
	o.UpdatedAt = now
	return o.event(o.Status, "refund rejected", actor, now), nil
}

// FinishRefund records the outcome after the payment side confirmed the money
// actually moved. full selects between the refunded terminal state and the
// partial branch.
func (o *Order) FinishRefund(full bool, actor string, now time.Time) (OrderEvent, error) {
	if o.Status.Terminal() && o.Status != StatusCompleted {
		return OrderEvent{}, ErrInvalidTransition
	}
	o.RefundState = RefundProcessed
	o.UpdatedAt = now

	if full {
		o.Status = StatusRefunded
		o.PaymentStatus = PayRefunded
		t := now
		o.RefundedAt = &t
		return o.event(StatusRefunded, "refund processed", actor, now), nil
	}

	o.PaymentStatus = PayPartialRefund
	if !o.Status.Terminal() {
		o.Status = StatusPartial
	}
	return o.event(o.Status, "partial refund processed", actor, now), nil
}

func (o *Order) event(st Status, note, actor string, now time.Time) OrderEvent {
	var notePtr *string
	if n := strings.TrimSpace(note); n != "" {
		notePtr = &n
	}
	return OrderEvent{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      st,
		Note:        notePtr,
		Actor:       actor,
		CreatedAt:   now,
	}
}

func noteOr(note, def string) string {
	if strings.TrimSpace(note) != "" {
		return note
	}
	return def
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
