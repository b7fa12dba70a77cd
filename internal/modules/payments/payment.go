package payments

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
)

// New builds a pending payment for an order. The duplicate-payment guard
// (one completed payment per order) is enforced by the coordinator, which is
// the only caller holding the order lock.
func New(ord orders.Order, amountCents int, method Method, provider string, now time.Time) (Payment, TimelineEntry, error) {
	if !method.Valid() {
		return Payment{}, TimelineEntry{}, ErrUnknownMethod
	}
	if amountCents <= 0 || amountCents != ord.FinalCents {
		return Payment{}, TimelineEntry{}, ErrAmountMismatch
	}

	p := Payment{
		ID:          uuid.NewString(),
		PaymentID:   NewPaymentID(),
		OrderID:     ord.ID,
		OrderNumber: ord.OrderNumber,
		Provider:    provider,
		Method:      method,
		AmountCents: amountCents,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return p, p.entry(StatusPending, SourceSystem, "payment created", now), nil
}

func NewPaymentID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return "PAY-" + strings.ToUpper(hex.EncodeToString(b))
}

// GatewayResult carries what the gateway reported on completion.
type GatewayResult struct {
	TransactionID  string
	CardBrand      string
	CardLast4      string
	BankName       string
	VirtualAccount string
}

// MarkProcessing records the charge handle once the gateway accepted it.
func (p *Payment) MarkProcessing(gatewayRef string, now time.Time) (TimelineEntry, error) {
	if !CanTransition(p.Status, StatusProcessing) {
		return TimelineEntry{}, ErrInvalidTransition
	}
	p.Status = StatusProcessing
	if gatewayRef != "" {
		p.GatewayRef = &gatewayRef
	}
	p.UpdatedAt = now
	return p.entry(StatusProcessing, SourceSystem, "charge accepted by gateway", now), nil
}

// MarkCompleted finalizes the payment. Idempotent on the transaction id: a
// second call with the same id is a no-op returning applied=false, so a
// redelivered completion webhook never errors.
func (p *Payment) MarkCompleted(res GatewayResult, now time.Time) (TimelineEntry, bool, error) {
	if p.Status == StatusCompleted {
		if p.TransactionID != nil && *p.TransactionID == res.TransactionID {
			return TimelineEntry{}, false, nil
		}
		return TimelineEntry{}, false, ErrInvalidTransition
	}
	if !CanTransition(p.Status, StatusCompleted) {
		return TimelineEntry{}, false, ErrInvalidTransition
	}

	fees, err := ComputeFees(p.AmountCents, p.Method)
	if err != nil {
		return TimelineEntry{}, false, err
	}

	p.Status = StatusCompleted
	txn := res.TransactionID
	p.TransactionID = &txn
	p.GatewayFeeCents = fees.GatewayCents
	p.ProcessingFeeCents = fees.ProcessingCents
	p.FeeTotalCents = fees.TotalCents
	p.setMethodDetails(res)
	t := now
	p.CompletedAt = &t
	p.UpdatedAt = now

	return p.entry(StatusCompleted, SourceGateway, "txn="+res.TransactionID, now), true, nil
}

// MarkFailed is only legal before completion; a completed payment can never
// fail, only be refunded. Already-failed payments absorb the call silently
// (duplicate failure webhooks).
func (p *Payment) MarkFailed(code, message string, now time.Time) (TimelineEntry, bool, error) {
	if p.Status == StatusFailed {
		return TimelineEntry{}, false, nil
	}
	if !CanTransition(p.Status, StatusFailed) {
		return TimelineEntry{}, false, ErrInvalidTransition
	}
	p.Status = StatusFailed
	if c := strings.TrimSpace(code); c != "" {
		p.FailureCode = &c
	}
	if m := strings.TrimSpace(message); m != "" {
		p.FailureMessage = &m
	}
	p.UpdatedAt = now
	return p.entry(StatusFailed, SourceGateway, message, now), true, nil
}

func (p *Payment) Cancel(reason string, now time.Time) (TimelineEntry, error) {
	if !CanTransition(p.Status, StatusCancelled) {
		return TimelineEntry{}, ErrInvalidTransition
	}
	p.Status = StatusCancelled
	p.UpdatedAt = now
	return p.entry(StatusCancelled, SourceUser, reason, now), nil
}

// CheckRefundable validates a refund request amount against the remaining
// balance without mutating anything.
func (p *Payment) CheckRefundable(amountCents int) error {
	if p.Status != StatusCompleted && p.Status != StatusPartialRefund {
		return ErrNotCompleted
	}
	if amountCents <= 0 || amountCents > p.AmountCents-p.RefundedTotalCents {
		return ErrRefundExceedsBalance
	}
	return nil
}

// ApplyRefund is the sole mutator of the cumulative refund total. The caller
// guarantees at-most-once per refund id via the RefundReceipt ledger; this
// method only enforces the balance invariant and picks the resulting status.
func (p *Payment) ApplyRefund(amountCents int, refundID string, now time.Time) (TimelineEntry, RefundReceipt, error) {
	if err := p.CheckRefundable(amountCents); err != nil {
		return TimelineEntry{}, RefundReceipt{}, err
	}

	p.RefundedTotalCents += amountCents
	if p.RefundedTotalCents >= p.AmountCents {
		p.Status = StatusRefunded
	} else {
		p.Status = StatusPartialRefund
	}
	p.UpdatedAt = now

	receipt := RefundReceipt{
		ID:          uuid.NewString(),
		PaymentID:   p.ID,
		RefundID:    refundID,
		AmountCents: amountCents,
		CreatedAt:   now,
	}
	return p.entry(p.Status, SourceSystem, "refund_id="+refundID, now), receipt, nil
}

// FullyRefunded reports whether the cumulative refund total reached the
// charged amount.
func (p *Payment) FullyRefunded() bool {
	return p.RefundedTotalCents >= p.AmountCents
}

func (p *Payment) setMethodDetails(res GatewayResult) {
	if v := strings.TrimSpace(res.CardBrand); v != "" {
		p.CardBrand = &v
	}
	if v := strings.TrimSpace(res.CardLast4); v != "" {
		p.CardLast4 = &v
	}
	if v := strings.TrimSpace(res.BankName); v != "" {
		p.BankName = &v
	}
	if v := strings.TrimSpace(res.VirtualAccount); v != "" {
		p.VirtualAccount = &v
	}
}

func (p *Payment) entry(st Status, src Source, note string, now time.Time) TimelineEntry {
	var notePtr *string
	if n := strings.TrimSpace(note); n != "" {
		notePtr = &n
	}
	return TimelineEntry{
		ID:        uuid.NewString(),
		PaymentID: p.ID,
		Status:    st,
		Source:    src,
		Note:      notePtr,
		CreatedAt: now,
	}
}
