package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
)

var testTime = time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

func testOrder(finalCents int) orders.Order {
	return orders.Order{
		ID:          "11111111-1111-1111-1111-111111111111",
		OrderNumber: "MG-20250830-AB12CD",
		FinalCents:  finalCents,
	}
}

func newCompletedPayment(t *testing.T, amount int) *Payment {
	t.Helper()
	p, _, err := New(testOrder(amount), amount, MethodCard, "mock", testTime)
	require.NoError(t, err)
	_, err = p.MarkProcessing("ch_abc", testTime)
	require.NoError(t, err)
	_, applied, err := p.MarkCompleted(GatewayResult{TransactionID: "txn_1"}, testTime)
	require.NoError(t, err)
	require.True(t, applied)
	return &p
}

func TestNewPayment(t *testing.T) {
	ord := testOrder(9000)

	p, entry, err := New(ord, 9000, MethodCard, "mock", testTime)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, ord.ID, p.OrderID)
	assert.Equal(t, ord.OrderNumber, p.OrderNumber)
	assert.True(t, len(p.PaymentID) > 4 && p.PaymentID[:4] == "PAY-")
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, SourceSystem, entry.Source)

	_, _, err = New(ord, 9000, Method("crypto"), "mock", testTime)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, _, err = New(ord, 8999, MethodCard, "mock", testTime)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, _, err = New(testOrder(0), 0, MethodCard, "mock", testTime)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestMarkCompleted(t *testing.T) {
	p, _, err := New(testOrder(9000), 9000, MethodCard, "mock", testTime)
	require.NoError(t, err)
	_, err = p.MarkProcessing("ch_abc", testTime)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, p.Status)
	require.Equal(t, "ch_abc", *p.GatewayRef)

	entry, applied, err := p.MarkCompleted(GatewayResult{
		TransactionID: "txn_1",
		CardBrand:     "visa",
		CardLast4:     "4242",
	}, testTime)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, "txn_1", *p.TransactionID)
	assert.Equal(t, 261, p.GatewayFeeCents)
	assert.Equal(t, 0, p.ProcessingFeeCents)
	assert.Equal(t, 261, p.FeeTotalCents)
	assert.Equal(t, "visa", *p.CardBrand)
	assert.Equal(t, "4242", *p.CardLast4)
	assert.NotNil(t, p.CompletedAt)
	assert.Equal(t, SourceGateway, entry.Source)
}

func TestMarkCompletedIdempotent(t *testing.T) {
	p := newCompletedPayment(t, 9000)

	// same transaction id replays silently
	_, applied, err := p.MarkCompleted(GatewayResult{TransactionID: "txn_1"}, testTime)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 9000, p.AmountCents)
	assert.Equal(t, 261, p.FeeTotalCents)

	// a different transaction id is a conflict, not a replay
	_, _, err = p.MarkCompleted(GatewayResult{TransactionID: "txn_2"}, testTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkFailed(t *testing.T) {
	p, _, err := New(testOrder(9000), 9000, MethodCard, "mock", testTime)
	require.NoError(t, err)

	_, applied, err := p.MarkFailed("card_declined", "insufficient funds", testTime)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, "card_declined", *p.FailureCode)

	// duplicate failure webhook is absorbed
	_, applied, err = p.MarkFailed("card_declined", "insufficient funds", testTime)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCompletedPaymentCannotFail(t *testing.T) {
	p := newCompletedPayment(t, 9000)

	_, _, err := p.MarkFailed("late", "late failure", testTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = p.Cancel("too late", testTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	p, _, err := New(testOrder(9000), 9000, MethodCard, "mock", testTime)
	require.NoError(t, err)
	_, err = p.MarkProcessing("ch_abc", testTime)
	require.NoError(t, err)

	_, err = p.Cancel("order cancelled", testTime)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, p.Status)
}

func TestApplyRefund(t *testing.T) {
	p := newCompletedPayment(t, 9000)

	entry, receipt, err := p.ApplyRefund(4500, "re_1", testTime)
	require.NoError(t, err)
	assert.Equal(t, StatusPartialRefund, p.Status)
	assert.Equal(t, 4500, p.RefundedTotalCents)
	assert.False(t, p.FullyRefunded())
	assert.Equal(t, StatusPartialRefund, entry.Status)
	assert.Equal(t, "re_1", receipt.RefundID)
	assert.Equal(t, 4500, receipt.AmountCents)

	// exceeding the remaining balance is rejected, state untouched
	_, _, err = p.ApplyRefund(5000, "re_2", testTime)
	assert.ErrorIs(t, err, ErrRefundExceedsBalance)
	assert.Equal(t, 4500, p.RefundedTotalCents)

	_, _, err = p.ApplyRefund(4500, "re_3", testTime)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, p.Status)
	assert.True(t, p.FullyRefunded())

	_, _, err = p.ApplyRefund(1, "re_4", testTime)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestCheckRefundable(t *testing.T) {
	p, _, err := New(testOrder(9000), 9000, MethodCard, "mock", testTime)
	require.NoError(t, err)
	assert.ErrorIs(t, p.CheckRefundable(1000), ErrNotCompleted)

	c := newCompletedPayment(t, 9000)
	assert.NoError(t, c.CheckRefundable(9000))
	assert.ErrorIs(t, c.CheckRefundable(0), ErrRefundExceedsBalance)
	assert.ErrorIs(t, c.CheckRefundable(9001), ErrRefundExceedsBalance)
}

func TestStatusTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusPending, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusFailed))
	assert.True(t, CanTransition(StatusCompleted, StatusPartialRefund))
	assert.True(t, CanTransition(StatusPartialRefund, StatusRefunded))

	assert.False(t, CanTransition(StatusCompleted, StatusFailed))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusRefunded, StatusCompleted))
	assert.False(t, CanTransition(StatusFailed, StatusCompleted))

	for _, s := range []Status{StatusFailed, StatusCancelled, StatusRefunded} {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusPartialRefund} {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}
