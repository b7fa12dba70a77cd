package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/notify"
)

// processingOrder creates an order with a charge accepted by the gateway, the
// state a payment sits in when its webhooks start arriving.
func processingOrder(t *testing.T, co *Coordinator, serviceID string) (orders.Order, payments.Payment) {
	t.Helper()
	ord := createOrder(t, co, serviceID)
	res, err := co.CreatePayment(context.Background(), CreatePaymentInput{
		OrderNumber: ord.OrderNumber, AmountCents: 9000, Method: payments.MethodCard,
	})
	require.NoError(t, err)
	return ord, *res.Payment
}

func completedEvent(key string) payments.GatewayEvent {
	return payments.GatewayEvent{
		EventType:      payments.EventPaymentCompleted,
		IdempotencyKey: key,
		TransactionID:  "ch_test", // matches the charge ref the fake gateway assigns
		AmountCents:    9000,
		CardBrand:      "visa",
		CardLast4:      "4242",
	}
}

func TestIngestPaymentCompleted(t *testing.T) {
	co, db, serviceID, _, disp := newTestCoordinator(t)
	ing := NewIngestor(co)
	ord, pay := processingOrder(t, co, serviceID)

	err := ing.Ingest(context.Background(), "mock", completedEvent("evt_1"), []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)

	var storedPay payments.Payment
	require.NoError(t, db.First(&storedPay, "id = ?", pay.ID).Error)
	assert.Equal(t, payments.StatusCompleted, storedPay.Status)
	assert.Equal(t, "ch_test", *storedPay.TransactionID)
	assert.Equal(t, 261, storedPay.FeeTotalCents)
	assert.Equal(t, "visa", *storedPay.CardBrand)

	var storedOrd orders.Order
	require.NoError(t, db.First(&storedOrd, "id = ?", ord.ID).Error)
	assert.Equal(t, orders.StatusConfirmed, storedOrd.Status)
	assert.Equal(t, orders.PayPaid, storedOrd.PaymentStatus)

	var row payments.WebhookEvent
	require.NoError(t, db.First(&row, "provider = ? AND idempotency_key = ?", "mock", "evt_1").Error)
	assert.True(t, row.Processed)
	assert.NotNil(t, row.ProcessedAt)
	assert.Equal(t, pay.ID, row.PaymentID)

	assert.Equal(t, []string{notify.KindPaymentCompleted}, disp.kinds())
}

func TestIngestDuplicateDelivery(t *testing.T) {
	co, db, serviceID, _, disp := newTestCoordinator(t)
	ing := NewIngestor(co)
	_, pay := processingOrder(t, co, serviceID)

	ev := completedEvent("evt_dup")
	require.NoError(t, ing.Ingest(context.Background(), "mock", ev, []byte(`{}`)))
	require.NoError(t, ing.Ingest(context.Background(), "mock", ev, []byte(`{}`)))

	// a single ledger row, a single completed timeline entry, a single send
	var rows int64
	require.NoError(t, db.Model(&payments.WebhookEvent{}).
		Where("provider = ? AND idempotency_key = ?", "mock", "evt_dup").Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	var completed int64
	require.NoError(t, db.Model(&payments.TimelineEntry{}).
		Where("payment_id = ? AND status = ?", pay.ID, payments.StatusCompleted).Count(&completed).Error)
	assert.EqualValues(t, 1, completed)

	assert.Equal(t, []string{notify.KindPaymentCompleted}, disp.kinds())
}

func TestIngestPaymentFailed(t *testing.T) {
	co, db, serviceID, _, disp := newTestCoordinator(t)
	ing := NewIngestor(co)
	ord, pay := processingOrder(t, co, serviceID)

	err := ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventPaymentFailed,
		IdempotencyKey: "evt_fail",
		TransactionID:  "ch_test",
		FailureCode:    "card_declined",
		FailureMessage: "insufficient funds",
	}, []byte(`{}`))
	require.NoError(t, err)

	var storedPay payments.Payment
	require.NoError(t, db.First(&storedPay, "id = ?", pay.ID).Error)
	assert.Equal(t, payments.StatusFailed, storedPay.Status)
	assert.Equal(t, "card_declined", *storedPay.FailureCode)

	var storedOrd orders.Order
	require.NoError(t, db.First(&storedOrd, "id = ?", ord.ID).Error)
	assert.Equal(t, orders.PayFailed, storedOrd.PaymentStatus)

	assert.Equal(t, []string{notify.KindPaymentFailed}, disp.kinds())
}

func TestIngestPaymentCancelled(t *testing.T) {
	co, db, serviceID, _, _ := newTestCoordinator(t)
	ing := NewIngestor(co)
	_, pay := processingOrder(t, co, serviceID)

	err := ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventPaymentCancelled,
		IdempotencyKey: "evt_cancel",
		TransactionID:  "ch_test",
	}, []byte(`{}`))
	require.NoError(t, err)

	var storedPay payments.Payment
	require.NoError(t, db.First(&storedPay, "id = ?", pay.ID).Error)
	assert.Equal(t, payments.StatusCancelled, storedPay.Status)
}

func TestIngestRefundCompleted(t *testing.T) {
	co, db, serviceID, gw, disp := newTestCoordinator(t)
	gw.refundResp = payments.RefundChargeResponse{RefundID: "re_async", Status: "accepted"}
	ing := NewIngestor(co)
	ord := createPaidOrder(t, co, serviceID)

	_, err := co.RequestRefund(context.Background(), RequestRefundInput{OrderNumber: ord.OrderNumber})
	require.NoError(t, err)
	_, err = co.ProcessRefund(context.Background(), ProcessRefundInput{
		OrderNumber: ord.OrderNumber, Decision: DecisionProcessed, Actor: "admin",
	})
	require.NoError(t, err)

	// the callback carries only the gateway refund id
	err = ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventRefundCompleted,
		IdempotencyKey: "evt_refund",
		RefundID:       "re_async",
		AmountCents:    9000,
	}, []byte(`{}`))
	require.NoError(t, err)

	var storedOrd orders.Order
	require.NoError(t, db.First(&storedOrd, "id = ?", ord.ID).Error)
	assert.Equal(t, orders.StatusRefunded, storedOrd.Status)
	assert.Equal(t, orders.RefundProcessed, storedOrd.RefundState)

	var storedPay payments.Payment
	require.NoError(t, db.First(&storedPay, "order_id = ?", ord.ID).Error)
	assert.Equal(t, payments.StatusRefunded, storedPay.Status)
	assert.Equal(t, 9000, storedPay.RefundedTotalCents)

	assert.Contains(t, disp.kinds(), notify.KindRefundProcessed)

	// redelivery does not move money again
	require.NoError(t, ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventRefundCompleted,
		IdempotencyKey: "evt_refund",
		RefundID:       "re_async",
		AmountCents:    9000,
	}, []byte(`{}`)))
	require.NoError(t, db.First(&storedPay, "order_id = ?", ord.ID).Error)
	assert.Equal(t, 9000, storedPay.RefundedTotalCents)
}

func TestIngestRefundFailedReopensRequest(t *testing.T) {
	co, db, serviceID, gw, _ := newTestCoordinator(t)
	gw.refundResp = payments.RefundChargeResponse{RefundID: "re_async", Status: "accepted"}
	ing := NewIngestor(co)
	ord := createPaidOrder(t, co, serviceID)

	_, err := co.RequestRefund(context.Background(), RequestRefundInput{OrderNumber: ord.OrderNumber})
	require.NoError(t, err)
	_, err = co.ProcessRefund(context.Background(), ProcessRefundInput{
		OrderNumber: ord.OrderNumber, Decision: DecisionProcessed, Actor: "admin",
	})
	require.NoError(t, err)

	err = ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventRefundFailed,
		IdempotencyKey: "evt_rfail",
		RefundID:       "re_async",
		FailureMessage: "balance too low",
	}, []byte(`{}`))
	require.NoError(t, err)

	var storedOrd orders.Order
	require.NoError(t, db.First(&storedOrd, "id = ?", ord.ID).Error)
	assert.Equal(t, orders.RefundRequested, storedOrd.RefundState)
	assert.Nil(t, storedOrd.RefundRef)
}

func TestIngestUnknownEventTypeIsRecordedNotApplied(t *testing.T) {
	co, db, serviceID, _, disp := newTestCoordinator(t)
	ing := NewIngestor(co)
	_, pay := processingOrder(t, co, serviceID)

	err := ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      "PAYOUT_SETTLED",
		IdempotencyKey: "evt_unknown",
		TransactionID:  "ch_test",
	}, []byte(`{"type":"PAYOUT_SETTLED"}`))
	require.NoError(t, err, "unknown types are acknowledged so the gateway stops retrying")

	var row payments.WebhookEvent
	require.NoError(t, db.First(&row, "provider = ? AND idempotency_key = ?", "mock", "evt_unknown").Error)
	assert.False(t, row.Processed)
	require.NotNil(t, row.ProcessError)
	assert.Equal(t, "unrecognized event type", *row.ProcessError)

	var storedPay payments.Payment
	require.NoError(t, db.First(&storedPay, "id = ?", pay.ID).Error)
	assert.Equal(t, payments.StatusProcessing, storedPay.Status, "unknown events must not change state")
	assert.Empty(t, disp.kinds())
}

func TestIngestUnmatchedPayment(t *testing.T) {
	co, _, _, _, _ := newTestCoordinator(t)
	ing := NewIngestor(co)

	err := ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType:      payments.EventPaymentCompleted,
		IdempotencyKey: "evt_orphan",
		TransactionID:  "ch_nobody",
	}, []byte(`{}`))
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestIngestMissingKeyRejected(t *testing.T) {
	co, _, _, _, _ := newTestCoordinator(t)
	ing := NewIngestor(co)

	err := ing.Ingest(context.Background(), "mock", payments.GatewayEvent{
		EventType: payments.EventPaymentCompleted,
	}, []byte(`{}`))
	assert.Error(t, err)
}
