package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/notify"
)

var ErrPaymentNotFound = errors.New("no payment matches the webhook event")

// Ingestor turns inbound gateway callbacks into coordinator mutations.
// Delivery is at-least-once and unordered; the (provider, idempotency_key)
// ledger makes replays safe and unknown event types are acknowledged without
// being applied so gateways do not retry them forever.
type Ingestor struct {
	co     *Coordinator
	logger *slog.Logger
}

func NewIngestor(co *Coordinator) *Ingestor {
	return &Ingestor{co: co, logger: co.logger}
}

func (g *Ingestor) SetLogger(logger *slog.Logger) { g.logger = logger }

func (g *Ingestor) Ingest(ctx context.Context, providerName string, ev payments.GatewayEvent, rawBody []byte) error {
	if ev.IdempotencyKey == "" || ev.EventType == "" {
		return errors.New("webhook event missing idempotency key or type")
	}

	// Resolve the target payment before taking the lock; this is read-only.
	pay, err := g.resolvePayment(ctx, providerName, ev)
	if err != nil {
		return err
	}

	var (
		notifyKind   string
		orderForSend orders.Order
	)

	err = g.co.locked(ctx, pay.OrderNumber, func() error {
		return withTxRetry(ctx, g.co.db, txAttempts, func(tx *gorm.DB) error {
			notifyKind = ""

			ord, err := lockOrder(ctx, tx, pay.OrderNumber)
			if err != nil {
				return err
			}
			fresh, err := lockPayment(ctx, tx, pay.ID)
			if err != nil {
				return err
			}
			now := g.co.now()

			// dedupe ledger
			row, replay, err := g.ledgerRow(ctx, tx, providerName, ev, fresh.ID, rawBody, now)
			if err != nil || replay {
				return err
			}

			applied, kind, applyErr := g.apply(ctx, tx, &ord, &fresh, ev, now)
			if applyErr != nil {
				if errors.Is(applyErr, errUnrecognizedEvent) {
					// keep the row for audit, acknowledge, never apply
					msg := "unrecognized event type"
					return tx.WithContext(ctx).Model(&payments.WebhookEvent{}).
						Where("id = ?", row.ID).
						Updates(map[string]any{"process_error": msg}).Error
				}
				// rollback; the gateway's retry redelivers and the ledger
				// makes the retry safe
				return applyErr
			}

			if applied {
				notifyKind = kind
				orderForSend = ord
			}

			processed := now
			return tx.WithContext(ctx).Model(&payments.WebhookEvent{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{"processed": true, "processed_at": &processed, "process_error": nil}).Error
		})
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "webhook apply failed",
			"provider", providerName, "idempotency_key", ev.IdempotencyKey, "type", ev.EventType, "err", err)
		return err
	}

	if notifyKind != "" {
		g.co.dispatch(ctx, orderForSend, pay.PaymentID, notifyKind)
	}

	g.logger.InfoContext(ctx, "webhook event processed",
		"provider", providerName, "idempotency_key", ev.IdempotencyKey, "type", ev.EventType)
	return nil
}

var errUnrecognizedEvent = errors.New("unrecognized event type")

func (g *Ingestor) apply(ctx context.Context, tx *gorm.DB, ord *orders.Order, pay *payments.Payment, ev payments.GatewayEvent, now time.Time) (applied bool, notifyKind string, err error) {
	switch ev.EventType {
	case payments.EventPaymentCompleted:
		entry, app, err := pay.MarkCompleted(payments.GatewayResult{
			TransactionID:  ev.TransactionID,
			CardBrand:      ev.CardBrand,
			CardLast4:      ev.CardLast4,
			BankName:       ev.BankName,
			VirtualAccount: ev.VirtualAccount,
		}, now)
		if err != nil {
			return false, "", err
		}
		if !app {
			return false, "", nil
		}
		if err := savePayment(ctx, tx, pay, entry); err != nil {
			return false, "", err
		}
		if err := g.co.markOrderPaid(ctx, tx, ord, now); err != nil {
			return false, "", err
		}
		return true, notify.KindPaymentCompleted, nil

	case payments.EventPaymentFailed:
		entry, app, err := pay.MarkFailed(ev.FailureCode, ev.FailureMessage, now)
		if err != nil {
			return false, "", err
		}
		if !app {
			return false, "", nil
		}
		if err := savePayment(ctx, tx, pay, entry); err != nil {
			return false, "", err
		}
		if err := setOrderPaymentStatus(ctx, tx, ord, orders.PayFailed, now); err != nil {
			return false, "", err
		}
		return true, notify.KindPaymentFailed, nil

	case payments.EventPaymentCancelled:
		if pay.Status == payments.StatusCancelled {
			return false, "", nil
		}
		entry, err := pay.Cancel(noteOrDefault(ev.FailureMessage, "cancelled at gateway"), now)
		if err != nil {
			return false, "", err
		}
		return false, "", savePayment(ctx, tx, pay, entry)

	case payments.EventRefundCompleted:
		if ev.RefundID == "" {
			return false, "", errors.New("refund event missing refund id")
		}
		app, err := g.co.applyRefundInTx(ctx, tx, ord, pay, ev.RefundID, ev.AmountCents, "gateway")
		if err != nil {
			return false, "", err
		}
		if !app {
			return false, "", nil
		}
		return true, notify.KindRefundProcessed, nil

	case payments.EventRefundFailed:
		ev2, err := ord.ReopenRefund("gateway refund failed: "+ev.FailureMessage, now)
		if err != nil {
			if errors.Is(err, orders.ErrNoRefundRequest) {
				return false, "", nil // nothing in flight, just record the event
			}
			return false, "", err
		}
		if err := saveOrder(ctx, tx, ord); err != nil {
			return false, "", err
		}
		return false, "", tx.WithContext(ctx).Create(&ev2).Error

	default:
		return false, "", errUnrecognizedEvent
	}
}

// ledgerRow returns the dedupe row for this delivery. replay=true means the
// event was fully processed before and must not be reapplied.
func (g *Ingestor) ledgerRow(ctx context.Context, tx *gorm.DB, provider string, ev payments.GatewayEvent, paymentID string, rawBody []byte, now time.Time) (payments.WebhookEvent, bool, error) {
	var existing payments.WebhookEvent
	e := tx.WithContext(ctx).First(&existing, "provider = ? AND idempotency_key = ?", provider, ev.IdempotencyKey).Error
	if e == nil {
		if existing.Processed {
			g.logger.InfoContext(ctx, "webhook event deduplicated",
				"provider", provider, "idempotency_key", ev.IdempotencyKey, "type", ev.EventType)
			return existing, true, nil
		}
		return existing, false, nil // recorded but unapplied: retry the apply
	}
	if !errors.Is(e, gorm.ErrRecordNotFound) {
		return payments.WebhookEvent{}, false, e
	}

	payload := rawBody
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := payments.WebhookEvent{
		ID:             uuid.NewString(),
		PaymentID:      paymentID,
		Provider:       provider,
		IdempotencyKey: ev.IdempotencyKey,
		EventType:      ev.EventType,
		PayloadJSON:    datatypes.JSON(payload),
		Processed:      false,
		ReceivedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		if isDup(err) {
			// concurrent delivery won the insert; reload and decide again
			if err := tx.WithContext(ctx).First(&existing, "provider = ? AND idempotency_key = ?", provider, ev.IdempotencyKey).Error; err != nil {
				return payments.WebhookEvent{}, false, err
			}
			return existing, existing.Processed, nil
		}
		return payments.WebhookEvent{}, false, err
	}
	return row, false, nil
}

func (g *Ingestor) resolvePayment(ctx context.Context, provider string, ev payments.GatewayEvent) (payments.Payment, error) {
	var p payments.Payment

	if ref := strings.TrimSpace(ev.TransactionID); ref != "" {
		e := g.co.db.WithContext(ctx).
			First(&p, "provider = ? AND (gateway_ref = ? OR transaction_id = ?)", provider, ref, ref).Error
		if e == nil {
			return p, nil
		}
		if !errors.Is(e, gorm.ErrRecordNotFound) {
			return payments.Payment{}, e
		}
	}

	// refund events may only carry the gateway refund id
	if ref := strings.TrimSpace(ev.RefundID); ref != "" {
		var ord orders.Order
		e := g.co.db.WithContext(ctx).First(&ord, "refund_ref = ?", ref).Error
		if e == nil {
			e = g.co.db.WithContext(ctx).
				Order("updated_at DESC").
				First(&p, "order_id = ? AND status IN ?", ord.ID,
					[]payments.Status{payments.StatusCompleted, payments.StatusPartialRefund, payments.StatusRefunded}).Error
			if e == nil {
				return p, nil
			}
			if !errors.Is(e, gorm.ErrRecordNotFound) {
				return payments.Payment{}, e
			}
		} else if !errors.Is(e, gorm.ErrRecordNotFound) {
			return payments.Payment{}, e
		}
	}

	return payments.Payment{}, ErrPaymentNotFound
}
