package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/catalog"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/notify"
)

const txAttempts = 3

// Coordinator is the single write path for the order/payment pair. Every
// command runs under the per-order-number lock, validates against current
// state, mutates both entities in one transaction and emits outbound events
// only after the commit.
type Coordinator struct {
	db       *gorm.DB
	locks    Locker
	lockWait time.Duration
	catalog  catalog.Catalog
	provider payments.Provider
	notify   notify.Dispatcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewCoordinator(db *gorm.DB, cat catalog.Catalog, provider payments.Provider, dispatcher notify.Dispatcher) *Coordinator {
	return &Coordinator{
		db:       db,
		locks:    NewKeyedMutex(),
		lockWait: 3 * time.Second,
		catalog:  cat,
		provider: provider,
		notify:   dispatcher,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (c *Coordinator) SetLogger(logger *slog.Logger) { c.logger = logger }
func (c *Coordinator) SetLocker(l Locker)            { c.locks = l }
func (c *Coordinator) SetLockTimeout(d time.Duration) {
	if d > 0 {
		c.lockWait = d
	}
}

// SetClock is for tests.
func (c *Coordinator) SetClock(now func() time.Time) { c.now = now }

// Result is what every command hands back: the committed order and, when one
// exists, its payment.
type Result struct {
	Order   orders.Order
	Payment *payments.Payment
}

type CreateOrderInput struct {
	ServiceID string
	Quantity  int
	TargetURL string
	Customer  orders.Customer
}

func (c *Coordinator) CreateOrder(ctx context.Context, in CreateOrderInput) (Result, error) {
	snap, err := c.catalog.Snapshot(ctx, in.ServiceID)
	if err != nil {
		return Result{}, err
	}

	now := c.now()
	ord, ev, err := orders.New(snap, in.Quantity, in.TargetURL, in.Customer, now)
	if err != nil {
		return Result{}, err
	}

	err = withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(&ord).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&ev).Error
	})
	if err != nil {
		return Result{}, err
	}

	// post-commit: catalog counter is best effort
	if err := c.catalog.IncrementOrderCount(ctx, snap.ServiceID); err != nil {
		c.logger.WarnContext(ctx, "order count increment failed",
			"order_number", ord.OrderNumber, "service_id", snap.ServiceID, "err", err)
	}

	return Result{Order: ord}, nil
}

type CreatePaymentInput struct {
	OrderNumber string
	AmountCents int
	Method      payments.Method
	ReturnURL   string
	CancelURL   string
}

// CreatePayment runs in three phases so there is no gateway I/O under the
// lock: record the pending payment, call the gateway unlocked, then finalize.
func (c *Coordinator) CreatePayment(ctx context.Context, in CreatePaymentInput) (Result, error) {
	var (
		ord orders.Order
		pay payments.Payment
	)

	// Phase 1: validate + create pending payment
	err := c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, in.OrderNumber)
			if err != nil {
				return err
			}
			if ord.Status.Terminal() {
				return orders.ErrInvalidTransition
			}

			var completed int64
			if err := tx.WithContext(ctx).Model(&payments.Payment{}).
				Where("order_id = ? AND status = ?", ord.ID, payments.StatusCompleted).
				Count(&completed).Error; err != nil {
				return err
			}
			if completed > 0 || ord.PaymentStatus == orders.PayPaid {
				return payments.ErrDuplicatePayment
			}
			if !in.Method.Valid() {
				return payments.ErrUnknownMethod
			}
			if in.AmountCents <= 0 || in.AmountCents != ord.FinalCents {
				return payments.ErrAmountMismatch
			}

			// a still-open attempt is reused rather than duplicated
			var open payments.Payment
			e := tx.WithContext(ctx).
				Where("order_id = ? AND status IN ?", ord.ID, []payments.Status{payments.StatusPending, payments.StatusProcessing}).
				Order("created_at DESC").
				First(&open).Error
			if e == nil {
				pay = open
				return nil
			}
			if !errors.Is(e, gorm.ErrRecordNotFound) {
				return e
			}

			now := c.now()
			var entry payments.TimelineEntry
			pay, entry, err = payments.New(ord, in.AmountCents, in.Method, c.provider.Name(), now)
			if err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Create(&pay).Error; err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&entry).Error
		})
	})
	if err != nil {
		return Result{}, err
	}

	if pay.Status != payments.StatusPending {
		return Result{Order: ord, Payment: &pay}, nil
	}

	// Phase 2: gateway charge, outside the lock
	resp, chargeErr := c.provider.CreateCharge(ctx, payments.ChargeRequest{
		OrderNumber:    ord.OrderNumber,
		PaymentID:      pay.PaymentID,
		AmountCents:    pay.AmountCents,
		Method:         pay.Method,
		CustomerEmail:  ord.CustomerEmail,
		IdempotencyKey: pay.PaymentID,
		ReturnURL:      in.ReturnURL,
		CancelURL:      in.CancelURL,
	})

	// Phase 3: finalize
	err = c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			fresh, err := lockPayment(ctx, tx, pay.ID)
			if err != nil {
				return err
			}
			pay = fresh
			now := c.now()

			if chargeErr != nil {
				// a timed-out charge is ambiguous: leave it pending for the
				// webhook or the reconciliation job, never guess failed
				if isAmbiguous(chargeErr) {
					return apperrGateway(chargeErr)
				}
				entry, applied, ferr := pay.MarkFailed("gateway_error", chargeErr.Error(), now)
				if ferr != nil {
					return ferr
				}
				if !applied {
					return nil
				}
				if err := savePayment(ctx, tx, &pay, entry); err != nil {
					return err
				}
				return setOrderPaymentStatus(ctx, tx, &ord, orders.PayFailed, now)
			}

			if pay.Status == payments.StatusPending {
				entry, perr := pay.MarkProcessing(resp.GatewayRef, now)
				if perr != nil {
					return perr
				}
				return savePayment(ctx, tx, &pay, entry)
			}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}
	if chargeErr != nil && !isAmbiguous(chargeErr) {
		c.dispatch(ctx, ord, pay.PaymentID, notify.KindPaymentFailed)
	}

	return Result{Order: ord, Payment: &pay}, nil
}

// MarkPaymentCompleted finalizes the payment and flips the order to paid.
// Idempotent on the transaction id.
func (c *Coordinator) MarkPaymentCompleted(ctx context.Context, orderNumber string, res payments.GatewayResult) (Result, error) {
	var (
		ord     orders.Order
		pay     payments.Payment
		applied bool
	)

	err := c.locked(ctx, orderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, orderNumber)
			if err != nil {
				return err
			}
			pay, err = lockLatestPayment(ctx, tx, ord.ID)
			if err != nil {
				return err
			}

			now := c.now()
			entry, app, err := pay.MarkCompleted(res, now)
			if err != nil {
				return err
			}
			applied = app
			if !applied {
				return nil // idempotent replay
			}

			if err := savePayment(ctx, tx, &pay, entry); err != nil {
				return err
			}
			return c.markOrderPaid(ctx, tx, &ord, now)
		})
	})
	if err != nil {
		return Result{}, err
	}

	if applied {
		c.dispatch(ctx, ord, pay.PaymentID, notify.KindPaymentCompleted)
	}
	return Result{Order: ord, Payment: &pay}, nil
}

// UpdateOrderProgress feeds a fulfillment poll result in. Decreases are
// silent no-ops; hitting the target completes the order in the same commit.
func (c *Coordinator) UpdateOrderProgress(ctx context.Context, orderNumber string, newCurrent int, note string) (Result, error) {
	var (
		ord       orders.Order
		completed bool
	)

	err := c.locked(ctx, orderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, orderNumber)
			if err != nil {
				return err
			}

			ev, changed, err := ord.AdvanceProgress(newCurrent, note, c.now())
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			completed = ord.Status == orders.StatusCompleted

			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&ev).Error
		})
	})
	if err != nil {
		return Result{}, err
	}

	if completed {
		c.dispatch(ctx, ord, "", notify.KindOrderCompleted)
	}
	return Result{Order: ord}, nil
}

// UpdateOrderStatus applies a table-validated transition. The refunded state
// is owned by the refund flow and cannot be set directly.
func (c *Coordinator) UpdateOrderStatus(ctx context.Context, orderNumber string, to orders.Status, note, actor string) (Result, error) {
	if to == orders.StatusRefunded {
		return Result{}, orders.ErrInvalidTransition
	}

	var ord orders.Order
	err := c.locked(ctx, orderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, orderNumber)
			if err != nil {
				return err
			}

			now := c.now()
			ev, err := ord.Transition(to, note, actor, now)
			if err != nil {
				return err
			}
			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
				return err
			}

			// cancelling an unpaid order takes its open payment attempt down too
			if to == orders.StatusCancelled {
				pay, perr := lockLatestPayment(ctx, tx, ord.ID)
				if perr != nil {
					if errors.Is(perr, gorm.ErrRecordNotFound) {
						return nil
					}
					return perr
				}
				if pay.Status == payments.StatusPending || pay.Status == payments.StatusProcessing {
					entry, cerr := pay.Cancel(noteOrDefault(note, "order cancelled"), now)
					if cerr != nil {
						return cerr
					}
					return savePayment(ctx, tx, &pay, entry)
				}
			}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: ord}, nil
}

type RequestRefundInput struct {
	OrderNumber string
	Reason      string
	AmountCents int // 0 => progress-prorated default
}

func (c *Coordinator) RequestRefund(ctx context.Context, in RequestRefundInput) (Result, error) {
	var (
		ord orders.Order
		pay payments.Payment
	)

	err := c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, in.OrderNumber)
			if err != nil {
				return err
			}
			pay, err = lockCompletedPayment(ctx, tx, ord.ID)
			if err != nil {
				return err
			}

			amount := in.AmountCents
			if amount <= 0 {
				amount = payments.RefundableCents(pay.AmountCents, pay.RefundedTotalCents, ord.ProgressCurrent, ord.ProgressTarget)
			}
			if err := pay.CheckRefundable(amount); err != nil {
				return err
			}

			ev, err := ord.RequestRefund(in.Reason, amount, c.now())
			if err != nil {
				return err
			}
			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&ev).Error
		})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: ord, Payment: &pay}, nil
}

// WithdrawRefund cancels a refund request that is still in requested.
func (c *Coordinator) WithdrawRefund(ctx context.Context, orderNumber string) (Result, error) {
	var ord orders.Order
	err := c.locked(ctx, orderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, orderNumber)
			if err != nil {
				return err
			}
			ev, err := ord.WithdrawRefund(c.now())
			if err != nil {
				return err
			}
			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&ev).Error
		})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: ord}, nil
}

type RefundDecision string

const (
	DecisionApproved  RefundDecision = "approved"
	DecisionRejected  RefundDecision = "rejected"
	DecisionProcessed RefundDecision = "processed"
)

type ProcessRefundInput struct {
	OrderNumber string
	Decision    RefundDecision
	Actor       string

	// RefundID is the idempotency key for the money movement. When empty on
	// a processed decision, the gateway is asked to refund and assigns one.
	RefundID string
}

// ProcessRefund resolves a refund request. The processed path moves money:
// Payment.ApplyRefund commits first (at most once per refund id), and only
// then does the order record the outcome, so a retry after a partial failure
// is safe.
func (c *Coordinator) ProcessRefund(ctx context.Context, in ProcessRefundInput) (Result, error) {
	switch in.Decision {
	case DecisionApproved, DecisionRejected:
		return c.decideRefund(ctx, in)
	case DecisionProcessed:
		return c.executeRefund(ctx, in)
	default:
		return Result{}, orders.ErrNoRefundRequest
	}
}

func (c *Coordinator) decideRefund(ctx context.Context, in ProcessRefundInput) (Result, error) {
	var ord orders.Order
	err := c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, in.OrderNumber)
			if err != nil {
				return err
			}

			now := c.now()
			var ev orders.OrderEvent
			if in.Decision == DecisionApproved {
				ev, err = ord.ApproveRefund(in.Actor, now)
			} else {
				ev, err = ord.RejectRefund(in.Actor, now)
			}
			if err != nil {
				return err
			}
			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&ev).Error
		})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: ord}, nil
}

func (c *Coordinator) executeRefund(ctx context.Context, in ProcessRefundInput) (Result, error) {
	// A caller-supplied refund id means the money movement is already
	// confirmed (reconciliation, gateway callback); apply directly.
	if in.RefundID != "" {
		return c.applyRefund(ctx, in.OrderNumber, in.RefundID, 0, in.Actor)
	}

	// Phase 1: validate and mark the request as processing
	var (
		ord orders.Order
		pay payments.Payment
	)
	err := c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, in.OrderNumber)
			if err != nil {
				return err
			}
			pay, err = lockCompletedPayment(ctx, tx, ord.ID)
			if err != nil {
				return err
			}
			if ord.RefundState != orders.RefundRequested && ord.RefundState != orders.RefundApproved {
				return orders.ErrNoRefundRequest
			}
			if err := pay.CheckRefundable(ord.RefundAmountCents); err != nil {
				return err
			}

			ev, err := ord.BeginRefundProcessing("", c.now())
			if err != nil {
				return err
			}
			if err := saveOrder(ctx, tx, &ord); err != nil {
				return err
			}
			return tx.WithContext(ctx).Create(&ev).Error
		})
	})
	if err != nil {
		return Result{}, err
	}

	// Phase 2: gateway refund, outside the lock
	gatewayRef := ""
	if pay.GatewayRef != nil {
		gatewayRef = *pay.GatewayRef
	}
	resp, refundErr := c.provider.RefundCharge(ctx, payments.RefundChargeRequest{
		OrderNumber:    ord.OrderNumber,
		PaymentID:      pay.PaymentID,
		GatewayRef:     gatewayRef,
		AmountCents:    ord.RefundAmountCents,
		IdempotencyKey: ord.OrderNumber + ":" + pay.PaymentID,
		Reason:         derefOr(ord.RefundReason, ""),
	})

	// Phase 3: record the outcome
	if refundErr != nil {
		rerr := c.locked(ctx, in.OrderNumber, func() error {
			return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
				var err error
				ord, err = lockOrder(ctx, tx, in.OrderNumber)
				if err != nil {
					return err
				}
				ev, err := ord.ReopenRefund("gateway refund failed: "+refundErr.Error(), c.now())
				if err != nil {
					return err
				}
				if err := saveOrder(ctx, tx, &ord); err != nil {
					return err
				}
				return tx.WithContext(ctx).Create(&ev).Error
			})
		})
		if rerr != nil {
			return Result{}, rerr
		}
		return Result{}, apperrGateway(refundErr)
	}

	if resp.Status == "completed" {
		return c.applyRefund(ctx, in.OrderNumber, resp.RefundID, 0, in.Actor)
	}

	// accepted: remember the gateway refund id; the REFUND_COMPLETED webhook
	// finishes the job
	err = c.locked(ctx, in.OrderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, in.OrderNumber)
			if err != nil {
				return err
			}
			if resp.RefundID != "" {
				ref := resp.RefundID
				ord.RefundRef = &ref
			}
			return saveOrder(ctx, tx, &ord)
		})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: ord, Payment: &pay}, nil
}

// applyRefund is the shared money-movement path for admin-confirmed refunds
// and gateway refund callbacks. amountCents == 0 falls back to the amount on
// the order's refund request.
func (c *Coordinator) applyRefund(ctx context.Context, orderNumber, refundID string, amountCents int, actor string) (Result, error) {
	var (
		ord     orders.Order
		pay     payments.Payment
		applied bool
	)

	err := c.locked(ctx, orderNumber, func() error {
		return withTxRetry(ctx, c.db, txAttempts, func(tx *gorm.DB) error {
			var err error
			ord, err = lockOrder(ctx, tx, orderNumber)
			if err != nil {
				return err
			}
			pay, err = lockCompletedPayment(ctx, tx, ord.ID)
			if err != nil {
				return err
			}

			applied, err = c.applyRefundInTx(ctx, tx, &ord, &pay, refundID, amountCents, actor)
			return err
		})
	})
	if err != nil {
		return Result{}, err
	}

	if applied {
		c.dispatch(ctx, ord, pay.PaymentID, notify.KindRefundProcessed)
	}
	return Result{Order: ord, Payment: &pay}, nil
}

// applyRefundInTx moves the money exactly once per refund id and records the
// outcome on the order. The caller holds the order lock and the transaction.
// Payment commits first; if the order-side write fails the whole tx rolls
// back and a retry is safe because of the receipt ledger.
func (c *Coordinator) applyRefundInTx(ctx context.Context, tx *gorm.DB, ord *orders.Order, pay *payments.Payment, refundID string, amountCents int, actor string) (bool, error) {
	now := c.now()
	applied := false

	var existing payments.RefundReceipt
	e := tx.WithContext(ctx).First(&existing, "payment_id = ? AND refund_id = ?", pay.ID, refundID).Error
	if e == nil {
		// money already moved; make sure the order side caught up
		if ord.RefundState == orders.RefundProcessed {
			return false, nil
		}
	} else {
		if !errors.Is(e, gorm.ErrRecordNotFound) {
			return false, e
		}

		// money only moves against a live request; a withdrawn or rejected
		// one is dead even when the caller brings its own refund id
		if !ord.RefundState.Active() {
			return false, orders.ErrNoRefundRequest
		}

		amount := amountCents
		if amount <= 0 {
			amount = ord.RefundAmountCents
		}

		entry, receipt, aerr := pay.ApplyRefund(amount, refundID, now)
		if aerr != nil {
			return false, aerr
		}
		if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
			if isDup(err) {
				return false, nil // lost a race on the same refund id
			}
			return false, err
		}
		if err := savePayment(ctx, tx, pay, entry); err != nil {
			return false, err
		}
		applied = true
	}

	ev, ferr := ord.FinishRefund(pay.FullyRefunded(), actor, now)
	if ferr != nil {
		return false, ferr
	}
	if err := saveOrder(ctx, tx, ord); err != nil {
		return false, err
	}
	return applied, tx.WithContext(ctx).Create(&ev).Error
}

// --- shared helpers ---

func (c *Coordinator) locked(ctx context.Context, orderNumber string, fn func() error) error {
	release, err := c.locks.Acquire(ctx, orderNumber, c.lockWait)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (c *Coordinator) markOrderPaid(ctx context.Context, tx *gorm.DB, ord *orders.Order, now time.Time) error {
	ord.PaymentStatus = orders.PayPaid
	if ord.Status == orders.StatusPending {
		ev, err := ord.Transition(orders.StatusConfirmed, "payment completed", "system", now)
		if err != nil {
			return err
		}
		if err := saveOrder(ctx, tx, ord); err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&ev).Error
	}
	ord.UpdatedAt = now
	return saveOrder(ctx, tx, ord)
}

func (c *Coordinator) dispatch(ctx context.Context, ord orders.Order, paymentID, kind string) {
	c.notify.Dispatch(ctx, notify.Event{
		OrderNumber: ord.OrderNumber,
		PaymentID:   paymentID,
		Kind:        kind,
		Recipient:   ord.CustomerEmail,
	})
}

func lockOrder(ctx context.Context, tx *gorm.DB, orderNumber string) (orders.Order, error) {
	var o orders.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "order_number = ?", orderNumber).Error
	return o, err
}

func lockPayment(ctx context.Context, tx *gorm.DB, id string) (payments.Payment, error) {
	var p payments.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	return p, err
}

func lockLatestPayment(ctx context.Context, tx *gorm.DB, orderID string) (payments.Payment, error) {
	var p payments.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("created_at DESC").
		First(&p, "order_id = ?", orderID).Error
	return p, err
}

func lockCompletedPayment(ctx context.Context, tx *gorm.DB, orderID string) (payments.Payment, error) {
	var p payments.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("updated_at DESC").
		First(&p, "order_id = ? AND status IN ?", orderID,
			[]payments.Status{payments.StatusCompleted, payments.StatusPartialRefund, payments.StatusRefunded}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, orders.ErrNotPaid
	}
	return p, err
}

func saveOrder(ctx context.Context, tx *gorm.DB, o *orders.Order) error {
	return tx.WithContext(ctx).Save(o).Error
}

func savePayment(ctx context.Context, tx *gorm.DB, p *payments.Payment, entry payments.TimelineEntry) error {
	if err := tx.WithContext(ctx).Save(p).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&entry).Error
}

func setOrderPaymentStatus(ctx context.Context, tx *gorm.DB, o *orders.Order, st orders.PaymentStatus, now time.Time) error {
	o.PaymentStatus = st
	o.UpdatedAt = now
	return saveOrder(ctx, tx, o)
}

func noteOrDefault(note, def string) string {
	if note != "" {
		return note
	}
	return def
}

func derefOr(s *string, def string) string {
	if s != nil {
		return *s
	}
	return def
}

// isAmbiguous: a timeout gives no verdict on the charge, so the payment must
// stay pending until a callback or reconciliation resolves it.
func isAmbiguous(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func apperrGateway(err error) error {
	return &gatewayError{err: err}
}

type gatewayError struct{ err error }

func (g *gatewayError) Error() string { return "gateway error: " + g.err.Error() }
func (g *gatewayError) Unwrap() error { return g.err }

// ErrGateway matches any gateway-side failure surfaced by the coordinator.
var ErrGateway = errors.New("gateway error")

func (g *gatewayError) Is(target error) bool { return target == ErrGateway }
