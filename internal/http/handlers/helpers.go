package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sbag9697/marketgrow-sub001/internal/http/middleware"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/catalog"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/shared/apperr"
)

// fail maps module sentinel errors onto the apperr taxonomy at the transport
// edge, so handlers stay thin and services stay transport-free.
func fail(c *gin.Context, err error) {
	middleware.Fail(c, toAppError(err))
}

func toAppError(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, orders.ErrQuantityOutOfRange),
		errors.Is(err, orders.ErrInvalidTarget),
		errors.Is(err, payments.ErrUnknownMethod):
		return apperr.InvalidErr(err.Error(), nil)

	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrNotPaid),
		errors.Is(err, orders.ErrRefundAlreadyPending),
		errors.Is(err, orders.ErrNoRefundRequest),
		errors.Is(err, orders.ErrRefundNotWithdrawable),
		errors.Is(err, payments.ErrInvalidTransition),
		errors.Is(err, payments.ErrAmountMismatch),
		errors.Is(err, payments.ErrDuplicatePayment),
		errors.Is(err, payments.ErrRefundExceedsBalance),
		errors.Is(err, payments.ErrNotCompleted):
		return apperr.ConflictErr(err.Error())

	case errors.Is(err, lifecycle.ErrBusy):
		return apperr.BusyErr("Order is busy, please retry.")

	case errors.Is(err, lifecycle.ErrGateway):
		return apperr.GatewayErr("Payment gateway failed, please retry.", err)

	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrServiceUnavailable),
		errors.Is(err, lifecycle.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFoundErr("Not found.")

	default:
		return apperr.Wrap(err)
	}
}
