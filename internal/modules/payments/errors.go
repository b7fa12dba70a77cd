package payments

import "errors"

var (
	ErrAmountMismatch       = errors.New("payment amount does not match order total")
	ErrDuplicatePayment     = errors.New("order already has a completed payment")
	ErrInvalidTransition    = errors.New("invalid payment status transition")
	ErrRefundExceedsBalance = errors.New("refund amount exceeds remaining balance")
	ErrUnknownMethod        = errors.New("unknown payment method")
	ErrNotCompleted         = errors.New("payment is not completed")
)
