package orders

import "errors"

var (
	ErrQuantityOutOfRange    = errors.New("quantity out of allowed range")
	ErrInvalidTarget         = errors.New("target url is not a valid absolute url")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrNotPaid               = errors.New("order has no completed payment")
	ErrRefundAlreadyPending  = errors.New("a refund request is already pending")
	ErrNoRefundRequest       = errors.New("no refund request to act on")
	ErrRefundNotWithdrawable = errors.New("refund request can no longer be withdrawn")
)
