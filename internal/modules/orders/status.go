package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPartial    Status = "partial"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// Side branches (partial/cancelled/refunded/failed) are reachable from every
// non-terminal state; completed, cancelled, refunded and failed are terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true, StatusProcessing: true,
		StatusPartial: true, StatusCancelled: true, StatusRefunded: true, StatusFailed: true,
	},
	StatusConfirmed: {
		StatusProcessing: true, StatusInProgress: true,
		StatusPartial: true, StatusCancelled: true, StatusRefunded: true, StatusFailed: true,
	},
	StatusProcessing: {
		StatusInProgress: true, StatusCompleted: true,
		StatusPartial: true, StatusCancelled: true, StatusRefunded: true, StatusFailed: true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusPartial:   true, StatusCancelled: true, StatusRefunded: true, StatusFailed: true,
	},
	StatusPartial: {
		StatusInProgress: true, StatusCompleted: true,
		StatusCancelled: true, StatusRefunded: true, StatusFailed: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRefunded:  {},
	StatusFailed:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0 && s != ""
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

type PaymentStatus string

const (
	PayPending       PaymentStatus = "pending"
	PayPaid          PaymentStatus = "paid"
	PayFailed        PaymentStatus = "failed"
	PayRefunded      PaymentStatus = "refunded"
	PayPartialRefund PaymentStatus = "partial_refund"
)

// RefundState tracks the single active refund request on an order.
type RefundState string

const (
	RefundNone       RefundState = "none"
	RefundRequested  RefundState = "requested"
	RefundApproved   RefundState = "approved"
	RefundProcessing RefundState = "processing" // handed to the gateway, awaiting callback
	RefundProcessed  RefundState = "processed"
	RefundRejected   RefundState = "rejected"
	RefundWithdrawn  RefundState = "withdrawn"
)

// Active means a new refund request would conflict with this one.
func (r RefundState) Active() bool {
	return r == RefundRequested || r == RefundApproved || r == RefundProcessing
}
