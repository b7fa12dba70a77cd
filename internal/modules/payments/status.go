package payments

type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
	StatusRefunded      Status = "refunded"
	StatusPartialRefund Status = "partial_refund"
)

// A completed payment can only move through the refund branch; failed and
// cancelled are reachable from pending/processing only.
var validNext = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true, StatusCompleted: true,
		StatusFailed: true, StatusCancelled: true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusFailed:    true, StatusCancelled: true,
	},
	StatusCompleted: {
		StatusPartialRefund: true, StatusRefunded: true,
	},
	StatusPartialRefund: {
		StatusRefunded: true,
	},
	StatusFailed:    {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0 && s != ""
}

// Source tags every timeline entry with who drove the transition.
type Source string

const (
	SourceSystem  Source = "system"
	SourceGateway Source = "gateway"
	SourceUser    Source = "user"
)
