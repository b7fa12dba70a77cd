package payments

// RefundableCents computes how much of a payment is still refundable given
// delivered progress: work already delivered is non-refundable, and prior
// refunds reduce the pool. The progress-prorated value is authoritative; the
// remaining balance only caps it. Never negative, never above
// amount - refundedTotal.
func RefundableCents(amountCents, refundedTotalCents, progressCurrent, progressTarget int) int {
	remaining := amountCents - refundedTotalCents
	if remaining <= 0 {
		return 0
	}

	completed := 0
	if progressTarget > 0 {
		// round half up
		completed = (amountCents*progressCurrent + progressTarget/2) / progressTarget
	}

	refundable := amountCents - refundedTotalCents - completed
	if refundable < 0 {
		return 0
	}
	if refundable > remaining {
		return remaining
	}
	return refundable
}
