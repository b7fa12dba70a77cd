package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher is the fallback when no brokers are configured.
type LogDispatcher struct{ Logger *slog.Logger }

func (d *LogDispatcher) Dispatch(ctx context.Context, ev Event) {
	d.Logger.InfoContext(ctx, "notification",
		"order_number", ev.OrderNumber,
		"payment_id", ev.PaymentID,
		"kind", ev.Kind,
		"recipient", ev.Recipient,
	)
}
