package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

// Shutdown races with producers all the time in practice (gin handlers still
// finishing while the process drains); Dispatch must stay safe throughout.
func TestKafkaDispatcherDispatchDuringShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewKafkaDispatcher([]string{"127.0.0.1:1"}, "order-notifications", 8, logger)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			d.Dispatch(context.Background(), Event{
				OrderNumber: "MG-20260830-ABCDEF",
				Kind:        KindPaymentCompleted,
			})
		}
	}()

	cancel()
	d.WaitClosed()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch goroutine did not finish")
	}

	// late events are dropped, never a panic on a closed channel
	d.Dispatch(context.Background(), Event{OrderNumber: "MG-20260830-ABCDEF", Kind: KindOrderCompleted})
}
