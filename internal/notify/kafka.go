package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaDispatcher publishes notification events to a topic through a
// buffered inbox so Dispatch never blocks the caller.
type KafkaDispatcher struct {
	w       *kafka.Writer
	logger  *slog.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaDispatcher(brokers []string, topic string, buf int, logger *slog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		logger:  logger,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (d *KafkaDispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.closeCh)
		for {
			select {
			case <-ctx.Done():
				// The inbox stays open so in-flight Dispatch calls cannot hit
				// a closed channel; flush what is already buffered and stop.
				for {
					select {
					case m := <-d.inbox:
						_ = d.w.WriteMessages(context.Background(), m)
					default:
						_ = d.w.Close()
						return
					}
				}
			case m := <-d.inbox:
				if err := d.w.WriteMessages(context.Background(), m); err != nil {
					d.logger.Error("notify publish failed", "err", err)
				}
			}
		}
	}()
}

func (d *KafkaDispatcher) Dispatch(_ context.Context, ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("notify marshal failed", "err", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderNumber),
		Value: value,
		Time:  time.Now(),
	}
	select {
	case <-d.closeCh:
		d.logger.Warn("notify dispatcher stopped, event dropped", "order_number", ev.OrderNumber, "kind", ev.Kind)
	case d.inbox <- msg:
	default:
		// inbox full: drop rather than block the commit path
		d.logger.Warn("notify inbox full, event dropped", "order_number", ev.OrderNumber, "kind", ev.Kind)
	}
}

// WaitClosed blocks until the flush goroutine exits.
func (d *KafkaDispatcher) WaitClosed() { <-d.closeCh }
