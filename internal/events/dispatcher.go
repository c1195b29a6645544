package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cardcycle/cardcycle/internal/metrics"
)

// PublishTimeout is the max time to wait for a single publish.
const PublishTimeout = 2 * time.Second

// Dispatcher publishes events in the background. Failures are logged and
// counted but never reach the caller.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   metrics.Recorder
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher around publisher.
func NewDispatcher(publisher Publisher, logger *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logger.With("component", "events.dispatcher"),
		metrics:   recorder,
		timeout:   PublishTimeout,
	}
}

// Emit publishes event without blocking. Events emitted after Close are dropped.
func (d *Dispatcher) Emit(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.IncEventPublished(metrics.StatusDropped)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Warn("failed to publish event",
				"event_type", event.Type,
				"credit_expense_id", event.CreditExpenseID,
				"error", err,
			)
			d.metrics.IncEventPublished(metrics.StatusDropped)
			return
		}

		d.logger.Debug("event published",
			"event_type", event.Type,
			"credit_expense_id", event.CreditExpenseID,
		)
		d.metrics.IncEventPublished(metrics.StatusSuccess)
	}()
}

// Close stops accepting events, waits for in-flight publishes and closes the publisher.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	return d.publisher.Close()
}
