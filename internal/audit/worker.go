package audit

import (
	"context"
	"log/slog"
	"time"
)

// Worker consumes audit events from a bounded channel and fans them out to
// its sinks. Emission never blocks request handling: when the inbox is full
// the event is dropped and counted.
type Worker struct {
	inbox  chan Event
	sinks  []Sink
	logger *slog.Logger
	clock  func() time.Time
}

// NewWorker builds a worker with the given inbox capacity.
func NewWorker(capacity int, logger *slog.Logger, sinks ...Sink) *Worker {
	if capacity <= 0 {
		capacity = 256
	}
	return &Worker{
		inbox:  make(chan Event, capacity),
		sinks:  sinks,
		logger: logger,
		clock:  time.Now,
	}
}

// Emit queues an event for background delivery. Safe for concurrent use.
func (w *Worker) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = w.clock()
	}
	select {
	case w.inbox <- event:
		eventsTotal.WithLabelValues(string(event.Action)).Inc()
	default:
		eventsDropped.Inc()
		w.logger.Warn("audit inbox full, dropping event",
			"action", event.Action,
		)
	}
}

// Run drains the inbox until ctx is cancelled, then flushes what is already
// queued before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.dispatch(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Write(ctx, event); err != nil {
			w.logger.Error("audit sink write failed",
				"error", err,
				"action", event.Action,
			)
		}
	}
}
