package worker

import (
	"context"
	"log/slog"

	audit "agrifin/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run appends events until the inbox is closed or ctx is done. A failed
// append is logged and the event dropped; the trail never blocks scoring.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"error", err,
					"action", event.Action,
					"request_id", event.RequestID,
				)
			}
		}
	}
}
