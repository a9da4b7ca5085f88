package app

import (
	"context"
	"log/slog"

	"github.com/IT-Nick/question-bank/internal/domain/events"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

// newRelayHandler applies pulled deliveries. Deliveries that can never
// succeed are acknowledged and logged; the rest stay on the queue.
func newRelayHandler(dispatcher *events.Dispatcher) queue.Handler {
	return func(ctx context.Context, d queue.Delivery) error {
		event := events.Event{
			Type:    events.Type(d.Envelope.EventType),
			Payload: d.Envelope.Payload,
		}

		err := dispatcher.Dispatch(ctx, event)
		switch {
		case err == nil:
			slog.Debug("queued write applied", "eventType", event.Type, "messageId", d.ID)
			return nil
		case events.IsPermanent(err):
			slog.Warn("queued write dropped", "eventType", event.Type, "messageId", d.ID, "error", err)
			return nil
		default:
			slog.Error("queued write failed", "eventType", event.Type, "messageId", d.ID, "error", err)
			return err
		}
	}
}
