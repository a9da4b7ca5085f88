package subscriber_handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/IT-Nick/question-bank/internal/domain/events"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
	httpResponse "github.com/IT-Nick/question-bank/pkg/http"
)

// SubscriberHandler applies push deliveries of queued writes.
type SubscriberHandler struct {
	applier events.Applier
}

// NewSubscriberHandler creates a new SubscriberHandler. applier decides
// which event types it accepts.
func NewSubscriberHandler(applier events.Applier) *SubscriberHandler {
	return &SubscriberHandler{applier: applier}
}

func (h *SubscriberHandler) Handle(c *fiber.Ctx) error {
	delivery, err := queue.DecodePush(c.Body())
	if err != nil {
		return httpResponse.Fail(c, err, "Failed to decode push message")
	}

	event := events.Event{
		Type:    events.Type(delivery.Envelope.EventType),
		Payload: delivery.Envelope.Payload,
	}
	if err := h.applier.Apply(c.UserContext(), event); err != nil {
		return httpResponse.Fail(c, err, "Failed to process "+string(event.Type))
	}

	slog.Info("push applied", "eventType", event.Type, "messageId", delivery.ID)
	return httpResponse.Success(c, fiber.StatusOK, "Processed "+string(event.Type), nil)
}
