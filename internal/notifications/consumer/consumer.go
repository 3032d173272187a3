package consumer

import (
	"context"
	"fmt"

	"gemnet/internal/notifications/service"
	"gemnet/pkg/kafka"
	"gemnet/pkg/logger"
	"gemnet/pkg/model"
)

// Handler returns the message handler wired into the bid events consumer.
// A decode failure is permanent and goes to the DLQ; a storage failure is
// returned as-is so the retry classification can decide.
func Handler(svc service.NotificationService, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.BidEvent
		if err := msg.DecodeValue(&event); err != nil {
			log.Error("Failed to decode bid event",
				"key", msg.Key, "event_id", msg.Headers["event-id"], "error", err)
			return fmt.Errorf("%w: %v", kafka.ErrInvalidMessage, err)
		}

		if err := svc.Record(ctx, &event); err != nil {
			return fmt.Errorf("failed to record notification for event %s: %w", msg.Headers["event-id"], err)
		}

		return nil
	}
}
