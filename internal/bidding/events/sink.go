package events

import (
	"context"

	"github.com/google/uuid"

	"gemnet/pkg/kafka"
	"gemnet/pkg/logger"
	"gemnet/pkg/model"
)

// Sink delivers emitted events somewhere. Delivery is strictly best effort:
// a failing sink never rolls back the bid that produced the events.
type Sink interface {
	Publish(ctx context.Context, evts []model.BidEvent) error
}

const schemaVersion = "1"

// KafkaSink publishes bid events to the bid-events topic, keyed by listing
// so per-auction ordering survives partitioning.
type KafkaSink struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaSink(producer *kafka.Producer, source string, log *logger.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (s *KafkaSink) Publish(ctx context.Context, evts []model.BidEvent) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg := kafka.NewMessage().
			WithKey(evt.ListingID).
			WithValue(evt).
			WithEventID(uuid.New().String()).
			WithEventType(string(evt.Type)).
			WithSource(s.source).
			WithSchemaVersion(schemaVersion).
			Build()
		messages = append(messages, msg)
	}

	if err := s.producer.PublishBatch(ctx, messages); err != nil {
		s.log.Error("Failed to publish bid events",
			"listing_id", evts[0].ListingID,
			"count", len(evts),
			"error", err,
		)
		return err
	}

	return nil
}

// NopSink drops events. Used when the broker is not configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, []model.BidEvent) error { return nil }
