package producer

import (
	"context"
	"performa/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafkago.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// publishEvent keys messages by aggregate id so every event of one cycle or
// evaluation lands on the same partition in order.
func publishEvent(ctx context.Context, writer MessageWriter, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "company_id", Value: []byte(event.CompanyID)},
			{Key: "request_id", Value: []byte(event.RequestID)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
