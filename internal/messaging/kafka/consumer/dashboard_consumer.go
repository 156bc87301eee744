package consumer

import (
	"context"
	"encoding/json"

	"performa/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// CacheInvalidator drops cached dashboard summaries of one company.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, companyID string) error
}

// PerformanceLifecycleTopics are the topics whose events change what a
// dashboard shows.
var PerformanceLifecycleTopics = []string{
	events.CycleLifecycleTopic,
	events.EvaluationLifecycleTopic,
}

func ConsumePerformanceLifecycle(
	ctx context.Context,
	reader MessageReader,
	dashboards CacheInvalidator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.performance_lifecycle")
	log.Info("performance lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("performance lifecycle consumer stopped")
				return
			}
			log.Error("fetch performance lifecycle message failed", zap.Error(err))
			continue
		}

		if !handleMessage(ctx, msg, dashboards, log) {
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit performance lifecycle message failed", zap.Error(err))
		}
	}
}

// handleMessage reports whether the message is done with and may be
// committed. Undecodable messages are committed so they do not block the
// partition.
func handleMessage(ctx context.Context, msg kafkago.Message, dashboards CacheInvalidator, log *zap.Logger) bool {
	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil || env.CompanyID == "" {
		log.Error("decode performance lifecycle event failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return true
	}

	switch env.EventType {
	case events.EventCycleStatusChanged, events.EventEvaluationSaved:
	default:
		log.Debug("ignoring performance lifecycle event", zap.String("event_type", env.EventType))
		return true
	}

	if err := dashboards.Invalidate(ctx, env.CompanyID); err != nil {
		log.Error("invalidate dashboard cache failed",
			zap.String("company_id", env.CompanyID),
			zap.String("event_type", env.EventType),
			zap.Error(err),
		)
		return false
	}

	log.Info("dashboard cache invalidated",
		zap.String("company_id", env.CompanyID),
		zap.String("event_type", env.EventType),
	)
	return true
}
