package producer

import (
	"context"
	"time"

	"performa/internal/messaging/kafka"

	"go.uber.org/zap"
)

const batchSize = 50

// ProcessOutboxEvents relays pending outbox rows to Kafka every pollInterval
// until ctx is cancelled. A tick keeps draining while batches come back full.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.relay")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox relay started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			for ctx.Err() == nil {
				res, err := relayBatch(ctx, repo, writer, log)
				if err != nil {
					log.Error("relay outbox batch failed", zap.Error(err))
					break
				}
				if res.fetched > 0 {
					log.Info("outbox batch relayed",
						zap.Int("sent", res.sent),
						zap.Int("failed", res.failed),
					)
				}
				if res.fetched < batchSize {
					break
				}
			}
		}
	}
}

type batchResult struct {
	fetched int
	sent    int
	failed  int
}

func relayBatch(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	log *zap.Logger,
) (batchResult, error) {
	events, err := repo.ListPending(ctx, batchSize)
	if err != nil {
		return batchResult{}, err
	}

	res := batchResult{fetched: len(events)}
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		fields := []zap.Field{
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("company_id", event.CompanyID),
			zap.Int("retry_count", event.RetryCount),
		}

		if err := publishEvent(ctx, writer, event); err != nil {
			res.failed++
			log.Warn("publish outbox event failed", append(fields, zap.Error(err))...)
			if err := repo.MarkFailed(ctx, event.ID, err.Error()); err != nil {
				log.Error("record outbox failure failed", append(fields, zap.Error(err))...)
			}
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			// Left pending, so the next batch publishes it again.
			log.Error("mark outbox sent failed", append(fields, zap.Error(err))...)
			continue
		}
		res.sent++
		log.Debug("outbox event sent", fields...)
	}
	return res, nil
}
