package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"performa/internal/config"
	"performa/internal/dashboard"
	"performa/internal/messaging/kafka/consumer"
	"performa/internal/permission"
	"performa/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const dashboardConsumerGroup = "performa-dashboard-cache"

func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, connectRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		return err
	}
	defer rdb.Close()

	dashboardService := dashboard.NewService(
		dashboard.NewRepository(gormDB),
		permission.NewService(permission.NewRepository(gormDB), logger),
		rdb,
		logger,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		GroupTopics:    consumer.PerformanceLifecycleTopics,
		GroupID:        dashboardConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.LastOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumePerformanceLifecycle(ctx, reader, dashboardService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
