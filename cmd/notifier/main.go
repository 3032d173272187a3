package main

import (
	"context"
	"errors"

	"gemnet/internal/notifications/consumer"
	"gemnet/internal/notifications/handler"
	"gemnet/internal/notifications/repository"
	"gemnet/internal/notifications/service"
	"gemnet/pkg/app"
	"gemnet/pkg/clock"
	"gemnet/pkg/config"
	"gemnet/pkg/kafka"
	kafka_config "gemnet/pkg/kafka/config"
	"gemnet/pkg/logger"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "gemnet-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Notifier service")

	cfg.SetMongo()

	notificationService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewNotificationHandler(notificationService, cfg.Log))

	if worker := initConsumer(cfg, notificationService); worker != nil {
		serverApp.AddWorker(worker)
	}

	serverApp.Run()
}

func initServices(cfg *config.Config) service.NotificationService {
	notificationRepo := repository.NewMongoNotificationRepository(cfg)
	notificationService := service.NewNotificationService(notificationRepo, clock.System{}, cfg)

	cfg.Log.Info("Notification service initialized", "database", cfg.MongoDatabaseName)
	return notificationService
}

// initConsumer builds the bid events consumer. The notifier still serves its
// read endpoints when the broker is unavailable; it just records nothing new.
func initConsumer(cfg *config.Config, svc service.NotificationService) app.Worker {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Warn("Invalid Kafka configuration, event consumption disabled", "error", err)
		return nil
	}

	c, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BidEventsTopic,
		consumerGroup,
		cfg.BidEventsDLQTopic,
		consumer.Handler(svc, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Warn("Failed to create Kafka consumer, event consumption disabled", "error", err)
		return nil
	}

	cfg.Log.Info("Bid event consumption enabled",
		"topic", cfg.BidEventsTopic, "group", consumerGroup)
	return &consumerWorker{consumer: c, log: cfg.Log}
}

// consumerWorker adapts the Kafka consumer to the application worker
// lifecycle.
type consumerWorker struct {
	consumer *kafka.Consumer
	log      *logger.Logger
}

func (w *consumerWorker) Name() string { return "bid-events-consumer" }

func (w *consumerWorker) Run(ctx context.Context) {
	if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("Bid events consumer stopped", "error", err)
	}
	if err := w.consumer.Close(); err != nil {
		w.log.Error("Failed to close bid events consumer", "error", err)
	}
}
