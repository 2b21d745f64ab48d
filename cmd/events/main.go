package main

import (
	"context"

	"stagedoor/internal/events/handler"
	"stagedoor/internal/events/repository"
	"stagedoor/internal/events/service"
	"stagedoor/internal/events/validator"
	"stagedoor/internal/events/worker"
	venuesrepository "stagedoor/internal/venues/repository"
	"stagedoor/pkg/app"
	"stagedoor/pkg/config"
	"stagedoor/pkg/kafka"
	kafka_config "stagedoor/pkg/kafka/config"
)

const ServiceName = "events"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Events service")
	publisher := initPublisher(cfg)

	eventRepo := repository.NewMongoEventRepository(cfg)
	venueRepo := venuesrepository.NewMongoVenueRepository(cfg)
	eventValidator := validator.NewEventValidator(cfg.Log)
	eventService := service.NewEventService(eventRepo, venueRepo, eventValidator, publisher, cfg)
	scheduler := service.NewScheduler(eventRepo, venueRepo, cfg)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	sweeper := worker.NewSweeper(eventRepo, publisher, cfg)
	go sweeper.Run(workerCtx)

	reconciler, err := worker.NewReconciler(kafka_config.Load(), scheduler, publisher, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create slot transitions consumer", "error", err)
	}
	go func() {
		if err := reconciler.Run(workerCtx); err != nil {
			cfg.Log.Error("Reconciler stopped", "error", err)
		}
	}()

	cfg.Log.Info("Event service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewEventHandler(eventService, cfg.Log), handler.NewHealthHandler(cfg.Client.Mongo.Client, cfg.Log))
	serverApp.OnShutdown(func() {
		stopWorkers()
		if err := reconciler.Close(); err != nil {
			cfg.Log.Warn("Failed to close slot transitions consumer", "error", err)
		}
		if err := publisher.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka producers", "error", err)
		}
		cfg.GracefulShutdown()
	})
	serverApp.Run()
}

// Only the lifecycle feed is produced here; slot transitions are consumed,
// never published, by this service.
func initPublisher(cfg *config.Config) *kafka.Publisher {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log)
	lifecycleProducer, err := kafka.NewProducer(kafkaCfg, kafka.TopicEventLifecycle, kafka.DLQEventLifecycle)
	if err != nil {
		cfg.Log.Fatal("Failed to create event lifecycle producer", "error", err)
	}
	return kafka.NewPublisher(nil, lifecycleProducer, ServiceName)
}
