package main

import (
	eventsrepository "stagedoor/internal/events/repository"
	eventsservice "stagedoor/internal/events/service"
	"stagedoor/internal/slots/conflict"
	"stagedoor/internal/slots/handler"
	"stagedoor/internal/slots/repository"
	"stagedoor/internal/slots/service"
	"stagedoor/internal/slots/validator"
	venuesrepository "stagedoor/internal/venues/repository"
	"stagedoor/pkg/app"
	"stagedoor/pkg/config"
	"stagedoor/pkg/kafka"
	kafka_config "stagedoor/pkg/kafka/config"
)

const ServiceName = "slots"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Slots service")
	publisher := initPublisher(cfg)
	slotService := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewSlotHandler(slotService, cfg.Log), handler.NewHealthHandler(cfg.Client.Mongo.Client, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka producers", "error", err)
		}
		cfg.GracefulShutdown()
	})
	serverApp.Run()
}

func initPublisher(cfg *config.Config) *kafka.Publisher {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log)
	slotProducer, err := kafka.NewProducer(kafkaCfg, kafka.TopicSlotTransitions, kafka.DLQSlotTransitions)
	if err != nil {
		cfg.Log.Fatal("Failed to create slot transitions producer", "error", err)
	}
	lifecycleProducer, err := kafka.NewProducer(kafkaCfg, kafka.TopicEventLifecycle, kafka.DLQEventLifecycle)
	if err != nil {
		cfg.Log.Fatal("Failed to create event lifecycle producer", "error", err)
	}
	return kafka.NewPublisher(slotProducer, lifecycleProducer, ServiceName)
}

// The approval path crosses service boundaries at the data layer: the
// conflict detector reads venue blocks and the scheduler writes events, all
// inside the slot transition's transaction against the shared database.
func initServices(cfg *config.Config, publisher *kafka.Publisher) service.SlotService {
	slotValidator := validator.NewSlotValidator(cfg.Log)
	slotRepo := repository.NewMongoSlotRequestRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(cfg)

	blockRepo := venuesrepository.NewMongoVenueBlockRepository(cfg)
	detector := conflict.NewDetector(blockRepo, slotRepo, cfg.Log)

	venueRepo := venuesrepository.NewMongoVenueRepository(cfg)
	eventRepo := eventsrepository.NewMongoEventRepository(cfg)
	scheduler := eventsservice.NewScheduler(eventRepo, venueRepo, cfg)

	slotService := service.NewSlotService(
		slotRepo,
		lockRepo,
		detector,
		scheduler,
		slotValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Slot service initialized", "database", cfg.MongoDatabaseName)
	return slotService
}
