package main

import (
	calendarhandler "stagedoor/internal/calendar/handler"
	calendarservice "stagedoor/internal/calendar/service"
	slotsrepository "stagedoor/internal/slots/repository"
	"stagedoor/internal/venues/handler"
	"stagedoor/internal/venues/repository"
	"stagedoor/internal/venues/service"
	"stagedoor/internal/venues/validator"
	"stagedoor/pkg/app"
	"stagedoor/pkg/config"
	"stagedoor/pkg/contracts"
)

const ServiceName = "venues"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Venues service")
	appHandlers := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(appHandlers, handler.NewHealthHandler(cfg.Client.Mongo.Client, cfg.Log))
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

// The calendar projection rides in this binary: it reads venues, blocks and
// slot requests but owns no collection of its own.
func initServices(cfg *config.Config) contracts.Handlers {
	venueValidator := validator.NewVenueValidator(cfg.Log)
	venueRepo := repository.NewMongoVenueRepository(cfg)
	blockRepo := repository.NewMongoVenueBlockRepository(cfg)
	venueService := service.NewVenueService(venueRepo, blockRepo, venueValidator, cfg)

	slotRepo := slotsrepository.NewMongoSlotRequestRepository(cfg)
	calendarService := calendarservice.NewCalendarService(venueRepo, blockRepo, slotRepo, cfg)

	cfg.Log.Info("Venue service initialized", "database", cfg.MongoDatabaseName)
	return contracts.Handlers{
		handler.NewVenueHandler(venueService, cfg.Log),
		calendarhandler.NewCalendarHandler(calendarService, cfg.Log),
	}
}
