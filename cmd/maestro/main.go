package main

import (
	"net/http"
	"os"

	"stagedoor/internal/maestro/api"
	"stagedoor/pkg/config"
)

const ServiceName = "maestro"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetServiceClients()

	router := api.SetupRouter(cfg.Client, cfg.Log)

	port := os.Getenv("MAESTRO_PORT")
	if port == "" {
		port = "8090"
	}
	addr := ":" + port
	cfg.Log.Info("Starting Maestro API server", "address", addr,
		"venues", cfg.VenuesBaseURL, "slots", cfg.SlotsBaseURL, "events", cfg.EventsBaseURL)

	if err := http.ListenAndServe(addr, router); err != nil {
		cfg.Log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
