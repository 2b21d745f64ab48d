package service

import (
	"sort"

	maestro "stagedoor/internal/maestro/core"
	"stagedoor/internal/maestro/flows"
	"stagedoor/pkg/client"
	"stagedoor/pkg/logger"
)

type MaestroService struct {
	engine *maestro.Engine
	client *client.Client
	Logger *logger.Logger
}

func NewMaestroService(client *client.Client, logger *logger.Logger) *MaestroService {
	return &MaestroService{
		engine: maestro.NewEngine(
			flows.RequestSlot(),
			flows.VenueCalendar(),
			flows.CreateVenue(),
			flows.SearchVenues(),
		),
		client: client,
		Logger: logger,
	}
}

func (s *MaestroService) ExecuteFlow(flowName string, input map[string]any) (map[string]any, error) {
	ctx := maestro.NewMaestroContext(input, s.client, s.Logger)
	if err := s.engine.Run(flowName, ctx); err != nil {
		return nil, err
	}
	return ctx.Output, nil
}

func (s *MaestroService) GetAvailableFlows() []string {
	names := s.engine.FlowNames()
	sort.Strings(names)
	return names
}
