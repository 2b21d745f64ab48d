package flows

import (
	"fmt"
	"net/http"

	maestro "stagedoor/internal/maestro/core"
	"stagedoor/internal/maestro/types"
	"stagedoor/pkg/client"
	"stagedoor/pkg/model"
)

const (
	createVenueInputKey   = "create_venue_input"
	createVenueCreatedKey = "create_venue_created"
)

// CreateVenue registers a venue and seeds its initial full-day blocks in one
// call. Block failures after the venue exists abort the flow so the operator
// sees them; the venue itself is not rolled back.
func CreateVenue() maestro.Flow {
	return maestro.NewFlow("create_venue",
		maestro.NewStep("parse_input", parseCreateVenueInput),
		maestro.NewStep("create_venue", createVenueRecord),
		maestro.NewStep("create_blocks", createInitialBlocks),
		maestro.NewStep("organize_output", organizeCreateVenueOutput),
	)
}

func parseCreateVenueInput(ctx *maestro.MaestroContext) error {
	input, err := types.FromMapCreateVenue(ctx.Input)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	ctx.Process[createVenueInputKey] = input
	return nil
}

func createVenueRecord(ctx *maestro.MaestroContext) error {
	input := ctx.Process[createVenueInputKey].(*types.CreateVenueInput)

	venue := &model.Venue{
		Name:         input.Name,
		City:         input.City,
		Address:      input.Address,
		ContactPhone: input.ContactPhone,
		TimeZone:     input.TimeZone,
		OpenTime:     input.OpenTime,
		CloseTime:    input.CloseTime,
	}
	if input.SlotApprovalRequired != nil {
		venue.SlotApprovalRequired = *input.SlotApprovalRequired
	}

	resp, err := ctx.Client.VenueClient.Create(venue)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to create venue: %s", client.GetErrorMessage(resp))
	}
	created, err := ctx.Client.VenueClient.DecodeVenue(resp)
	if err != nil {
		return err
	}
	ctx.Process[createVenueCreatedKey] = created
	return nil
}

func createInitialBlocks(ctx *maestro.MaestroContext) error {
	input := ctx.Process[createVenueInputKey].(*types.CreateVenueInput)
	venue := ctx.Process[createVenueCreatedKey].(*model.Venue)

	for _, closed := range input.ClosedDates {
		block := &model.VenueBlock{
			VenueID: venue.ID,
			Date:    closed.Date,
			Reason:  closed.Reason,
			FullDay: true,
		}
		resp, err := ctx.Client.VenueClient.CreateBlock(venue.ID, block)
		if err != nil {
			return fmt.Errorf("failed to block %s: %v", closed.Date, err)
		}
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("failed to block %s: %s", closed.Date, client.GetErrorMessage(resp))
		}
	}
	return nil
}

func organizeCreateVenueOutput(ctx *maestro.MaestroContext) error {
	ctx.Output["venue"] = ctx.Process[createVenueCreatedKey]
	return nil
}
