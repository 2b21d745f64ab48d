package flows

import (
	"fmt"
	"net/http"

	maestro "stagedoor/internal/maestro/core"
	"stagedoor/internal/maestro/types"
	"stagedoor/pkg/client"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/model"
)

const (
	requestSlotInputKey = "request_slot_input"
	requestSlotVenueKey = "request_slot_venue"
)

// RequestSlot opens a negotiation for a window at a venue. The flow
// pre-checks the day's availability so obviously dead requests fail fast;
// the slots service re-verifies under lock at approval time.
func RequestSlot() maestro.Flow {
	return maestro.NewFlow("request_slot",
		maestro.NewStep("parse_input", parseRequestSlotInput),
		maestro.NewStep("resolve_venue", resolveRequestedVenue),
		maestro.NewStep("check_window", checkRequestedWindow),
		maestro.NewStep("submit_request", submitSlotRequest),
	)
}

func parseRequestSlotInput(ctx *maestro.MaestroContext) error {
	input, err := types.FromMapRequestSlot(ctx.Input)
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	ctx.Process[requestSlotInputKey] = input
	return nil
}

func resolveRequestedVenue(ctx *maestro.MaestroContext) error {
	input := ctx.Process[requestSlotInputKey].(*types.RequestSlotInput)
	resp, err := ctx.Client.VenueClient.GetByID(input.VenueID)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("venue lookup failed: %s", client.GetErrorMessage(resp))
	}
	venue, err := ctx.Client.VenueClient.DecodeVenue(resp)
	if err != nil {
		return err
	}
	ctx.Process[requestSlotVenueKey] = venue
	return nil
}

func checkRequestedWindow(ctx *maestro.MaestroContext) error {
	input := ctx.Process[requestSlotInputKey].(*types.RequestSlotInput)
	requested, err := interval.Normalize(input.Date, input.Start, input.End)
	if err != nil {
		return fmt.Errorf("invalid requested window: %w", err)
	}

	resp, err := ctx.Client.SlotClient.GetAvailability(input.VenueID, input.Date)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("availability lookup failed: %s", client.GetErrorMessage(resp))
	}
	segments, err := ctx.Client.SlotClient.DecodeAvailability(resp)
	if err != nil {
		return err
	}

	for _, seg := range segments {
		if seg.Status != model.SegmentOpen {
			continue
		}
		span, err := interval.Normalize(input.Date, seg.Start, seg.End)
		if err != nil {
			continue
		}
		if span.Contains(requested) {
			return nil
		}
	}
	return fmt.Errorf("requested window %s %s-%s is not open at this venue", input.Date, input.Start, input.End)
}

func submitSlotRequest(ctx *maestro.MaestroContext) error {
	input := ctx.Process[requestSlotInputKey].(*types.RequestSlotInput)
	request := &model.SlotRequest{
		EventID: input.EventID,
		HostID:  input.HostID,
		VenueID: input.VenueID,
		RequestedRange: model.TimeRange{
			Date:  input.Date,
			Start: input.Start,
			End:   input.End,
		},
		Notes: input.Notes,
	}

	resp, err := ctx.Client.SlotClient.Create(request)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to create slot request: %s", client.GetErrorMessage(resp))
	}
	created, err := ctx.Client.SlotClient.DecodeSlotRequest(resp)
	if err != nil {
		return err
	}
	ctx.Output["request"] = created
	return nil
}
