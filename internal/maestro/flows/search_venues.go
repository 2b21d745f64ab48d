package flows

import (
	"fmt"
	"net/http"
	"sync"

	maestro "stagedoor/internal/maestro/core"
	"stagedoor/pkg/client"
	"stagedoor/pkg/model"
)

const (
	MAX_RESULTS_FOR_SEARCH      = 5
	MAX_OPEN_SEGMENTS_PER_VENUE = 3

	MAX_RESULTS_PER_PAGE = 200
)

type VenueSummary struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	City         string                       `json:"city"`
	Address      string                       `json:"address"`
	ContactPhone string                       `json:"contact_phone,omitempty"`
	OpenTime     string                       `json:"open_time"`
	CloseTime    string                       `json:"close_time"`
	OpenSegments []*model.AvailabilitySegment `json:"open_segments,omitempty"`
}

// SearchVenues finds venues by name and city. When a date is given, each
// candidate's availability is fetched and only venues with at least one open
// segment that day make the cut.
func SearchVenues() maestro.Flow {
	return maestro.NewFlow("search_venues",
		maestro.NewStep("collect_venues", collectVenues),
	)
}

func collectVenues(ctx *maestro.MaestroContext) error {
	name := ctx.ExtractString("name")
	city := ctx.ExtractString("city")
	date := ctx.ExtractString("date")
	if maestro.IsMissing(name) && maestro.IsMissing(city) {
		return fmt.Errorf("at least one of [name, city] is required")
	}

	summaries := []*VenueSummary{}
	var offset int64 = 0
	for len(summaries) < MAX_RESULTS_FOR_SEARCH {
		resp, err := ctx.Client.VenueClient.Search(name, city, MAX_RESULTS_PER_PAGE, offset)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("venue search failed: %s", client.GetErrorMessage(resp))
		}
		venues, metadata, err := ctx.Client.VenueClient.DecodeVenues(resp)
		if err != nil {
			return err
		}

		var candidates []*VenueSummary
		if maestro.IsMissing(date) {
			candidates = summarize(venues)
		} else {
			candidates = summarizeWithAvailability(ctx, venues, date)
		}
		for _, candidate := range candidates {
			if len(summaries) >= MAX_RESULTS_FOR_SEARCH {
				break
			}
			summaries = append(summaries, candidate)
		}

		offset += MAX_RESULTS_PER_PAGE
		if offset >= metadata.TotalCount {
			break
		}
	}

	ctx.Output["result"] = summaries
	return nil
}

func summarize(venues []*model.Venue) []*VenueSummary {
	summaries := make([]*VenueSummary, 0, len(venues))
	for _, venue := range venues {
		summaries = append(summaries, &VenueSummary{
			ID:           venue.ID,
			Name:         venue.Name,
			City:         venue.City,
			Address:      venue.Address,
			ContactPhone: venue.ContactPhone,
			OpenTime:     venue.OpenTime,
			CloseTime:    venue.CloseTime,
		})
	}
	return summaries
}

// summarizeWithAvailability fans the per-venue availability calls out under
// the shared request limiter. Venues whose lookup fails are skipped rather
// than failing the whole search.
func summarizeWithAvailability(ctx *maestro.MaestroContext, venues []*model.Venue, date string) []*VenueSummary {
	results := make([]*VenueSummary, len(venues))
	var wg sync.WaitGroup
	for idx, venue := range venues {
		wg.Add(1)
		go func(idx int, venue *model.Venue) {
			defer wg.Done()
			maestro.RunWithRateLimitedConcurrency(func() {
				segments := fetchOpenSegments(ctx, venue.ID, date)
				if len(segments) == 0 {
					return
				}
				results[idx] = &VenueSummary{
					ID:           venue.ID,
					Name:         venue.Name,
					City:         venue.City,
					Address:      venue.Address,
					ContactPhone: venue.ContactPhone,
					OpenTime:     venue.OpenTime,
					CloseTime:    venue.CloseTime,
					OpenSegments: segments,
				}
			})
		}(idx, venue)
	}
	wg.Wait()

	summaries := []*VenueSummary{}
	for _, result := range results {
		if result != nil {
			summaries = append(summaries, result)
		}
	}
	return summaries
}

func fetchOpenSegments(ctx *maestro.MaestroContext, venueID string, date string) []*model.AvailabilitySegment {
	resp, err := ctx.Client.SlotClient.GetAvailability(venueID, date)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}
	segments, err := ctx.Client.SlotClient.DecodeAvailability(resp)
	if err != nil {
		return nil
	}
	open := []*model.AvailabilitySegment{}
	for _, seg := range segments {
		if seg.Status != model.SegmentOpen {
			continue
		}
		open = append(open, seg)
		if len(open) >= MAX_OPEN_SEGMENTS_PER_VENUE {
			break
		}
	}
	return open
}
