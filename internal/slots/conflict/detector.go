package conflict

import (
	"context"

	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"
)

// Classifications ordered by severity. A venue block always outranks a
// double booking when both overlap the candidate.
const (
	Clear        = "clear"
	DoubleBooked = "double_booked"
	HardBlock    = "hard_block"
)

// Result names the most severe classification plus every record that
// overlaps the candidate, so callers can tell the actor exactly what is in
// the way.
type Result struct {
	Classification string           `json:"classification"`
	Conflicts      []map[string]any `json:"conflicts,omitempty"`
}

func (r *Result) Clear() bool {
	return r.Classification == Clear
}

// BlockSource loads venue blocks anchored on dates in [fromDate, toDate].
type BlockSource interface {
	FindByVenueAndDates(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error)
}

// ApprovedSource loads approved slot requests anchored on dates in
// [fromDate, toDate].
type ApprovedSource interface {
	FindApprovedByVenueAndDates(ctx context.Context, venueID string, fromDate, toDate string) ([]*model.SlotRequest, error)
}

type Detector interface {
	Detect(ctx context.Context, venueID string, candidate model.TimeRange) (*Result, error)
}

type detector struct {
	blocks   BlockSource
	approved ApprovedSource
	log      *logger.Logger
}

func NewDetector(blocks BlockSource, approved ApprovedSource, log *logger.Logger) Detector {
	return &detector{
		blocks:   blocks,
		approved: approved,
		log:      log,
	}
}

// Detect scans one day either side of the candidate's anchor date so that
// wraparound ranges spilling across midnight are caught in both directions.
func (d *detector) Detect(ctx context.Context, venueID string, candidate model.TimeRange) (*Result, error) {
	span, err := candidate.Span()
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	fromDate, err := interval.PrevDate(candidate.Date)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}
	toDate, err := interval.NextDate(candidate.Date)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	blocks, err := d.blocks.FindByVenueAndDates(ctx, venueID, fromDate, toDate)
	if err != nil {
		return nil, apperrors.Internal("Failed to load venue blocks", err)
	}

	approved, err := d.approved.FindApprovedByVenueAndDates(ctx, venueID, fromDate, toDate)
	if err != nil {
		return nil, apperrors.Internal("Failed to load approved slot requests", err)
	}

	result := &Result{Classification: Clear}

	for _, block := range blocks {
		blockSpan, err := block.Span()
		if err != nil {
			d.log.Warn("Skipping malformed venue block", "block_id", block.ID, "error", err)
			continue
		}
		if span.Overlaps(blockSpan) {
			result.Classification = HardBlock
			result.Conflicts = append(result.Conflicts, block.Ref())
		}
	}

	for _, req := range approved {
		reqSpan, err := req.EffectiveRange().Span()
		if err != nil {
			d.log.Warn("Skipping malformed approved slot request", "slot_request_id", req.ID, "error", err)
			continue
		}
		if span.Overlaps(reqSpan) {
			if result.Classification == Clear {
				result.Classification = DoubleBooked
			}
			result.Conflicts = append(result.Conflicts, req.Ref())
		}
	}

	return result, nil
}
