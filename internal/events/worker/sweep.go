package worker

import (
	"context"
	"errors"
	"time"

	eventserrors "stagedoor/internal/events/errors"
	"stagedoor/internal/events/repository"
	"stagedoor/pkg/config"
	"stagedoor/pkg/kafka"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const sweepBatchSize = 100

// Sweeper drives the time-based lifecycle transitions. On every tick it
// moves scheduled events whose start instant has passed to live, and live
// events past their end instant plus the completion grace to completed.
// Every write goes through the versioned lifecycle update, so a sweeper
// racing an operator action simply loses and skips the record.
type Sweeper struct {
	repo      repository.EventRepository
	publisher *kafka.Publisher
	cfg       *config.Config
}

func NewSweeper(repo repository.EventRepository, publisher *kafka.Publisher, cfg *config.Config) *Sweeper {
	return &Sweeper{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.cfg.Log.Info("Lifecycle sweeper started", "interval", s.cfg.SweepInterval, "grace", s.cfg.CompletionGrace)
	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Lifecycle sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass. Exposed separately so a deploy hook or
// test can trigger it without the ticker.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	s.advance(ctx, now, sweepStart)
	s.advance(ctx, now, sweepComplete)
}

type sweepPhase int

const (
	sweepStart sweepPhase = iota
	sweepComplete
)

func (s *Sweeper) advance(ctx context.Context, now time.Time, phase sweepPhase) {
	var (
		due         []*model.Event
		err         error
		toLifecycle string
		messageType string
	)
	switch phase {
	case sweepStart:
		due, err = s.repo.FindDueToStart(ctx, now, sweepBatchSize)
		toLifecycle = model.EventLive
		messageType = kafka.TypeEventLive
	case sweepComplete:
		due, err = s.repo.FindDueToComplete(ctx, now.Add(-s.cfg.CompletionGrace), sweepBatchSize)
		toLifecycle = model.EventCompleted
		messageType = kafka.TypeEventCompleted
	}
	if err != nil {
		s.cfg.Log.Error("Sweep query failed", "to", toLifecycle, "error", err)
		return
	}

	for _, event := range due {
		updated, err := s.repo.UpdateLifecycle(ctx, event.ID, []string{event.Lifecycle}, event.Version, bson.M{
			"lifecycle": toLifecycle,
		})
		if err != nil {
			if errors.Is(err, eventserrors.ErrStale) || errors.Is(err, eventserrors.ErrNotFound) {
				continue
			}
			s.cfg.Log.Error("Sweep transition failed", "event_id", event.ID, "to", toLifecycle, "error", err)
			continue
		}

		s.cfg.Log.Info("Event advanced by sweep", "event_id", event.ID, "from", event.Lifecycle, "to", toLifecycle)
		payload := kafka.EventLifecyclePayload{
			EventID:       updated.ID,
			VenueID:       updated.VenueID,
			HostID:        updated.HostID,
			FromLifecycle: event.Lifecycle,
			ToLifecycle:   toLifecycle,
			Paused:        updated.Paused,
			Range:         updated.PublishedRange,
			OccurredAt:    now,
		}
		if err := s.publisher.PublishEventLifecycle(ctx, messageType, payload); err != nil {
			s.cfg.Log.Warn("Failed to publish event lifecycle", "event_id", updated.ID, "type", messageType, "error", err)
		}
	}
}
