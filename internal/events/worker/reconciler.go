package worker

import (
	"context"

	"stagedoor/internal/events/service"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/kafka"
	kafka_config "stagedoor/pkg/kafka/config"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"
)

const reconcilerGroupID = "events-reconciler"

// Reconciler tails the slot transition topic and re-applies the scheduling
// side effect of every approval. The approval transaction already schedules
// the event, so in the steady state each message is a no-op; the consumer
// exists to repair events whose scheduled write was observed by the slots
// service but whose lifecycle message never reached this service's readers.
type Reconciler struct {
	scheduler *service.Scheduler
	publisher *kafka.Publisher
	consumer  *kafka.Consumer
	log       *logger.Logger
}

func NewReconciler(kafkaCfg *kafka_config.Config, scheduler *service.Scheduler, publisher *kafka.Publisher, log *logger.Logger) (*Reconciler, error) {
	r := &Reconciler{
		scheduler: scheduler,
		publisher: publisher,
		log:       log,
	}

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka.TopicSlotTransitions,
		reconcilerGroupID,
		kafka.DLQSlotTransitions,
		r.handle,
	)
	if err != nil {
		return nil, err
	}
	r.consumer = consumer
	return r, nil
}

// Run blocks consuming until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("Slot approval reconciler started", "topic", kafka.TopicSlotTransitions, "group", reconcilerGroupID)
	return r.consumer.Start(ctx)
}

func (r *Reconciler) Close() error {
	return r.consumer.Close()
}

func (r *Reconciler) handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetMessageType() != kafka.TypeSlotApproved {
		return nil
	}

	var payload kafka.SlotTransitionPayload
	if err := msg.DecodeValue(&payload); err != nil {
		return kafka.NewPermanentError("invalid slot transition payload", err)
	}
	if payload.EventID == "" || payload.Range == nil {
		return kafka.NewPermanentError("approval message missing event or range", nil)
	}

	updated, fromLifecycle, err := r.scheduler.Schedule(ctx, payload.EventID, payload.SlotRequestID, *payload.Range)
	if err != nil {
		// A frozen or cancelled event can no longer be scheduled. That is
		// an operator matter, not a delivery failure.
		if apperrors.IsCode(err, apperrors.CodeInvalidTransition) || apperrors.IsCode(err, apperrors.CodeNotFound) {
			return kafka.NewBusinessError("approved slot no longer schedulable", err)
		}
		if apperrors.IsCode(err, apperrors.CodeStaleState) {
			return kafka.NewTransientError("event changed during reconciliation", err)
		}
		return kafka.NewTransientError("failed to reconcile approved slot", err)
	}

	if fromLifecycle == model.EventScheduled {
		return nil
	}

	r.log.Warn("Reconciler repaired unscheduled event",
		"event_id", updated.ID,
		"slot_request_id", payload.SlotRequestID,
		"from_lifecycle", fromLifecycle,
	)
	lifecyclePayload := kafka.EventLifecyclePayload{
		EventID:       updated.ID,
		VenueID:       updated.VenueID,
		HostID:        updated.HostID,
		FromLifecycle: fromLifecycle,
		ToLifecycle:   updated.Lifecycle,
		ActorID:       payload.ActorID,
		Reason:        "reconciled",
		Paused:        updated.Paused,
		Range:         updated.PublishedRange,
		OccurredAt:    payload.OccurredAt,
	}
	if err := r.publisher.PublishEventLifecycle(ctx, kafka.TypeEventScheduled, lifecyclePayload); err != nil {
		r.log.Warn("Failed to publish reconciled lifecycle", "event_id", updated.ID, "error", err)
	}
	return nil
}
