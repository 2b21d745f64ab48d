package kafka

import (
	"context"
	"time"

	"stagedoor/pkg/model"
)

// Topics carrying the negotiation and lifecycle feeds. Both are keyed by
// venue ID so transitions for one venue stay ordered within a partition.
const (
	TopicSlotTransitions = "slot-transitions"
	TopicEventLifecycle  = "event-lifecycle"

	DLQSlotTransitions = "dlq-slot-transitions"
	DLQEventLifecycle  = "dlq-event-lifecycle"
)

// Message types published on TopicSlotTransitions
const (
	TypeSlotRequested      = "slot.requested"
	TypeSlotApproved       = "slot.approved"
	TypeSlotRejected       = "slot.rejected"
	TypeSlotCounterOffered = "slot.counter_offered"
	TypeSlotNeedsChanges   = "slot.needs_changes"
	TypeSlotResubmitted    = "slot.resubmitted"
)

// Message types published on TopicEventLifecycle
const (
	TypeEventSubmitted = "event.submitted"
	TypeEventApproved  = "event.approved"
	TypeEventScheduled = "event.scheduled"
	TypeEventLive      = "event.live"
	TypeEventCompleted = "event.completed"
	TypeEventCancelled = "event.cancelled"
	TypeEventPaused    = "event.paused"
	TypeEventResumed   = "event.resumed"
	TypeEventLocked    = "event.locked"
)

// SlotTransitionPayload is the value schema on TopicSlotTransitions
type SlotTransitionPayload struct {
	SlotRequestID string           `json:"slot_request_id"`
	EventID       string           `json:"event_id"`
	VenueID       string           `json:"venue_id"`
	HostID        string           `json:"host_id"`
	FromStatus    string           `json:"from_status"`
	ToStatus      string           `json:"to_status"`
	ActorID       string           `json:"actor_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Range         *model.TimeRange `json:"range,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// EventLifecyclePayload is the value schema on TopicEventLifecycle
type EventLifecyclePayload struct {
	EventID       string           `json:"event_id"`
	VenueID       string           `json:"venue_id"`
	HostID        string           `json:"host_id"`
	FromLifecycle string           `json:"from_lifecycle"`
	ToLifecycle   string           `json:"to_lifecycle"`
	ActorID       string           `json:"actor_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Paused        bool             `json:"paused"`
	Range         *model.TimeRange `json:"range,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Publisher wraps two producers with typed publish helpers. Services
// that only emit one feed may leave the other producer nil.
type Publisher struct {
	slots     *Producer
	lifecycle *Producer
	source    string
}

func NewPublisher(slots *Producer, lifecycle *Producer, source string) *Publisher {
	return &Publisher{
		slots:     slots,
		lifecycle: lifecycle,
		source:    source,
	}
}

func (p *Publisher) PublishSlotTransition(ctx context.Context, messageType string, payload SlotTransitionPayload) error {
	if p == nil || p.slots == nil {
		return nil
	}

	msg := NewMessage().
		WithKey(payload.VenueID).
		WithValue(payload).
		WithMessageType(messageType).
		WithSchemaVersion("1").
		WithSource(p.source).
		WithCorrelationID(payload.SlotRequestID).
		Build()

	return p.slots.Publish(ctx, msg)
}

func (p *Publisher) PublishEventLifecycle(ctx context.Context, messageType string, payload EventLifecyclePayload) error {
	if p == nil || p.lifecycle == nil {
		return nil
	}

	msg := NewMessage().
		WithKey(payload.VenueID).
		WithValue(payload).
		WithMessageType(messageType).
		WithSchemaVersion("1").
		WithSource(p.source).
		WithCorrelationID(payload.EventID).
		Build()

	return p.lifecycle.Publish(ctx, msg)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}

	var err error
	if p.slots != nil {
		err = p.slots.Close()
	}
	if p.lifecycle != nil {
		if cerr := p.lifecycle.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
