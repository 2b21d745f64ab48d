package model

// Actions accepted by the slot transition endpoint. The venue drives
// approve, reject, counter and request_changes; the host drives
// accept_counter, decline_counter and resubmit.
const (
	SlotActionApprove        = "approve"
	SlotActionReject         = "reject"
	SlotActionCounter        = "counter"
	SlotActionAcceptCounter  = "accept_counter"
	SlotActionDeclineCounter = "decline_counter"
	SlotActionRequestChanges = "request_changes"
	SlotActionResubmit       = "resubmit"
)

type SlotTransition struct {
	Action           string     `json:"action" validate:"required,oneof=approve reject counter accept_counter decline_counter request_changes resubmit"`
	ActorID          string     `json:"actor_id" validate:"required,min=1,max=64"`
	Notes            string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
	AlternativeRange *TimeRange `json:"alternative_range,omitempty"`
	RequestedRange   *TimeRange `json:"requested_range,omitempty"`
}

// Actions accepted by the event transition endpoint.
const (
	EventActionSubmit  = "submit"
	EventActionApprove = "approve"
	EventActionDeny    = "deny"
	EventActionCancel  = "cancel"
	EventActionPause   = "pause"
	EventActionResume  = "resume"
	EventActionLock    = "lock"
)

type EventTransition struct {
	Action  string `json:"action" validate:"required,oneof=submit approve deny cancel pause resume lock"`
	ActorID string `json:"actor_id" validate:"required,min=1,max=64"`
	Reason  string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}
