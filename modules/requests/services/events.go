package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
)

// Transition names a committed state change.
type Transition string

const (
	TransitionCreated          Transition = "created"
	TransitionSubmitted        Transition = "submitted"
	TransitionDirectorApproved Transition = "director_approved"
	TransitionFinanceApproved  Transition = "finance_approved"
	TransitionRejected         Transition = "rejected"
	TransitionDirectApproved   Transition = "direct_approved"
	TransitionPurged           Transition = "purged"
)

// TransitionEvent is published after a transition and its side effects.
type TransitionEvent struct {
	EventID    uuid.UUID      `json:"event_id"`
	RequestID  int64          `json:"request_id"`
	ActorID    int64          `json:"actor_id"`
	Transition Transition     `json:"transition"`
	From       request.Status `json:"from,omitempty"`
	To         request.Status `json:"to,omitempty"`
	Notified   int            `json:"notified"`
	OccurredAt time.Time      `json:"occurred_at"`
}
