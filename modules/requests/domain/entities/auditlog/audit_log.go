package auditlog

import (
	"context"
	"time"
)

type Action string

const (
	ActionCreated          Action = "request.created"
	ActionUpdated          Action = "request.updated"
	ActionSubmitted        Action = "request.submitted"
	ActionDirectorApproved Action = "request.director_approved"
	ActionFinanceApproved  Action = "request.finance_approved"
	ActionRejected         Action = "request.rejected"
	ActionDirectCreated    Action = "request.direct_created"
	ActionDirectApproved   Action = "request.direct_approved"
	ActionPurged           Action = "request.purged"
)

// Entry is append-only.
type Entry struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	RequestID *int64    `json:"request_id,omitempty"`
	Action    Action    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

type FindParams struct {
	RequestID *int64
	ActorID   *int64
	Limit     int
	Offset    int
}

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, params *FindParams) ([]*Entry, error)
}
