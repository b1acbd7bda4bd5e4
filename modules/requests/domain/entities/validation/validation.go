package validation

import (
	"context"
	"time"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/pkg/serrors"
)

// ErrDuplicateRecord is returned when a stage already has a validator of
// record for the request.
var ErrDuplicateRecord = serrors.NewError("INVALID_TRANSITION", "stage decision already recorded", "Requests.Errors.AlreadyValidated")

// Record is the normalized audit row of one stage decision.
type Record struct {
	ID          int64            `json:"id"`
	RequestID   int64            `json:"request_id"`
	ValidatorID int64            `json:"validator_id"`
	Stage       request.Stage    `json:"stage"`
	Decision    request.Decision `json:"decision"`
	Comment     string           `json:"comment"`
	CreatedAt   time.Time        `json:"created_at"`
}

// FromStage builds the record matching a stage decision on r.
func FromStage(r *request.Request, stage request.Stage) *Record {
	d := r.DecisionFor(stage)
	if d == nil {
		return nil
	}
	return &Record{
		RequestID:   r.ID,
		ValidatorID: d.ValidatorID,
		Stage:       stage,
		Decision:    d.Decision,
		Comment:     d.Comment,
		CreatedAt:   d.DecidedAt,
	}
}

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListByRequest(ctx context.Context, requestID int64) ([]*Record, error)
}
