package persistence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
)

type ValidationRepository struct{}

func NewValidationRepository() validation.Repository {
	return &ValidationRepository{}
}

// Create maps the (request_id, stage) unique violation to
// validation.ErrDuplicateRecord.
func (g *ValidationRepository) Create(ctx context.Context, rec *validation.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO request_validations (request_id, validator_id, stage, decision, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rec.RequestID, rec.ValidatorID, string(rec.Stage), string(rec.Decision), rec.Comment, rec.CreatedAt,
	).Scan(&rec.ID); err != nil {
		if pgCode(err) == uniqueViolation {
			return validation.ErrDuplicateRecord.
				WithMessage("%s stage of request %d already recorded", rec.Stage, rec.RequestID).
				Wrap(err)
		}
		return errors.Wrap(err, "failed to insert validation record")
	}
	return nil
}

func (g *ValidationRepository) ListByRequest(ctx context.Context, requestID int64) ([]*validation.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, `
		SELECT id, request_id, validator_id, stage, decision, comment, created_at
		FROM request_validations
		WHERE request_id = $1
		ORDER BY id`,
		requestID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query validation records")
	}
	defer rows.Close()

	var out []*validation.Record
	for rows.Next() {
		var m models.Validation
		if err := rows.Scan(&m.ID, &m.RequestID, &m.ValidatorID, &m.Stage, &m.Decision, &m.Comment, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan validation record")
		}
		out = append(out, toDomainValidation(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating validation records")
	}
	return out, nil
}
