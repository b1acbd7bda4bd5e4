package persistence

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
	"github.com/iota-uz/approvals/pkg/repo"
)

type AuditLogRepository struct{}

func NewAuditLogRepository() auditlog.Repository {
	return &AuditLogRepository{}
}

func (g *AuditLogRepository) Create(ctx context.Context, e *auditlog.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO audit_log (actor_id, request_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.ActorID, e.RequestID, string(e.Action), e.Detail, e.CreatedAt,
	).Scan(&e.ID); err != nil {
		return errors.Wrap(err, "failed to insert audit entry")
	}
	return nil
}

func buildAuditFilters(params *auditlog.FindParams) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if params.RequestID != nil {
		args = append(args, *params.RequestID)
		where = append(where, "request_id = $"+strconv.Itoa(len(args)))
	}
	if params.ActorID != nil {
		args = append(args, *params.ActorID)
		where = append(where, "actor_id = $"+strconv.Itoa(len(args)))
	}
	return where, args
}

func (g *AuditLogRepository) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.Entry, error) {
	if params == nil {
		params = &auditlog.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	where, args := buildAuditFilters(params)
	query := `
		SELECT id, actor_id, request_id, action, detail, created_at
		FROM audit_log` + whereClause(where) + `
		ORDER BY id ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit log")
	}
	defer rows.Close()

	var out []*auditlog.Entry
	for rows.Next() {
		var m models.AuditEntry
		if err := rows.Scan(&m.ID, &m.ActorID, &m.RequestID, &m.Action, &m.Detail, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		out = append(out, toDomainAuditEntry(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating audit log")
	}
	return out, nil
}
