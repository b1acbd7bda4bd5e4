package persistence

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
	"github.com/iota-uz/approvals/pkg/repo"
)

const selectRequestColumns = `
	SELECT
		r.id, r.kind, r.title, r.counterpart, r.location, r.comment,
		r.amount::text, r.event_date, r.urgency, r.classifications, r.fiscal_period,
		r.owner_id, r.created_by, r.status,
		r.director_validator_id, r.director_decision, r.director_comment, r.director_decided_at,
		r.finance_validator_id, r.finance_decision, r.finance_comment, r.finance_decided_at,
		r.created_at, r.updated_at,
		COALESCE((SELECT array_agg(p.user_id ORDER BY p.user_id) FROM request_participants p WHERE p.request_id = r.id), '{}')
	FROM requests r`

type rowScanner interface {
	Scan(dest ...any) error
}

type RequestRepository struct{}

func NewRequestRepository() request.Repository {
	return &RequestRepository{}
}

func scanRequest(row rowScanner) (*request.Request, error) {
	var m models.Request
	if err := row.Scan(
		&m.ID, &m.Kind, &m.Title, &m.Counterpart, &m.Location, &m.Comment,
		&m.Amount, &m.EventDate, &m.Urgency, &m.Classifications, &m.FiscalPeriod,
		&m.OwnerID, &m.CreatedBy, &m.Status,
		&m.DirectorValidatorID, &m.DirectorDecision, &m.DirectorComment, &m.DirectorDecidedAt,
		&m.FinanceValidatorID, &m.FinanceDecision, &m.FinanceComment, &m.FinanceDecidedAt,
		&m.CreatedAt, &m.UpdatedAt,
		&m.Participants,
	); err != nil {
		return nil, err
	}
	return toDomainRequest(&m)
}

func (g *RequestRepository) Create(ctx context.Context, r *request.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	row, err := toDBRequest(r)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO requests (
			kind, title, counterpart, location, comment, amount, event_date, urgency,
			classifications, fiscal_period, owner_id, created_by, status,
			director_validator_id, director_decision, director_comment, director_decided_at,
			finance_validator_id, finance_decision, finance_comment, finance_decided_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id`,
		row.Kind, row.Title, row.Counterpart, row.Location, row.Comment, row.Amount, row.EventDate, row.Urgency,
		row.Classifications, row.FiscalPeriod, row.OwnerID, row.CreatedBy, row.Status,
		row.DirectorValidatorID, row.DirectorDecision, row.DirectorComment, row.DirectorDecidedAt,
		row.FinanceValidatorID, row.FinanceDecision, row.FinanceComment, row.FinanceDecidedAt,
		row.CreatedAt, row.UpdatedAt,
	).Scan(&r.ID); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return user.ErrUserNotFound.WithMessage("request references an unknown user").Wrap(err)
		}
		return errors.Wrap(err, "failed to insert request")
	}
	return g.replaceParticipants(ctx, tx, r.ID, r.Participants, false)
}

func (g *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	return g.get(ctx, id, "")
}

func (g *RequestRepository) GetForUpdate(ctx context.Context, id int64) (*request.Request, error) {
	return g.get(ctx, id, " FOR UPDATE OF r")
}

func (g *RequestRepository) get(ctx context.Context, id int64, lock string) (*request.Request, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	r, err := scanRequest(tx.QueryRow(ctx, selectRequestColumns+` WHERE r.id = $1`+lock, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound.WithMessage("request %d not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get request %d", id)
	}
	return r, nil
}

func (g *RequestRepository) Update(ctx context.Context, r *request.Request) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	row, err := toDBRequest(r)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE requests SET
			kind = $2, title = $3, counterpart = $4, location = $5, comment = $6,
			amount = $7::numeric, event_date = $8, urgency = $9, classifications = $10, fiscal_period = $11,
			status = $12,
			director_validator_id = $13, director_decision = $14, director_comment = $15, director_decided_at = $16,
			finance_validator_id = $17, finance_decision = $18, finance_comment = $19, finance_decided_at = $20,
			updated_at = $21
		WHERE id = $1`,
		row.ID, row.Kind, row.Title, row.Counterpart, row.Location, row.Comment,
		row.Amount, row.EventDate, row.Urgency, row.Classifications, row.FiscalPeriod,
		row.Status,
		row.DirectorValidatorID, row.DirectorDecision, row.DirectorComment, row.DirectorDecidedAt,
		row.FinanceValidatorID, row.FinanceDecision, row.FinanceComment, row.FinanceDecidedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update request %d", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return request.ErrRequestNotFound.WithMessage("request %d not found", r.ID)
	}
	return g.replaceParticipants(ctx, tx, r.ID, r.Participants, true)
}

func (g *RequestRepository) replaceParticipants(ctx context.Context, tx repo.Tx, requestID int64, participants []int64, clear bool) error {
	if clear {
		if _, err := tx.Exec(ctx, `DELETE FROM request_participants WHERE request_id = $1`, requestID); err != nil {
			return errors.Wrap(err, "failed to clear participants")
		}
	}
	if len(participants) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO request_participants (request_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`,
		requestID, participants,
	); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return user.ErrUserNotFound.WithMessage("participant references an unknown user").Wrap(err)
		}
		return errors.Wrap(err, "failed to insert participants")
	}
	return nil
}

func buildScopeFilter(scope request.Scope, args []any) ([]string, []any) {
	if scope.All {
		return nil, args
	}
	var ors []string
	if scope.OwnerID != 0 {
		args = append(args, scope.OwnerID)
		ors = append(ors, "r.owner_id = $"+strconv.Itoa(len(args)))
	}
	if scope.ManagerID != 0 {
		args = append(args, scope.ManagerID)
		ors = append(ors, "r.owner_id IN (SELECT u.id FROM users u WHERE u.manager_id = $"+strconv.Itoa(len(args))+")")
	}
	if len(ors) == 0 {
		return []string{"FALSE"}, args
	}
	return []string{"(" + strings.Join(ors, " OR ") + ")"}, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func (g *RequestRepository) List(ctx context.Context, params *request.FindParams) ([]*request.Request, error) {
	if params == nil {
		params = &request.FindParams{Scope: request.Scope{All: true}}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	where, args := buildScopeFilter(params.Scope, nil)
	if len(params.Statuses) > 0 {
		statuses := make([]string, 0, len(params.Statuses))
		for _, s := range params.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, "r.status = ANY($"+strconv.Itoa(len(args))+")")
	}
	query := selectRequestColumns + whereClause(where) + ` ORDER BY r.created_at DESC, r.id DESC ` +
		repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query requests")
	}
	defer rows.Close()

	var out []*request.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan request")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating requests")
	}
	return out, nil
}

func (g *RequestRepository) Counts(ctx context.Context, scope request.Scope) (request.Counts, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return request.Counts{}, errors.Wrap(err, "failed to get transaction")
	}
	where, args := buildScopeFilter(scope, nil)

	var (
		counts request.Counts
		sum    string
	)
	if err := tx.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE r.status = 'draft'),
			COUNT(*) FILTER (WHERE r.status IN ('pending_director', 'pending_finance')),
			COUNT(*) FILTER (WHERE r.status = 'approved'),
			COUNT(*) FILTER (WHERE r.status = 'rejected'),
			COALESCE(SUM(r.amount) FILTER (WHERE r.status = 'approved'), 0)::text
		FROM requests r`+whereClause(where),
		args...,
	).Scan(&counts.Draft, &counts.Pending, &counts.Approved, &counts.Rejected, &sum); err != nil {
		return request.Counts{}, errors.Wrap(err, "failed to count requests")
	}
	if counts.ApprovedAmountSum, err = decimal.NewFromString(sum); err != nil {
		return request.Counts{}, errors.Wrapf(err, "invalid approved amount sum %q", sum)
	}
	return counts, nil
}

func (g *RequestRepository) Dependencies(ctx context.Context, id int64) (request.Dependencies, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return request.Dependencies{}, errors.Wrap(err, "failed to get transaction")
	}
	var deps request.Dependencies
	if err := tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM request_participants WHERE request_id = r.id),
			(SELECT COUNT(*) FROM request_validations WHERE request_id = r.id),
			(SELECT COUNT(*) FROM notifications WHERE request_id = r.id),
			(SELECT COUNT(*) FROM audit_log WHERE request_id = r.id)
		FROM requests r
		WHERE r.id = $1`,
		id,
	).Scan(&deps.Participants, &deps.Validations, &deps.Notifications, &deps.AuditEntries); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return request.Dependencies{}, request.ErrRequestNotFound.WithMessage("request %d not found", id)
		}
		return request.Dependencies{}, errors.Wrapf(err, "failed to count dependencies of request %d", id)
	}
	return deps, nil
}

// Delete relies on ON DELETE CASCADE for participants, validations,
// notifications and audit entries.
func (g *RequestRepository) Delete(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete request %d", id)
	}
	if tag.RowsAffected() == 0 {
		return request.ErrRequestNotFound.WithMessage("request %d not found", id)
	}
	return nil
}
