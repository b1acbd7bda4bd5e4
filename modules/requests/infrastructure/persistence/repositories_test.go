package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
)

func requestRow(id int64, status string, director *int64, now time.Time) []any {
	approve := "approve"
	comment := "fine"
	var decision, dirComment *string
	var decidedAt *time.Time
	if director != nil {
		decision, dirComment, decidedAt = &approve, &comment, &now
	}
	return []any{
		id, "budget", "Offsite", "Hotel", "Oslo", "",
		"1500.00", now, "normal", []byte(`{"budget_type":"opex"}`), "FY26",
		int64(1), int64(1), status,
		director, decision, dirComment, decidedAt,
		(*int64)(nil), (*string)(nil), (*string)(nil), (*time.Time)(nil),
		now, now,
		[]int64{1, 4},
	}
}

func TestRequestRepository_GetByID_MapsRow(t *testing.T) {
	now := time.Now()
	director := int64(2)
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FROM requests r")
			require.NotContains(t, sql, "FOR UPDATE")
			require.Equal(t, int64(9), args[0])
			return valuesRow(requestRow(9, "pending_finance", &director, now)...)
		},
	}

	r, err := NewRequestRepository().GetByID(tx.ctx(), 9)
	require.NoError(t, err)
	require.Equal(t, int64(9), r.ID)
	require.Equal(t, request.KindBudget, r.Kind)
	require.Equal(t, request.StatusPendingFinance, r.Status)
	require.True(t, decimal.RequireFromString("1500").Equal(r.Amount))
	require.Equal(t, map[string]string{"budget_type": "opex"}, r.Classifications)
	require.Equal(t, []int64{1, 4}, r.Participants)
	require.NotNil(t, r.DirectorStage)
	require.Equal(t, director, r.DirectorStage.ValidatorID)
	require.Equal(t, "fine", r.DirectorStage.Comment)
	require.Nil(t, r.FinanceStage)
}

func TestRequestRepository_GetForUpdate_LocksAndMapsNoRows(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FOR UPDATE OF r")
			return errRow(pgx.ErrNoRows)
		},
	}

	_, err := NewRequestRepository().GetForUpdate(tx.ctx(), 3)
	require.ErrorIs(t, err, request.ErrRequestNotFound)
}

func TestRequestRepository_Create_InsertsParticipants(t *testing.T) {
	var participantArgs []any
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO requests")
			require.Equal(t, "budget", args[0])
			require.Equal(t, "12.5", args[5])
			require.Equal(t, "draft", args[12])
			require.Nil(t, args[13])
			return valuesRow(int64(77))
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "INSERT INTO request_participants")
			participantArgs = args
			return pgconn.NewCommandTag("INSERT 0 2"), nil
		},
	}

	r := request.New(1, 1, request.Payload{
		Kind:         request.KindBudget,
		Title:        "Offsite",
		Amount:       decimal.RequireFromString("12.5"),
		Urgency:      request.UrgencyNormal,
		Participants: []int64{1, 3},
	}, time.Now())
	require.NoError(t, NewRequestRepository().Create(tx.ctx(), r))
	require.Equal(t, int64(77), r.ID)
	require.Equal(t, []any{int64(77), []int64{1, 3}}, participantArgs)
}

func TestRequestRepository_Create_UnknownUser(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return errRow(&pgconn.PgError{Code: foreignKeyViolation})
		},
	}

	r := request.New(404, 404, request.Payload{Kind: request.KindBudget, Amount: decimal.NewFromInt(1)}, time.Now())
	err := NewRequestRepository().Create(tx.ctx(), r)
	require.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRequestRepository_Update_MissingRow(t *testing.T) {
	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "UPDATE requests SET")
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	r := request.New(1, 1, request.Payload{Kind: request.KindBudget, Amount: decimal.NewFromInt(1)}, time.Now())
	r.ID = 5
	require.ErrorIs(t, NewRequestRepository().Update(tx.ctx(), r), request.ErrRequestNotFound)
}

func TestRequestRepository_List_BuildsScopeAndStatusFilters(t *testing.T) {
	now := time.Now()
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "r.owner_id = $1")
			require.Contains(t, sql, "u.manager_id = $2")
			require.Contains(t, sql, "r.status = ANY($3)")
			require.Contains(t, sql, "LIMIT 10 OFFSET 20")
			require.Equal(t, []any{int64(2), int64(2), []string{"draft"}}, args)
			return &stubRows{data: [][]any{requestRow(1, "draft", nil, now)}}, nil
		},
	}

	out, err := NewRequestRepository().List(tx.ctx(), &request.FindParams{
		Scope:    request.Scope{OwnerID: 2, ManagerID: 2},
		Statuses: []request.Status{request.StatusDraft},
		Limit:    10,
		Offset:   20,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Nil(t, out[0].DirectorStage)
}

func TestRequestRepository_Counts(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "COUNT(*) FILTER")
			require.NotContains(t, sql, "WHERE (")
			require.Empty(t, args)
			return valuesRow(int64(1), int64(2), int64(3), int64(4), "1520.50")
		},
	}

	counts, err := NewRequestRepository().Counts(tx.ctx(), request.Scope{All: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), counts.Pending)
	require.Equal(t, int64(4), counts.Rejected)
	require.True(t, decimal.RequireFromString("1520.5").Equal(counts.ApprovedAmountSum))
}

func TestRequestRepository_DependenciesAndDelete(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "request_validations")
			return valuesRow(int64(2), int64(1), int64(3), int64(4))
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Equal(t, `DELETE FROM requests WHERE id = $1`, sql)
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}
	repo := NewRequestRepository()

	deps, err := repo.Dependencies(tx.ctx(), 8)
	require.NoError(t, err)
	require.Equal(t, int64(10), deps.Total())

	require.ErrorIs(t, repo.Delete(tx.ctx(), 8), request.ErrRequestNotFound)
}

func TestValidationRepository_Create_DuplicateStage(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO request_validations")
			require.Equal(t, "director", args[2])
			return errRow(&pgconn.PgError{Code: uniqueViolation})
		},
	}

	err := NewValidationRepository().Create(tx.ctx(), &validation.Record{
		RequestID: 1, ValidatorID: 2, Stage: request.StageDirector, Decision: request.DecisionApprove,
	})
	require.ErrorIs(t, err, validation.ErrDuplicateRecord)
}

func TestAuditLogRepository_List_Filters(t *testing.T) {
	now := time.Now()
	requestID := int64(4)
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "WHERE request_id = $1")
			require.Equal(t, []any{requestID}, args)
			return &stubRows{data: [][]any{
				{int64(1), int64(5), &requestID, "request.created", "budget request #4", now},
			}}, nil
		},
	}

	entries, err := NewAuditLogRepository().List(tx.ctx(), &auditlog.FindParams{RequestID: &requestID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, auditlog.ActionCreated, entries[0].Action)
	require.Equal(t, requestID, *entries[0].RequestID)
}

func TestUserDirectory(t *testing.T) {
	manager := int64(2)
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if args[0] == int64(404) {
				return errRow(pgx.ErrNoRows)
			}
			return valuesRow(int64(1), "Tess", "tess@example.com", "tc", &manager, "north", true)
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Equal(t, []any{"director", "north"}, args)
			return &stubRows{data: [][]any{
				{int64(2), "Dana", "", "director", (*int64)(nil), "north", true},
			}}, nil
		},
	}
	dir := NewUserDirectory()

	u, err := dir.GetByID(tx.ctx(), 1)
	require.NoError(t, err)
	require.Equal(t, user.RoleTC, u.Role)
	require.Equal(t, manager, *u.ManagerID)

	_, err = dir.GetByID(tx.ctx(), 404)
	require.ErrorIs(t, err, user.ErrUserNotFound)

	users, err := dir.UsersByRoleAndRegion(tx.ctx(), user.RoleDirector, "north")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Nil(t, users[0].ManagerID)
}

func TestOptionRepository_ActiveOptions(t *testing.T) {
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "ORDER BY position")
			return &stubRows{data: [][]any{
				{"fiscal_period", "FY25", "2025", 1, true},
				{"fiscal_period", "FY26", "2026", 2, true},
			}}, nil
		},
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Equal(t, []any{"fiscal_period", "FY27"}, args)
			return valuesRow(false)
		},
	}
	repo := NewOptionRepository()

	opts, err := repo.ActiveOptions(tx.ctx(), option.CategoryFiscalPeriod)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	require.Equal(t, "FY25", opts[0].Value)

	ok, err := repo.IsAllowed(tx.ctx(), option.CategoryFiscalPeriod, "FY27")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRepositories_RequireTransaction(t *testing.T) {
	_, err := NewRequestRepository().GetByID(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get transaction")
}

func TestYAMLOptionSource(t *testing.T) {
	src, err := ParseYAMLOptionSource([]byte(`
fiscal_period:
  - value: FY26
    position: 2
  - value: FY25
    position: 1
  - value: FY24
    active: false
channel:
  - value: social
`))
	require.NoError(t, err)
	ctx := context.Background()

	opts, err := src.ActiveOptions(ctx, option.CategoryFiscalPeriod)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	require.Equal(t, "FY25", opts[0].Value)
	require.Equal(t, option.CategoryFiscalPeriod, opts[0].Category)

	ok, err := src.IsAllowed(ctx, option.CategoryFiscalPeriod, "FY24")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = src.IsAllowed(ctx, option.CategoryChannel, "social")
	require.NoError(t, err)
	require.True(t, ok)

	var all []string
	for _, o := range src.All() {
		all = append(all, o.Category+":"+o.Value)
	}
	require.Equal(t, []string{"channel:social", "fiscal_period:FY24", "fiscal_period:FY25", "fiscal_period:FY26"}, all)

	_, err = ParseYAMLOptionSource([]byte("channel:\n  - label: missing value\n"))
	require.Error(t, err)
}
