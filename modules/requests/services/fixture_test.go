package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/inmem"
	"github.com/iota-uz/approvals/modules/requests/permissions"
	"github.com/iota-uz/approvals/pkg/eventbus"
)

const (
	tcID            int64 = 1
	directorID      int64 = 2
	financeID       int64 = 3
	generalID       int64 = 4
	adminID         int64 = 5
	otherDirectorID int64 = 6
	loneTCID        int64 = 7
)

type fixture struct {
	ctx         context.Context
	store       *inmem.Store
	events      eventbus.Bus[*TransitionEvent]
	engine      *WorkflowEngine
	dashboard   *DashboardService
	maintenance *MaintenanceService
	actors      map[int64]Actor
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := inmem.NewStore()
	logger := quietLogger()

	manager := directorID
	users := []*user.User{
		{ID: tcID, Name: "Tess", Role: user.RoleTC, ManagerID: &manager, Region: "north", Active: true},
		{ID: directorID, Name: "Dana", Role: user.RoleDirector, Region: "north", Active: true},
		{ID: financeID, Name: "Fin", Role: user.RoleFinanceDirector, Region: "north", Active: true},
		{ID: generalID, Name: "Gene", Role: user.RoleGeneralDirector, Region: "north", Active: true},
		{ID: adminID, Name: "Ada", Role: user.RoleAdmin, Region: "north", Active: true},
		{ID: otherDirectorID, Name: "Odin", Role: user.RoleDirector, Region: "south", Active: true},
		{ID: loneTCID, Name: "Lone", Role: user.RoleTC, Region: "south", Active: true},
	}
	for _, u := range users {
		require.NoError(t, store.Directory().Put(ctx, u))
	}
	for _, o := range []option.Option{
		{Category: option.CategoryFiscalPeriod, Value: "FY26", Position: 2, Active: true},
		{Category: option.CategoryFiscalPeriod, Value: "FY25", Position: 1, Active: true},
		{Category: option.CategoryBudgetType, Value: "opex", Active: true},
		{Category: option.CategoryChannel, Value: "social", Active: true},
	} {
		require.NoError(t, store.Options().Put(ctx, o))
	}

	policy, err := permissions.NewPolicy(logger)
	require.NoError(t, err)
	fiscal := NewFiscalPeriodResolver(store.Options())
	audit := NewAuditLogger(store.AuditLog(), logger)
	events := eventbus.NewEventPublisher[*TransitionEvent](logger)

	engine := NewWorkflowEngine(WorkflowDeps{
		Tx:          store,
		Requests:    store.Requests(),
		Validations: store.Validations(),
		Directory:   store.Directory(),
		Policy:      policy,
		Payloads:    NewPayloadValidator(store.Options(), fiscal, nil),
		Audit:       audit,
		Notifier:    NewNotificationDispatcher(store.Notifications(), "EUR", logger),
		Events:      events,
		Logger:      logger,
	})

	actors := make(map[int64]Actor, len(users))
	for _, u := range users {
		actors[u.ID] = ActorFromUser(u)
	}
	return &fixture{
		ctx:         ctx,
		store:       store,
		events:      events,
		engine:      engine,
		dashboard:   NewDashboardService(store.Requests(), store.Directory(), policy, logger),
		maintenance: NewMaintenanceService(store, store.Requests(), policy, audit, events, logger),
		actors:      actors,
	}
}

func budgetPayload(amount string) request.Payload {
	return request.Payload{
		Kind:            request.KindBudget,
		Title:           "Team offsite",
		Counterpart:     "Hotel Nord",
		Location:        "Oslo",
		Amount:          decimal.RequireFromString(amount),
		EventDate:       time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		Classifications: map[string]string{option.CategoryBudgetType: "opex"},
		Participants:    []int64{tcID},
	}
}

func marketingPayload(amount string) request.Payload {
	p := budgetPayload(amount)
	p.Kind = request.KindMarketing
	p.Classifications = map[string]string{option.CategoryChannel: "social"}
	return p
}

func (f *fixture) draft(t *testing.T, owner int64, p request.Payload) *request.Request {
	t.Helper()
	r, err := f.engine.CreateDraft(f.ctx, f.actors[owner], p)
	require.NoError(t, err)
	return r
}

func (f *fixture) submitted(t *testing.T, owner int64, p request.Payload) *request.Request {
	t.Helper()
	r, err := f.engine.Submit(f.ctx, f.actors[owner], f.draft(t, owner, p).ID)
	require.NoError(t, err)
	return r
}

func (f *fixture) notificationsOf(t *testing.T, userID int64) []string {
	t.Helper()
	ns, err := f.store.Notifications().ListByUser(f.ctx, userID, false)
	require.NoError(t, err)
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, string(n.Category))
	}
	return out
}
