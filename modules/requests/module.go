package requests

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
	"github.com/iota-uz/approvals/modules/requests/handlers"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/inmem"
	"github.com/iota-uz/approvals/modules/requests/permissions"
	"github.com/iota-uz/approvals/modules/requests/services"
	"github.com/iota-uz/approvals/pkg/eventbus"
)

type ModuleOptions struct {
	Tx            services.Transactor
	Requests      request.Repository
	Validations   validation.Repository
	Notifications notification.Repository
	AuditLog      auditlog.Repository
	Directory     user.Directory
	Options       option.Source
	// RequiredCategories overrides services.DefaultRequiredCategories.
	RequiredCategories map[request.Kind][]string
	Currency           string
	Logger             *logrus.Logger
}

// PostgresOptions wires the pgx repositories. Callers bind the pool to the
// context with composables.WithPool.
func PostgresOptions(options option.Source, currency string, logger *logrus.Logger) ModuleOptions {
	if options == nil {
		options = persistence.NewOptionRepository()
	}
	return ModuleOptions{
		Tx:            persistence.NewTransactor(),
		Requests:      persistence.NewRequestRepository(),
		Validations:   persistence.NewValidationRepository(),
		Notifications: persistence.NewNotificationRepository(),
		AuditLog:      persistence.NewAuditLogRepository(),
		Directory:     persistence.NewUserDirectory(),
		Options:       options,
		Currency:      currency,
		Logger:        logger,
	}
}

func MemoryOptions(store *inmem.Store, currency string, logger *logrus.Logger) ModuleOptions {
	return ModuleOptions{
		Tx:            store,
		Requests:      store.Requests(),
		Validations:   store.Validations(),
		Notifications: store.Notifications(),
		AuditLog:      store.AuditLog(),
		Directory:     store.Directory(),
		Options:       store.Options(),
		Currency:      currency,
		Logger:        logger,
	}
}

// Module is the assembled requests workflow.
type Module struct {
	Policy      *permissions.Policy
	Events      eventbus.Bus[*services.TransitionEvent]
	Actors      *services.ActorResolver
	Fiscal      *services.FiscalPeriodResolver
	Engine      *services.WorkflowEngine
	Dashboard   *services.DashboardService
	Maintenance *services.MaintenanceService
}

func NewModule(opts ModuleOptions) (*Module, error) {
	if opts.Tx == nil || opts.Requests == nil || opts.Validations == nil || opts.Notifications == nil ||
		opts.AuditLog == nil || opts.Directory == nil || opts.Options == nil {
		return nil, errors.New("requests: transactor, repositories and option source are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	policy, err := permissions.NewPolicy(logger)
	if err != nil {
		return nil, errors.Wrap(err, "requests: failed to build permission policy")
	}
	events := eventbus.NewEventPublisher[*services.TransitionEvent](logger)
	handlers.RegisterTransitionEventHandlers(events, logger)

	fiscal := services.NewFiscalPeriodResolver(opts.Options)
	audit := services.NewAuditLogger(opts.AuditLog, logger)

	return &Module{
		Policy: policy,
		Events: events,
		Actors: services.NewActorResolver(opts.Directory),
		Fiscal: fiscal,
		Engine: services.NewWorkflowEngine(services.WorkflowDeps{
			Tx:          opts.Tx,
			Requests:    opts.Requests,
			Validations: opts.Validations,
			Directory:   opts.Directory,
			Policy:      policy,
			Payloads:    services.NewPayloadValidator(opts.Options, fiscal, opts.RequiredCategories),
			Audit:       audit,
			Notifier:    services.NewNotificationDispatcher(opts.Notifications, opts.Currency, logger),
			Events:      events,
			Logger:      logger,
		}),
		Dashboard:   services.NewDashboardService(opts.Requests, opts.Directory, policy, logger),
		Maintenance: services.NewMaintenanceService(opts.Tx, opts.Requests, policy, audit, events, logger),
	}, nil
}

func (m *Module) Name() string {
	return "requests"
}
