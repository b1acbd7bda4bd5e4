package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
	"github.com/iota-uz/approvals/modules/requests/permissions"
	"github.com/iota-uz/approvals/pkg/composables"
	"github.com/iota-uz/approvals/pkg/eventbus"
	"github.com/iota-uz/approvals/pkg/serrors"
)

const tracerName = "github.com/iota-uz/approvals/modules/requests/services"

// Transactor runs fn as one atomic unit of work. Repositories called with
// the context handed to fn take part in it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type WorkflowDeps struct {
	Tx          Transactor
	Requests    request.Repository
	Validations validation.Repository
	Directory   user.Directory
	Policy      *permissions.Policy
	Payloads    *PayloadValidator
	Audit       *AuditLogger
	Notifier    *NotificationDispatcher
	Events      eventbus.Bus[*TransitionEvent]
	Logger      *logrus.Logger
	Clock       func() time.Time
}

// WorkflowEngine applies request transitions. Every transition is guarded
// by the permission policy, committed in a single transaction together with
// its validation records, and followed by audit, notification and event
// side effects that cannot fail the call.
type WorkflowEngine struct {
	tx          Transactor
	requests    request.Repository
	validations validation.Repository
	directory   user.Directory
	policy      *permissions.Policy
	payloads    *PayloadValidator
	audit       *AuditLogger
	notifier    *NotificationDispatcher
	events      eventbus.Bus[*TransitionEvent]
	logger      *logrus.Entry
	clock       func() time.Time
	tracer      trace.Tracer
}

func NewWorkflowEngine(deps WorkflowDeps) *WorkflowEngine {
	clock := deps.Clock
	if clock == nil {
		clock = utcNow
	}
	return &WorkflowEngine{
		tx:          deps.Tx,
		requests:    deps.Requests,
		validations: deps.Validations,
		directory:   deps.Directory,
		policy:      deps.Policy,
		payloads:    deps.Payloads,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		events:      deps.Events,
		logger:      componentLogger(deps.Logger, "requests.workflow"),
		clock:       clock,
		tracer:      otel.Tracer(tracerName),
	}
}

// DirectParams describes an administrative direct creation.
type DirectParams struct {
	// OnBehalfOf is the owner of the new request; the admin when nil.
	OnBehalfOf *int64
	// DirectorID names the director credited with the director stage.
	DirectorID  *int64
	Payload     request.Payload
	AutoApprove bool
	Comment     string
}

// outcome is what a committed transition hands to the post-commit phase.
type outcome struct {
	req           *request.Request
	owner         *user.User
	from          request.Status
	transition    Transition
	actions       []auditlog.Action
	namedDirector *int64
}

// CreateDraft persists a new draft owned by the actor.
func (e *WorkflowEngine) CreateDraft(ctx context.Context, actor Actor, payload request.Payload) (*request.Request, error) {
	ctx, span := e.start(ctx, "CreateDraft", actor, 0)
	defer span.End()

	r, err := e.createDraft(ctx, actor, payload)
	return r, e.finish(ctx, span, "create_draft", err)
}

func (e *WorkflowEngine) createDraft(ctx context.Context, actor Actor, payload request.Payload) (*request.Request, error) {
	if !e.policy.Has(actor.Role, permissions.RequestCreate) {
		return nil, permissionDenied("role %s may not create requests", actor.Role)
	}
	if err := e.payloads.Validate(ctx, &payload); err != nil {
		return nil, err
	}

	r := request.New(actor.ID, actor.ID, payload, e.clock())
	if err := e.tx.InTx(ctx, func(txCtx context.Context) error {
		return e.requests.Create(txCtx, r)
	}); err != nil {
		return nil, err
	}

	e.afterCommit(ctx, actor, outcome{
		req:        r,
		transition: TransitionCreated,
		actions:    []auditlog.Action{auditlog.ActionCreated},
	})
	return r, nil
}

// UpdateDraft replaces the payload of a request the actor may edit. Status
// and stage decisions are untouched.
func (e *WorkflowEngine) UpdateDraft(ctx context.Context, actor Actor, requestID int64, payload request.Payload) (*request.Request, error) {
	ctx, span := e.start(ctx, "UpdateDraft", actor, requestID)
	defer span.End()

	r, err := e.updateDraft(ctx, actor, requestID, payload)
	return r, e.finish(ctx, span, "update_draft", err)
}

func (e *WorkflowEngine) updateDraft(ctx context.Context, actor Actor, requestID int64, payload request.Payload) (*request.Request, error) {
	if err := e.payloads.Validate(ctx, &payload); err != nil {
		return nil, err
	}

	var (
		r      *request.Request
		before request.Payload
	)
	err := e.tx.InTx(ctx, func(txCtx context.Context) error {
		var err error
		if r, err = e.requests.GetForUpdate(txCtx, requestID); err != nil {
			return err
		}
		before = r.Payload
		if !e.policy.CanEdit(actor.Role, r.Status, actor.ID, r.OwnerID) {
			return permissionDenied("user %d may not edit request %d while %s", actor.ID, r.ID, r.Status)
		}
		if payload.Kind != r.Kind && r.Status != request.StatusDraft {
			return ErrInvalidTransition.WithMessage("kind of request %d is fixed once submitted", r.ID)
		}
		r.Payload = payload
		r.UpdatedAt = e.clock()
		return e.requests.Update(txCtx, r)
	})
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("%s request #%d fields updated", r.Kind, r.ID)
	if fields, err := changedFields(before, r.Payload); err != nil {
		e.logger.WithError(err).WithField("request_id", r.ID).Warn("payload diff failed")
	} else if len(fields) > 0 {
		detail += ": " + strings.Join(fields, ", ")
	}
	requestID = r.ID
	e.audit.Append(ctx, actor.ID, &requestID, auditlog.ActionUpdated, detail)
	return r, nil
}

// Submit moves a draft into validation. Only the owner may submit, or a
// director who owns the draft or manages its owner; in the director case a
// budget request's director stage is recorded with the submission.
func (e *WorkflowEngine) Submit(ctx context.Context, actor Actor, requestID int64) (*request.Request, error) {
	ctx, span := e.start(ctx, "Submit", actor, requestID)
	defer span.End()

	r, err := e.submit(ctx, actor, requestID)
	return r, e.finish(ctx, span, "submit", err)
}

func (e *WorkflowEngine) submit(ctx context.Context, actor Actor, requestID int64) (*request.Request, error) {
	var out outcome
	err := e.tx.InTx(ctx, func(txCtx context.Context) error {
		r, err := e.requests.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		owner, err := e.directory.GetByID(txCtx, r.OwnerID)
		if err != nil {
			return err
		}

		allowed, preValidates := e.policy.CanSubmitFor(actor.Role, actor.ID, r.OwnerID, owner.ManagerID)
		if !allowed {
			return permissionDenied("user %d may not submit request %d", actor.ID, r.ID)
		}
		if r.Status != request.StatusDraft {
			return ErrInvalidTransition.WithMessage("request %d is %s, only drafts can be submitted", r.ID, r.Status)
		}

		preValidates = preValidates && r.Kind.RequiresDirectorStage()
		if preValidates {
			active, err := e.directory.IsActive(txCtx, actor.ID)
			if err != nil {
				return err
			}
			if !active {
				if actor.ID != r.OwnerID {
					return permissionDenied("inactive director %d cannot submit for others", actor.ID)
				}
				preValidates = false
			}
		}

		var by *int64
		if preValidates {
			by = &actor.ID
		}
		from := r.Status
		if err := r.Submit(e.clock(), by, ""); err != nil {
			return err
		}
		if err := e.recordStages(txCtx, r, request.StageDirector); err != nil {
			return err
		}
		if err := e.requests.Update(txCtx, r); err != nil {
			return err
		}

		actions := []auditlog.Action{auditlog.ActionSubmitted}
		if r.DirectorStage != nil {
			actions = append(actions, auditlog.ActionDirectorApproved)
		}
		out = outcome{req: r, owner: owner, from: from, transition: TransitionSubmitted, actions: actions}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, actor, out)
	return out.req, nil
}

// Validate records the actor's decision on the stage the request awaits.
func (e *WorkflowEngine) Validate(ctx context.Context, actor Actor, requestID int64, decision request.Decision, comment string) (*request.Request, error) {
	ctx, span := e.start(ctx, "Validate", actor, requestID)
	defer span.End()
	span.SetAttributes(attribute.String("decision", string(decision)))

	r, err := e.validate(ctx, actor, requestID, decision, strings.TrimSpace(comment))
	return r, e.finish(ctx, span, "validate", err)
}

func (e *WorkflowEngine) validate(ctx context.Context, actor Actor, requestID int64, decision request.Decision, comment string) (*request.Request, error) {
	decision, err := request.ParseDecision(string(decision))
	if err != nil {
		return nil, validationFailed(serrors.ValidationErrors{"decision": err.Error()})
	}

	var out outcome
	err = e.tx.InTx(ctx, func(txCtx context.Context) error {
		r, err := e.requests.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if !r.Status.IsPending() {
			return ErrInvalidTransition.WithMessage("request %d is %s and awaits no validation", r.ID, r.Status)
		}
		owner, err := e.directory.GetByID(txCtx, r.OwnerID)
		if err != nil {
			return err
		}

		if !e.policy.CanValidate(actor.Role, r.Status, actor.ID, r.OwnerID, owner.ManagerID) {
			if stage, ok := e.decidedStageOf(actor, r); ok {
				return ErrInvalidTransition.WithMessage("%s stage of request %d is already validated", stage, r.ID)
			}
			return permissionDenied("user %d may not validate request %d while %s", actor.ID, r.ID, r.Status)
		}
		active, err := e.directory.IsActive(txCtx, actor.ID)
		if err != nil {
			return err
		}
		if !active {
			return permissionDenied("inactive user %d cannot validate", actor.ID)
		}

		from := r.Status
		stage, err := r.Decide(actor.ID, decision, comment, e.clock())
		if err != nil {
			return err
		}
		if err := e.recordStages(txCtx, r, stage); err != nil {
			return err
		}
		if err := e.requests.Update(txCtx, r); err != nil {
			return err
		}

		out = outcome{req: r, owner: owner, from: from}
		switch {
		case decision == request.DecisionReject:
			out.transition, out.actions = TransitionRejected, []auditlog.Action{auditlog.ActionRejected}
		case stage == request.StageDirector:
			out.transition, out.actions = TransitionDirectorApproved, []auditlog.Action{auditlog.ActionDirectorApproved}
		default:
			out.transition, out.actions = TransitionFinanceApproved, []auditlog.Action{auditlog.ActionFinanceApproved}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, actor, out)
	return out.req, nil
}

// CreateDirect is the administrative shortcut creating a request on behalf
// of a user, optionally approving every stage at once.
func (e *WorkflowEngine) CreateDirect(ctx context.Context, actor Actor, params DirectParams) (*request.Request, error) {
	ctx, span := e.start(ctx, "CreateDirect", actor, 0)
	defer span.End()
	span.SetAttributes(attribute.Bool("auto_approve", params.AutoApprove))

	r, err := e.createDirect(ctx, actor, params)
	return r, e.finish(ctx, span, "create_direct", err)
}

func (e *WorkflowEngine) createDirect(ctx context.Context, actor Actor, params DirectParams) (*request.Request, error) {
	if !e.policy.Has(actor.Role, permissions.RequestCreateDirect) {
		return nil, permissionDenied("role %s may not create requests directly", actor.Role)
	}
	payload := params.Payload
	if err := e.payloads.Validate(ctx, &payload); err != nil {
		return nil, err
	}
	ownerID := actor.ID
	if params.OnBehalfOf != nil {
		ownerID = *params.OnBehalfOf
	}
	comment := strings.TrimSpace(params.Comment)

	var out outcome
	err := e.tx.InTx(ctx, func(txCtx context.Context) error {
		owner, err := e.directory.GetByID(txCtx, ownerID)
		if err != nil {
			return err
		}
		if owner.ID != actor.ID && !owner.Active {
			return validationFailed(serrors.ValidationErrors{"on_behalf_of": "user is inactive"})
		}
		if params.DirectorID != nil {
			director, err := e.directory.GetByID(txCtx, *params.DirectorID)
			if err != nil {
				return err
			}
			if director.Role != user.RoleDirector || !director.Active {
				return validationFailed(serrors.ValidationErrors{"director_id": "must reference an active director"})
			}
		}

		now := e.clock()
		r := request.New(ownerID, actor.ID, payload, now)
		out = outcome{req: r, owner: owner, from: request.StatusDraft, namedDirector: params.DirectorID}
		if params.AutoApprove {
			if err := r.ApproveAll(actor.ID, comment, now); err != nil {
				return err
			}
			out.transition = TransitionDirectApproved
			out.actions = []auditlog.Action{auditlog.ActionDirectApproved}
		} else {
			if err := r.Submit(now, params.DirectorID, comment); err != nil {
				return err
			}
			out.transition = TransitionSubmitted
			out.actions = []auditlog.Action{auditlog.ActionDirectCreated, auditlog.ActionSubmitted}
			if r.DirectorStage != nil {
				out.actions = append(out.actions, auditlog.ActionDirectorApproved)
			}
		}

		if err := e.requests.Create(txCtx, r); err != nil {
			return err
		}
		return e.recordStages(txCtx, r, r.Kind.Stages()...)
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, actor, out)
	return out.req, nil
}

// recordStages writes a validation record for every listed stage that has
// a decision on r.
func (e *WorkflowEngine) recordStages(ctx context.Context, r *request.Request, stages ...request.Stage) error {
	for _, stage := range stages {
		rec := validation.FromStage(r, stage)
		if rec == nil {
			continue
		}
		if err := e.validations.Create(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// decidedStageOf returns a stage of r the actor's role could have decided
// that already carries a decision. It tells a repeated validation apart
// from an unauthorized one.
func (e *WorkflowEngine) decidedStageOf(actor Actor, r *request.Request) (request.Stage, bool) {
	caps := e.policy.CapabilitiesOf(actor.Role)
	for _, stage := range r.Kind.Stages() {
		if r.DecisionFor(stage) == nil {
			continue
		}
		if stage == request.StageDirector && caps.Has(permissions.RequestValidateDirector) {
			return stage, true
		}
		if stage == request.StageFinance && caps.Has(permissions.RequestValidateFinance) {
			return stage, true
		}
	}
	return "", false
}

// afterCommit runs the side effects of a committed transition. Nothing in
// here may fail the call.
func (e *WorkflowEngine) afterCommit(ctx context.Context, actor Actor, out outcome) {
	r := out.req
	requestID := r.ID
	detail := fmt.Sprintf("%s request #%d %s -> %s", r.Kind, r.ID, statusOrNone(out.from), r.Status)
	for _, action := range out.actions {
		e.audit.Append(ctx, actor.ID, &requestID, action, detail)
	}

	notified := 0
	if out.owner != nil {
		recipients := e.recipientsFor(ctx, r, out.owner, out.transition, out.namedDirector)
		notified = e.notifier.Dispatch(ctx, r, out.transition, recipients)
	}

	if e.events != nil {
		e.events.Publish(ctx, &TransitionEvent{
			EventID:    uuid.New(),
			RequestID:  r.ID,
			ActorID:    actor.ID,
			Transition: out.transition,
			From:       out.from,
			To:         r.Status,
			Notified:   notified,
			OccurredAt: r.UpdatedAt,
		})
	}
}

func (e *WorkflowEngine) start(ctx context.Context, op string, actor Actor, requestID int64) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, "WorkflowEngine."+op)
	span.SetAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	)
	if requestID != 0 {
		span.SetAttributes(attribute.Int64("request.id", requestID))
	}
	return ctx, span
}

func (e *WorkflowEngine) finish(ctx context.Context, span trace.Span, operation string, err error) error {
	if err == nil {
		recordTransition(operation, "ok")
		return nil
	}
	err = classify(err)
	code := serrors.Code(err)
	recordTransition(operation, strings.ToLower(code))
	span.RecordError(err)
	span.SetStatus(codes.Error, code)

	log := composables.UseLogger(ctx, e.logger).WithError(err).WithField("operation", operation)
	switch ErrorKind(code) {
	case KindPersistenceFailure:
		log.Error("workflow operation failed")
	case KindPermissionDenied:
		log.Warn("workflow operation denied")
	default:
		log.Debug("workflow operation rejected")
	}
	return err
}

func statusOrNone(s request.Status) string {
	if s == "" {
		return "none"
	}
	return string(s)
}
