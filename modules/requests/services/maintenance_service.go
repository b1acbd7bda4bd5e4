package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/permissions"
	"github.com/iota-uz/approvals/pkg/eventbus"
	"github.com/iota-uz/approvals/pkg/serrors"
)

// MaintenanceService hosts the administrative purge flow. It sits outside
// the workflow: a purge destroys the request and every row tied to it.
type MaintenanceService struct {
	tx       Transactor
	requests request.Repository
	policy   *permissions.Policy
	audit    *AuditLogger
	events   eventbus.Bus[*TransitionEvent]
	logger   *logrus.Entry
	tracer   trace.Tracer
}

func NewMaintenanceService(
	tx Transactor,
	requests request.Repository,
	policy *permissions.Policy,
	audit *AuditLogger,
	events eventbus.Bus[*TransitionEvent],
	logger *logrus.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		tx:       tx,
		requests: requests,
		policy:   policy,
		audit:    audit,
		events:   events,
		logger:   componentLogger(logger, "requests.maintenance"),
		tracer:   otel.Tracer(tracerName),
	}
}

// DependenciesOf counts the rows a purge of requestID would remove.
func (s *MaintenanceService) DependenciesOf(ctx context.Context, actor Actor, requestID int64) (request.Dependencies, error) {
	if !s.policy.Has(actor.Role, permissions.RequestPurge) {
		return request.Dependencies{}, permissionDenied("role %s may not inspect purge dependencies", actor.Role)
	}
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return request.Dependencies{}, classify(err)
	}
	deps, err := s.requests.Dependencies(ctx, requestID)
	if err != nil {
		return request.Dependencies{}, classify(err)
	}
	return deps, nil
}

// Purge deletes the request together with its participants, validation
// records, notifications and audit entries, and returns what was removed.
// The purge itself is audited afterwards without a request reference.
func (s *MaintenanceService) Purge(ctx context.Context, actor Actor, requestID int64) (request.Dependencies, error) {
	ctx, span := s.tracer.Start(ctx, "MaintenanceService.Purge")
	defer span.End()
	span.SetAttributes(attribute.Int64("request.id", requestID), attribute.Int64("actor.id", actor.ID))

	deps, from, err := s.purge(ctx, actor, requestID)
	if err != nil {
		err = classify(err)
		recordTransition("purge", strings.ToLower(serrors.Code(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "purge failed")
		return request.Dependencies{}, err
	}
	recordTransition("purge", "ok")

	s.audit.Append(ctx, actor.ID, nil, auditlog.ActionPurged, fmt.Sprintf(
		"purged request #%d (%s): %d participants, %d validations, %d notifications, %d audit entries",
		requestID, from, deps.Participants, deps.Validations, deps.Notifications, deps.AuditEntries,
	))
	s.logger.WithFields(logrus.Fields{
		"actor_id":   actor.ID,
		"request_id": requestID,
		"rows":       deps.Total(),
	}).Info("request purged")

	if s.events != nil {
		s.events.Publish(ctx, &TransitionEvent{
			EventID:    uuid.New(),
			RequestID:  requestID,
			ActorID:    actor.ID,
			Transition: TransitionPurged,
			From:       from,
			OccurredAt: utcNow(),
		})
	}
	return deps, nil
}

func (s *MaintenanceService) purge(ctx context.Context, actor Actor, requestID int64) (request.Dependencies, request.Status, error) {
	if !s.policy.Has(actor.Role, permissions.RequestPurge) {
		return request.Dependencies{}, "", permissionDenied("role %s may not purge requests", actor.Role)
	}
	var (
		deps request.Dependencies
		from request.Status
	)
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.GetForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		from = r.Status
		if deps, err = s.requests.Dependencies(txCtx, requestID); err != nil {
			return err
		}
		return s.requests.Delete(txCtx, requestID)
	})
	return deps, from, err
}
