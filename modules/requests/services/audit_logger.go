package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/pkg/composables"
)

// AuditLogger appends audit entries. Write failures are logged and counted
// but never returned: the audited fact has already been committed.
type AuditLogger struct {
	repo   auditlog.Repository
	logger *logrus.Entry
	clock  func() time.Time
}

func NewAuditLogger(repo auditlog.Repository, logger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		repo:   repo,
		logger: componentLogger(logger, "requests.audit"),
		clock:  utcNow,
	}
}

func (a *AuditLogger) Append(ctx context.Context, actorID int64, requestID *int64, action auditlog.Action, detail string) {
	entry := &auditlog.Entry{
		ActorID:   actorID,
		RequestID: requestID,
		Action:    action,
		Detail:    detail,
		CreatedAt: a.clock(),
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		recordSideEffectFailure("audit")
		composables.UseLogger(ctx, a.logger).WithError(err).WithFields(logrus.Fields{
			"actor_id":   actorID,
			"request_id": derefID(requestID),
			"action":     action,
		}).Error("failed to append audit entry")
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func componentLogger(logger *logrus.Logger, component string) *logrus.Entry {
	if logger == nil {
		return logrus.WithField("component", component)
	}
	return logger.WithField("component", component)
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
