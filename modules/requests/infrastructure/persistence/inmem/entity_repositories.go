package inmem

import (
	"cmp"
	"context"
	"slices"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
)

type ValidationRepository struct {
	store *Store
}

// Create enforces one record per (request, stage).
func (r *ValidationRepository) Create(ctx context.Context, rec *validation.Record) error {
	return r.store.do(ctx, func(st *state) error {
		if err := r.store.fail(OpValidationCreate); err != nil {
			return err
		}
		if _, ok := st.requests[rec.RequestID]; !ok {
			return request.ErrRequestNotFound.WithMessage("request %d not found", rec.RequestID)
		}
		for _, existing := range st.validations {
			if existing.RequestID == rec.RequestID && existing.Stage == rec.Stage {
				return validation.ErrDuplicateRecord.WithMessage("%s stage of request %d already recorded", rec.Stage, rec.RequestID)
			}
		}
		rec.ID = st.nextID()
		cp := *rec
		st.validations[rec.ID] = &cp
		return nil
	})
}

func (r *ValidationRepository) ListByRequest(ctx context.Context, requestID int64) ([]*validation.Record, error) {
	var out []*validation.Record
	err := r.store.do(ctx, func(st *state) error {
		for _, rec := range st.validations {
			if rec.RequestID == requestID {
				cp := *rec
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *validation.Record) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

type NotificationRepository struct {
	store *Store
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.store.do(ctx, func(st *state) error {
		if err := r.store.fail(OpNotificationCreate); err != nil {
			return err
		}
		n.ID = st.nextID()
		cp := *n
		st.notifications[n.ID] = &cp
		return nil
	})
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	var out []*notification.Notification
	err := r.store.do(ctx, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID != userID || (unreadOnly && n.Read) {
				continue
			}
			cp := *n
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *notification.Notification) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return out, err
}

type AuditRepository struct {
	store *Store
}

func (r *AuditRepository) Create(ctx context.Context, e *auditlog.Entry) error {
	return r.store.do(ctx, func(st *state) error {
		if err := r.store.fail(OpAuditCreate); err != nil {
			return err
		}
		e.ID = st.nextID()
		cp := *e
		st.audit[e.ID] = &cp
		return nil
	})
}

// List returns matching entries in insertion order.
func (r *AuditRepository) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.Entry, error) {
	if params == nil {
		params = &auditlog.FindParams{}
	}
	var out []*auditlog.Entry
	err := r.store.do(ctx, func(st *state) error {
		for _, e := range st.audit {
			if params.RequestID != nil && !refersTo(e.RequestID, *params.RequestID) {
				continue
			}
			if params.ActorID != nil && e.ActorID != *params.ActorID {
				continue
			}
			cp := *e
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *auditlog.Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return page(out, params.Limit, params.Offset), nil
}
