package inmem

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
)

type RequestRepository struct {
	store *Store
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	return r.store.do(ctx, func(st *state) error {
		if err := r.store.fail(OpRequestCreate); err != nil {
			return err
		}
		req.ID = st.nextID()
		st.requests[req.ID] = req.Clone()
		return nil
	})
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var out *request.Request
	err := r.store.do(ctx, func(st *state) error {
		stored, ok := st.requests[id]
		if !ok {
			return request.ErrRequestNotFound.WithMessage("request %d not found", id)
		}
		out = stored.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions are already serialized.
func (r *RequestRepository) GetForUpdate(ctx context.Context, id int64) (*request.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *RequestRepository) Update(ctx context.Context, req *request.Request) error {
	return r.store.do(ctx, func(st *state) error {
		if err := r.store.fail(OpRequestUpdate); err != nil {
			return err
		}
		if _, ok := st.requests[req.ID]; !ok {
			return request.ErrRequestNotFound.WithMessage("request %d not found", req.ID)
		}
		st.requests[req.ID] = req.Clone()
		return nil
	})
}

func (r *RequestRepository) List(ctx context.Context, params *request.FindParams) ([]*request.Request, error) {
	if params == nil {
		params = &request.FindParams{Scope: request.Scope{All: true}}
	}
	var out []*request.Request
	err := r.store.do(ctx, func(st *state) error {
		for _, req := range st.requests {
			if !st.inScope(req, params.Scope) {
				continue
			}
			if len(params.Statuses) > 0 && !slices.Contains(params.Statuses, req.Status) {
				continue
			}
			out = append(out, req.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *request.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return page(out, params.Limit, params.Offset), nil
}

func (r *RequestRepository) Counts(ctx context.Context, scope request.Scope) (request.Counts, error) {
	counts := request.Counts{ApprovedAmountSum: decimal.Zero}
	err := r.store.do(ctx, func(st *state) error {
		for _, req := range st.requests {
			if !st.inScope(req, scope) {
				continue
			}
			switch {
			case req.Status == request.StatusDraft:
				counts.Draft++
			case req.Status.IsPending():
				counts.Pending++
			case req.Status == request.StatusApproved:
				counts.Approved++
				counts.ApprovedAmountSum = counts.ApprovedAmountSum.Add(req.Amount)
			case req.Status == request.StatusRejected:
				counts.Rejected++
			}
		}
		return nil
	})
	return counts, err
}

func (r *RequestRepository) Dependencies(ctx context.Context, id int64) (request.Dependencies, error) {
	var deps request.Dependencies
	err := r.store.do(ctx, func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return request.ErrRequestNotFound.WithMessage("request %d not found", id)
		}
		deps.Participants = int64(len(req.Participants))
		for _, v := range st.validations {
			if v.RequestID == id {
				deps.Validations++
			}
		}
		for _, n := range st.notifications {
			if refersTo(n.RequestID, id) {
				deps.Notifications++
			}
		}
		for _, e := range st.audit {
			if refersTo(e.RequestID, id) {
				deps.AuditEntries++
			}
		}
		return nil
	})
	return deps, err
}

// Delete removes the request and cascades to every row referencing it.
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.requests[id]; !ok {
			return request.ErrRequestNotFound.WithMessage("request %d not found", id)
		}
		delete(st.requests, id)
		maps.DeleteFunc(st.validations, func(_ int64, v *validation.Record) bool {
			return v.RequestID == id
		})
		maps.DeleteFunc(st.notifications, func(_ int64, n *notification.Notification) bool {
			return refersTo(n.RequestID, id)
		})
		maps.DeleteFunc(st.audit, func(_ int64, e *auditlog.Entry) bool {
			return refersTo(e.RequestID, id)
		})
		return nil
	})
}

func (st *state) inScope(req *request.Request, scope request.Scope) bool {
	if scope.All {
		return true
	}
	if scope.OwnerID != 0 && req.OwnerID == scope.OwnerID {
		return true
	}
	if scope.ManagerID == 0 {
		return false
	}
	owner, ok := st.users[req.OwnerID]
	return ok && owner.ManagerID != nil && *owner.ManagerID == scope.ManagerID
}

func refersTo(ref *int64, id int64) bool {
	return ref != nil && *ref == id
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
