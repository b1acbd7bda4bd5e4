// Package inmem is a transactional in-memory implementation of the requests
// persistence contracts, used by tests and the CLI's --memory mode.
package inmem

import (
	"context"
	"maps"
	"sync"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/auditlog"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/validation"
)

// Operation names accepted by Store.FailOn.
const (
	OpRequestCreate      = "request.create"
	OpRequestUpdate      = "request.update"
	OpValidationCreate   = "validation.create"
	OpNotificationCreate = "notification.create"
	OpAuditCreate        = "audit.create"
)

type txMarker struct{}

type state struct {
	seq           int64
	requests      map[int64]*request.Request
	validations   map[int64]*validation.Record
	notifications map[int64]*notification.Notification
	audit         map[int64]*auditlog.Entry
	users         map[int64]*user.User
	options       map[string][]option.Option
}

func newState() *state {
	return &state{
		requests:      make(map[int64]*request.Request),
		validations:   make(map[int64]*validation.Record),
		notifications: make(map[int64]*notification.Notification),
		audit:         make(map[int64]*auditlog.Entry),
		users:         make(map[int64]*user.User),
		options:       make(map[string][]option.Option),
	}
}

// snapshot copies the maps; stored values are replaced, never mutated in
// place, so sharing them between snapshots is safe.
func (s *state) snapshot() *state {
	cp := &state{
		seq:           s.seq,
		requests:      maps.Clone(s.requests),
		validations:   maps.Clone(s.validations),
		notifications: maps.Clone(s.notifications),
		audit:         maps.Clone(s.audit),
		users:         maps.Clone(s.users),
		options:       make(map[string][]option.Option, len(s.options)),
	}
	for k, v := range s.options {
		cp.options[k] = append([]option.Option(nil), v...)
	}
	return cp
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store serializes every transaction behind one mutex. A failed
// transaction restores the snapshot taken when it began.
type Store struct {
	mu    sync.Mutex
	data  *state
	fails map[string]error
}

func NewStore() *Store {
	return &Store{
		data:  newState(),
		fails: make(map[string]error),
	}
}

// InTx runs fn atomically. Calls made with the context passed to fn join
// the transaction; nested InTx calls run inline.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.data.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, s)); err != nil {
		s.data = before
		return err
	}
	return nil
}

// FailOn makes every later op return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txMarker{}).(*Store)
	return ok && owner == s
}

// do runs fn against the current state, inside the caller's transaction
// when there is one.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) fail(op string) error {
	return s.fails[op]
}

func (s *Store) Requests() *RequestRepository {
	return &RequestRepository{store: s}
}

func (s *Store) Validations() *ValidationRepository {
	return &ValidationRepository{store: s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{store: s}
}

func (s *Store) AuditLog() *AuditRepository {
	return &AuditRepository{store: s}
}

func (s *Store) Directory() *Directory {
	return &Directory{store: s}
}

func (s *Store) Options() *OptionSource {
	return &OptionSource{store: s}
}
