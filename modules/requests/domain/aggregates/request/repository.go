package request

import (
	"context"

	"github.com/shopspring/decimal"
)

// Scope restricts aggregate queries to the requests an actor may see.
// All wins over the other fields; otherwise requests owned by OwnerID, or
// owned by users whose manager is ManagerID, are included.
type Scope struct {
	All       bool
	OwnerID   int64
	ManagerID int64
}

type FindParams struct {
	Scope    Scope
	Statuses []Status
	Limit    int
	Offset   int
}

type Counts struct {
	Draft             int64           `json:"draft"`
	Pending           int64           `json:"pending"`
	Approved          int64           `json:"approved"`
	Rejected          int64           `json:"rejected"`
	ApprovedAmountSum decimal.Decimal `json:"approved_amount_sum"`
}

// Dependencies counts the rows tied to a request that a purge removes.
type Dependencies struct {
	Participants  int64 `json:"participants"`
	Validations   int64 `json:"validations"`
	Notifications int64 `json:"notifications"`
	AuditEntries  int64 `json:"audit_entries"`
}

func (d Dependencies) Total() int64 {
	return d.Participants + d.Validations + d.Notifications + d.AuditEntries
}

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	// GetForUpdate reads the request and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Request, error)
	Update(ctx context.Context, r *Request) error
	List(ctx context.Context, params *FindParams) ([]*Request, error)
	Counts(ctx context.Context, scope Scope) (Counts, error)
	Dependencies(ctx context.Context, id int64) (Dependencies, error)
	Delete(ctx context.Context, id int64) error
}
