package persistence

import (
	"context"

	"github.com/iota-uz/approvals/pkg/composables"
)

// Transactor opens pgx transactions on the pool bound to the context.
type Transactor struct{}

func NewTransactor() Transactor {
	return Transactor{}
}

func (Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTx(ctx, fn)
}
