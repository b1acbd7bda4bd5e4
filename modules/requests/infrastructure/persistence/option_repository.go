package persistence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
)

// OptionRepository is the database-backed option.Source.
type OptionRepository struct{}

func NewOptionRepository() *OptionRepository {
	return &OptionRepository{}
}

func (g *OptionRepository) IsAllowed(ctx context.Context, category, value string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var allowed bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM options WHERE category = $1 AND value = $2 AND active)`,
		category, value,
	).Scan(&allowed); err != nil {
		return false, errors.Wrapf(err, "failed to check option %s/%s", category, value)
	}
	return allowed, nil
}

func (g *OptionRepository) ActiveOptions(ctx context.Context, category string) ([]option.Option, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, `
		SELECT category, value, label, position, active
		FROM options
		WHERE category = $1 AND active
		ORDER BY position, id`,
		category,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query options")
	}
	defer rows.Close()

	var out []option.Option
	for rows.Next() {
		var m models.Option
		if err := rows.Scan(&m.Category, &m.Value, &m.Label, &m.Position, &m.Active); err != nil {
			return nil, errors.Wrap(err, "failed to scan option")
		}
		out = append(out, toDomainOption(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating options")
	}
	return out, nil
}

// Upsert inserts or replaces an option by (category, value).
func (g *OptionRepository) Upsert(ctx context.Context, o option.Option) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO options (category, value, label, position, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category, value) DO UPDATE SET
			label = EXCLUDED.label, position = EXCLUDED.position, active = EXCLUDED.active`,
		o.Category, o.Value, o.Label, o.Position, o.Active,
	)
	return errors.Wrapf(err, "failed to upsert option %s/%s", o.Category, o.Value)
}
