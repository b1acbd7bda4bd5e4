package persistence

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
)

const selectUserColumns = `SELECT id, name, email, role, manager_id, region, active FROM users`

type UserDirectory struct{}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{}
}

func scanUser(row rowScanner) (*user.User, error) {
	var m models.User
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.ManagerID, &m.Region, &m.Active); err != nil {
		return nil, err
	}
	return toDomainUser(&m), nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	u, err := scanUser(tx.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound.WithMessage("user %d not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get user %d", id)
	}
	return u, nil
}

// UsersByRoleAndRegion matches every region when region is blank.
func (d *UserDirectory) UsersByRoleAndRegion(ctx context.Context, role user.Role, region string) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, selectUserColumns+`
		WHERE role = $1 AND ($2 = '' OR lower(region) = lower($2))
		ORDER BY id`,
		string(role), region,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating users")
	}
	return out, nil
}

func (d *UserDirectory) IsActive(ctx context.Context, id int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var active bool
	if err := tx.QueryRow(ctx, `SELECT active FROM users WHERE id = $1`, id).Scan(&active); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return false, user.ErrUserNotFound.WithMessage("user %d not found", id)
		}
		return false, errors.Wrapf(err, "failed to check user %d", id)
	}
	return active, nil
}

// Save inserts or replaces u; used by the CLI seeding commands.
func (d *UserDirectory) Save(ctx context.Context, u *user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if u.ID == 0 {
		return errors.Wrap(tx.QueryRow(ctx, `
			INSERT INTO users (name, email, role, manager_id, region, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			u.Name, u.Email, string(u.Role), u.ManagerID, u.Region, u.Active,
		).Scan(&u.ID), "failed to insert user")
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, role, manager_id, region, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role,
			manager_id = EXCLUDED.manager_id, region = EXCLUDED.region, active = EXCLUDED.active`,
		u.ID, u.Name, u.Email, string(u.Role), u.ManagerID, u.Region, u.Active,
	)
	return errors.Wrapf(err, "failed to save user %d", u.ID)
}
