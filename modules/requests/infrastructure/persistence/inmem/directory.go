package inmem

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
)

// Directory serves user lookups from the store.
type Directory struct {
	store *Store
}

// Put inserts or replaces u.
func (d *Directory) Put(ctx context.Context, u *user.User) error {
	return d.store.do(ctx, func(st *state) error {
		cp := *u
		st.users[u.ID] = &cp
		return nil
	})
}

func (d *Directory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var out *user.User
	err := d.store.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound.WithMessage("user %d not found", id)
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

// UsersByRoleAndRegion matches every region when region is blank.
func (d *Directory) UsersByRoleAndRegion(ctx context.Context, role user.Role, region string) ([]*user.User, error) {
	var out []*user.User
	err := d.store.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Role != role {
				continue
			}
			if region != "" && !strings.EqualFold(u.Region, region) {
				continue
			}
			cp := *u
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *user.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (d *Directory) IsActive(ctx context.Context, id int64) (bool, error) {
	u, err := d.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.Active, nil
}

// OptionSource serves the classification allow-lists from the store.
type OptionSource struct {
	store *Store
}

// Put appends o to its category.
func (s *OptionSource) Put(ctx context.Context, o option.Option) error {
	return s.store.do(ctx, func(st *state) error {
		st.options[o.Category] = append(slices.Clone(st.options[o.Category]), o)
		return nil
	})
}

func (s *OptionSource) IsAllowed(ctx context.Context, category, value string) (bool, error) {
	opts, err := s.ActiveOptions(ctx, category)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(opts, func(o option.Option) bool {
		return o.Value == value
	}), nil
}

func (s *OptionSource) ActiveOptions(ctx context.Context, category string) ([]option.Option, error) {
	var out []option.Option
	err := s.store.do(ctx, func(st *state) error {
		for _, o := range st.options[category] {
			if o.Active {
				out = append(out, o)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b option.Option) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return out, err
}
