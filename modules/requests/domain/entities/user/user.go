package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/iota-uz/approvals/pkg/serrors"
)

var ErrUserNotFound = serrors.NewError("NOT_FOUND", "user not found", "Users.Errors.NotFound")

type Role string

const (
	RoleTC              Role = "tc"
	RoleDirector        Role = "director"
	RoleFinanceDirector Role = "finance-director"
	RoleGeneralDirector Role = "general-director"
	RoleAdmin           Role = "admin"
)

var AllRoles = []Role{RoleTC, RoleDirector, RoleFinanceDirector, RoleGeneralDirector, RoleAdmin}

// ParseRole rejects anything outside the closed role set.
func ParseRole(v string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range AllRoles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", v)
}

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	ManagerID *int64 `json:"manager_id,omitempty"`
	Region    string `json:"region,omitempty"`
	Active    bool   `json:"active"`
}

// Directory is the read-only view of user accounts the workflow consumes.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	UsersByRoleAndRegion(ctx context.Context, role Role, region string) ([]*User, error)
	IsActive(ctx context.Context, id int64) (bool, error)
}
