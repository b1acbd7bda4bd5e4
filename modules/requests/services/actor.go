package services

import (
	"context"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
)

// Actor is the identity every workflow call acts on behalf of.
type Actor struct {
	ID        int64     `json:"id"`
	Role      user.Role `json:"role"`
	ManagerID *int64    `json:"manager_id,omitempty"`
	Region    string    `json:"region,omitempty"`
}

func ActorFromUser(u *user.User) Actor {
	return Actor{
		ID:        u.ID,
		Role:      u.Role,
		ManagerID: u.ManagerID,
		Region:    u.Region,
	}
}

// ActorResolver turns a user id coming from a session or CLI flag into an
// Actor, rejecting unknown and inactive accounts.
type ActorResolver struct {
	directory user.Directory
}

func NewActorResolver(directory user.Directory) *ActorResolver {
	return &ActorResolver{directory: directory}
}

func (r *ActorResolver) Resolve(ctx context.Context, userID int64) (Actor, error) {
	u, err := r.directory.GetByID(ctx, userID)
	if err != nil {
		return Actor{}, classify(err)
	}
	if !u.Active {
		return Actor{}, permissionDenied("user %d is inactive", userID)
	}
	if _, err := user.ParseRole(string(u.Role)); err != nil {
		return Actor{}, permissionDenied("user %d has %v", userID, err)
	}
	return ActorFromUser(u), nil
}
