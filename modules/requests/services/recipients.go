package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/pkg/composables"
)

var financePool = []user.Role{user.RoleFinanceDirector, user.RoleGeneralDirector}

// recipientsFor computes who hears about a committed transition. Lookup
// failures shrink the list instead of failing the call.
func (e *WorkflowEngine) recipientsFor(ctx context.Context, r *request.Request, owner *user.User, transition Transition, namedDirector *int64) []int64 {
	switch transition {
	case TransitionSubmitted, TransitionDirectorApproved:
		switch r.Status {
		case request.StatusPendingDirector:
			if owner.ManagerID != nil {
				return []int64{*owner.ManagerID}
			}
			return e.activeUsers(ctx, owner.Region, user.RoleDirector)
		case request.StatusPendingFinance:
			return e.activeUsers(ctx, owner.Region, financePool...)
		}
		return nil
	case TransitionFinanceApproved:
		out := []int64{r.OwnerID}
		if r.DirectorStage != nil {
			out = append(out, r.DirectorStage.ValidatorID)
		}
		return out
	case TransitionRejected:
		return []int64{r.OwnerID}
	case TransitionDirectApproved:
		var out []int64
		if namedDirector != nil {
			out = append(out, *namedDirector)
		}
		out = append(out, r.OwnerID)
		return append(out, e.activeUsers(ctx, owner.Region, owner.Role)...)
	default:
		return nil
	}
}

func (e *WorkflowEngine) activeUsers(ctx context.Context, region string, roles ...user.Role) []int64 {
	var out []int64
	for _, role := range roles {
		users, err := e.directory.UsersByRoleAndRegion(ctx, role, region)
		if err != nil {
			recordSideEffectFailure("recipients")
			composables.UseLogger(ctx, e.logger).WithError(err).WithFields(logrus.Fields{
				"role":   role,
				"region": region,
			}).Error("failed to resolve notification recipients")
			continue
		}
		for _, u := range users {
			if u.Active {
				out = append(out, u.ID)
			}
		}
	}
	return out
}
