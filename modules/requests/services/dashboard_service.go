package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/permissions"
)

// DashboardService serves the read side: counters and single requests,
// both restricted to what the actor may see.
type DashboardService struct {
	requests  request.Repository
	directory user.Directory
	policy    *permissions.Policy
	logger    *logrus.Entry
	tracer    trace.Tracer
}

func NewDashboardService(requests request.Repository, directory user.Directory, policy *permissions.Policy, logger *logrus.Logger) *DashboardService {
	return &DashboardService{
		requests:  requests,
		directory: directory,
		policy:    policy,
		logger:    componentLogger(logger, "requests.dashboard"),
		tracer:    otel.Tracer(tracerName),
	}
}

// DashboardCounts aggregates the requests visible to the actor: all of them
// for view-all roles, own and team for managers, own otherwise.
func (s *DashboardService) DashboardCounts(ctx context.Context, actor Actor) (request.Counts, error) {
	ctx, span := s.tracer.Start(ctx, "DashboardService.DashboardCounts")
	defer span.End()

	counts, err := s.requests.Counts(ctx, s.policy.VisibilityScope(actor.Role, actor.ID))
	if err != nil {
		return request.Counts{}, classify(err)
	}
	return counts, nil
}

// Get returns the request when the actor may view it. A request the actor
// cannot see is reported as denied, not as missing.
func (s *DashboardService) Get(ctx context.Context, actor Actor, requestID int64) (*request.Request, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, classify(err)
	}
	owner, err := s.directory.GetByID(ctx, r.OwnerID)
	if err != nil {
		return nil, classify(err)
	}
	if !s.policy.CanView(actor.Role, actor.ID, r.OwnerID, r.Participants, owner.ManagerID) {
		s.logger.WithField("actor_id", actor.ID).WithField("request_id", requestID).Debug("view denied")
		return nil, permissionDenied("user %d may not view request %d", actor.ID, requestID)
	}
	return r, nil
}

// List returns a page of the requests in the actor's visibility scope.
func (s *DashboardService) List(ctx context.Context, actor Actor, statuses []request.Status, limit, offset int) ([]*request.Request, error) {
	rs, err := s.requests.List(ctx, &request.FindParams{
		Scope:    s.policy.VisibilityScope(actor.Role, actor.ID),
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, classify(err)
	}
	return rs, nil
}
