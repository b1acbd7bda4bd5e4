package permissions

import (
	"fmt"
	"slices"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
)

const pageModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj)
`

// Policy answers role and relationship questions about requests. It holds
// no mutable state after construction and is safe for concurrent use.
type Policy struct {
	sets     map[user.Role]CapabilitySet
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
}

// NewPolicy builds the policy from the canonical role table.
func NewPolicy(logger *logrus.Logger) (*Policy, error) {
	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "requests.permissions")
	} else {
		entry = logrus.WithField("component", "requests.permissions")
	}

	m, err := model.NewModelFromString(pageModel)
	if err != nil {
		return nil, fmt.Errorf("permissions: invalid page model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("permissions: failed to initialize enforcer: %w", err)
	}

	sets := make(map[user.Role]CapabilitySet, len(roleCapabilities))
	var rules [][]string
	for _, role := range user.AllRoles {
		set := newCapabilitySet(roleCapabilities[role])
		sets[role] = set
		for _, rule := range pageRules {
			if set.HasAny(rule.anyOf...) {
				rules = append(rules, []string{string(role), rule.pattern})
			}
		}
	}
	if len(rules) > 0 {
		if _, err := enf.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("permissions: failed to load page policies: %w", err)
		}
	}

	return &Policy{sets: sets, enforcer: enf, logger: entry}, nil
}

// CapabilitiesOf returns the capability set of role. Unknown roles get an
// empty set.
func (p *Policy) CapabilitiesOf(role user.Role) CapabilitySet {
	set, ok := p.sets[role]
	if !ok {
		p.logger.WithField("role", role).Error("unknown role has no capabilities")
		return CapabilitySet{}
	}
	return set
}

func (p *Policy) Has(role user.Role, c Capability) bool {
	return p.CapabilitiesOf(role).Has(c)
}

// CanAccessPage reports whether role may open the given route.
func (p *Policy) CanAccessPage(role user.Role, path string) bool {
	if _, ok := p.sets[role]; !ok {
		p.logger.WithFields(logrus.Fields{"role": role, "path": path}).Error("page check for unknown role")
		return false
	}
	allowed, err := p.enforcer.Enforce(string(role), path)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"role": role, "path": path}).Error("page check failed")
		return false
	}
	return allowed
}

// CanValidate reports whether the actor may decide the stage a request in
// status is waiting on. The director stage is reserved to directors who own
// the request or manage its owner; the finance stage only needs the
// capability.
func (p *Policy) CanValidate(role user.Role, status request.Status, actorID, ownerID int64, managerID *int64) bool {
	stage, ok := status.Stage()
	if !ok {
		return false
	}
	caps := p.CapabilitiesOf(role)
	switch stage {
	case request.StageDirector:
		if !caps.Has(RequestValidateDirector) {
			return false
		}
		return actorID == ownerID || isManager(actorID, managerID)
	case request.StageFinance:
		return caps.Has(RequestValidateFinance)
	default:
		return false
	}
}

// CanSubmitFor reports whether the actor may submit a draft owned by
// ownerID, and whether the submission pre-validates the director stage.
func (p *Policy) CanSubmitFor(role user.Role, actorID, ownerID int64, managerID *int64) (allowed, preValidates bool) {
	caps := p.CapabilitiesOf(role)
	isDirector := caps.Has(RequestValidateDirector)
	if actorID == ownerID {
		return caps.Has(RequestCreate), isDirector
	}
	if isDirector && isManager(actorID, managerID) {
		return true, true
	}
	return false, false
}

// CanEdit reports whether the actor may change the request's fields.
func (p *Policy) CanEdit(role user.Role, status request.Status, actorID, ownerID int64) bool {
	if p.Has(role, RequestEditAny) {
		return true
	}
	return actorID == ownerID && status == request.StatusDraft
}

// CanView reports whether the actor may read the request.
func (p *Policy) CanView(role user.Role, actorID, ownerID int64, participantIDs []int64, managerID *int64) bool {
	if actorID == ownerID || slices.Contains(participantIDs, actorID) {
		return true
	}
	caps := p.CapabilitiesOf(role)
	if caps.Has(RequestViewAll) {
		return true
	}
	return caps.Has(RequestViewTeam) && isManager(actorID, managerID)
}

// VisibilityScope returns the dashboard scope matching the actor's view
// capabilities.
func (p *Policy) VisibilityScope(role user.Role, actorID int64) request.Scope {
	caps := p.CapabilitiesOf(role)
	if caps.Has(RequestViewAll) {
		return request.Scope{All: true}
	}
	scope := request.Scope{OwnerID: actorID}
	if caps.Has(RequestViewTeam) {
		scope.ManagerID = actorID
	}
	return scope
}

func isManager(actorID int64, managerID *int64) bool {
	return managerID != nil && *managerID == actorID
}
