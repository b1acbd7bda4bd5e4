package permissions

import (
	"slices"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
)

type Capability string

const (
	RequestCreate           Capability = "request.create"
	RequestViewOwn          Capability = "request.view_own"
	RequestViewTeam         Capability = "request.view_team"
	RequestViewAll          Capability = "request.view_all"
	RequestEditAny          Capability = "request.edit_any"
	RequestValidateDirector Capability = "request.validate_director"
	RequestValidateFinance  Capability = "request.validate_finance"
	RequestCreateDirect     Capability = "request.create_direct"
	RequestPurge            Capability = "request.purge"
	OptionsManage           Capability = "options.manage"
	UsersManage             Capability = "users.manage"
	ReportsView             Capability = "reports.view"
	AuditView               Capability = "audit.view"
)

// roleCapabilities is the single source of truth for what each role holds.
// Admins do not hold the director capability: the director stage belongs to
// the owner's line manager.
var roleCapabilities = map[user.Role][]Capability{
	user.RoleTC: {
		RequestCreate,
		RequestViewOwn,
	},
	user.RoleDirector: {
		RequestCreate,
		RequestViewOwn,
		RequestViewTeam,
		RequestValidateDirector,
		ReportsView,
	},
	user.RoleFinanceDirector: {
		RequestCreate,
		RequestViewOwn,
		RequestViewAll,
		RequestValidateFinance,
		ReportsView,
	},
	user.RoleGeneralDirector: {
		RequestCreate,
		RequestViewOwn,
		RequestViewAll,
		RequestValidateFinance,
		ReportsView,
		AuditView,
	},
	user.RoleAdmin: {
		RequestCreate,
		RequestViewOwn,
		RequestViewTeam,
		RequestViewAll,
		RequestEditAny,
		RequestValidateFinance,
		RequestCreateDirect,
		RequestPurge,
		OptionsManage,
		UsersManage,
		ReportsView,
		AuditView,
	},
}

type pageRule struct {
	pattern string
	anyOf   []Capability
}

// pageRules maps routes (casbin keyMatch2 patterns) to the capabilities
// that open them.
var pageRules = []pageRule{
	{pattern: "/", anyOf: []Capability{RequestViewOwn}},
	{pattern: "/requests", anyOf: []Capability{RequestViewOwn}},
	{pattern: "/requests/new", anyOf: []Capability{RequestCreate}},
	{pattern: "/requests/:id", anyOf: []Capability{RequestViewOwn, RequestViewAll}},
	{pattern: "/requests/:id/edit", anyOf: []Capability{RequestCreate, RequestEditAny}},
	{pattern: "/validations", anyOf: []Capability{RequestValidateDirector, RequestValidateFinance}},
	{pattern: "/reports", anyOf: []Capability{ReportsView}},
	{pattern: "/audit", anyOf: []Capability{AuditView}},
	{pattern: "/admin/options", anyOf: []Capability{OptionsManage}},
	{pattern: "/admin/users", anyOf: []Capability{UsersManage}},
	{pattern: "/admin/direct", anyOf: []Capability{RequestCreateDirect}},
	{pattern: "/admin/requests/:id/purge", anyOf: []Capability{RequestPurge}},
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	caps []Capability
}

func newCapabilitySet(caps []Capability) CapabilitySet {
	sorted := slices.Clone(caps)
	slices.Sort(sorted)
	return CapabilitySet{caps: slices.Compact(sorted)}
}

func (s CapabilitySet) Has(c Capability) bool {
	_, found := slices.BinarySearch(s.caps, c)
	return found
}

func (s CapabilitySet) HasAny(cs ...Capability) bool {
	for _, c := range cs {
		if s.Has(c) {
			return true
		}
	}
	return false
}

func (s CapabilitySet) Len() int {
	return len(s.caps)
}

// List returns the capabilities in lexical order.
func (s CapabilitySet) List() []Capability {
	return slices.Clone(s.caps)
}
