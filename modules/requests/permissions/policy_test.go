package permissions

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
)

func newTestPolicy(t *testing.T) (*Policy, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	p, err := NewPolicy(logger)
	require.NoError(t, err)
	return p, &buf
}

func ptr(v int64) *int64 { return &v }

func TestCapabilitiesOf(t *testing.T) {
	p, _ := newTestPolicy(t)

	tc := p.CapabilitiesOf(user.RoleTC)
	require.True(t, tc.Has(RequestCreate))
	require.False(t, tc.Has(RequestValidateFinance))
	require.False(t, tc.Has(RequestValidateDirector))

	admin := p.CapabilitiesOf(user.RoleAdmin)
	require.True(t, admin.HasAny(RequestCreateDirect))
	require.True(t, admin.Has(RequestPurge))
	require.False(t, admin.Has(RequestValidateDirector))
}

func TestCapabilitiesOf_UnknownRoleLogsAndReturnsEmpty(t *testing.T) {
	p, buf := newTestPolicy(t)

	set := p.CapabilitiesOf(user.Role("intern"))
	require.Equal(t, 0, set.Len())
	require.Contains(t, buf.String(), "unknown role")
}

func TestCanValidate_TCAlwaysFalse(t *testing.T) {
	p, _ := newTestPolicy(t)
	for _, status := range request.AllStatuses {
		require.False(t, p.CanValidate(user.RoleTC, status, 1, 1, ptr(1)))
		require.False(t, p.CanValidate(user.RoleTC, status, 1, 2, ptr(1)))
		require.False(t, p.CanValidate(user.RoleTC, status, 1, 2, nil))
	}
}

func TestCanValidate_DirectorStage(t *testing.T) {
	p, _ := newTestPolicy(t)
	const director, owner = int64(10), int64(20)

	require.True(t, p.CanValidate(user.RoleDirector, request.StatusPendingDirector, director, owner, ptr(director)))
	require.True(t, p.CanValidate(user.RoleDirector, request.StatusPendingDirector, director, director, nil))
	require.False(t, p.CanValidate(user.RoleDirector, request.StatusPendingDirector, director, owner, ptr(99)))
	require.False(t, p.CanValidate(user.RoleDirector, request.StatusPendingDirector, director, owner, nil))

	for _, status := range []request.Status{request.StatusDraft, request.StatusPendingFinance, request.StatusApproved, request.StatusRejected} {
		require.False(t, p.CanValidate(user.RoleDirector, status, director, owner, ptr(director)), status)
	}

	for _, role := range []user.Role{user.RoleFinanceDirector, user.RoleGeneralDirector, user.RoleAdmin} {
		require.False(t, p.CanValidate(role, request.StatusPendingDirector, director, owner, ptr(director)), role)
	}
}

func TestCanValidate_FinanceStageIgnoresOwnership(t *testing.T) {
	p, _ := newTestPolicy(t)
	for _, role := range []user.Role{user.RoleFinanceDirector, user.RoleGeneralDirector, user.RoleAdmin} {
		require.True(t, p.CanValidate(role, request.StatusPendingFinance, 5, 6, nil), role)
	}
	require.False(t, p.CanValidate(user.RoleDirector, request.StatusPendingFinance, 5, 6, ptr(5)))
}

func TestCanSubmitFor(t *testing.T) {
	p, _ := newTestPolicy(t)

	allowed, pre := p.CanSubmitFor(user.RoleTC, 1, 1, ptr(2))
	require.True(t, allowed)
	require.False(t, pre)

	allowed, pre = p.CanSubmitFor(user.RoleDirector, 2, 1, ptr(2))
	require.True(t, allowed)
	require.True(t, pre)

	allowed, pre = p.CanSubmitFor(user.RoleDirector, 2, 2, nil)
	require.True(t, allowed)
	require.True(t, pre)

	allowed, _ = p.CanSubmitFor(user.RoleDirector, 3, 1, ptr(2))
	require.False(t, allowed)

	allowed, _ = p.CanSubmitFor(user.RoleAdmin, 3, 1, ptr(2))
	require.False(t, allowed)
}

func TestCanEdit(t *testing.T) {
	p, _ := newTestPolicy(t)

	require.True(t, p.CanEdit(user.RoleTC, request.StatusDraft, 1, 1))
	require.False(t, p.CanEdit(user.RoleTC, request.StatusPendingDirector, 1, 1))
	require.False(t, p.CanEdit(user.RoleTC, request.StatusDraft, 2, 1))
	require.True(t, p.CanEdit(user.RoleAdmin, request.StatusApproved, 2, 1))
}

func TestCanView(t *testing.T) {
	p, _ := newTestPolicy(t)

	require.True(t, p.CanView(user.RoleTC, 1, 1, nil, nil))
	require.True(t, p.CanView(user.RoleTC, 3, 1, []int64{3}, nil))
	require.False(t, p.CanView(user.RoleTC, 3, 1, []int64{4}, ptr(3)))
	require.True(t, p.CanView(user.RoleDirector, 3, 1, nil, ptr(3)))
	require.False(t, p.CanView(user.RoleDirector, 3, 1, nil, ptr(4)))
	require.True(t, p.CanView(user.RoleFinanceDirector, 3, 1, nil, nil))
}

func TestCanAccessPage(t *testing.T) {
	p, buf := newTestPolicy(t)

	require.True(t, p.CanAccessPage(user.RoleTC, "/requests/42"))
	require.True(t, p.CanAccessPage(user.RoleTC, "/requests/new"))
	require.False(t, p.CanAccessPage(user.RoleTC, "/validations"))
	require.False(t, p.CanAccessPage(user.RoleTC, "/admin/direct"))
	require.True(t, p.CanAccessPage(user.RoleDirector, "/validations"))
	require.True(t, p.CanAccessPage(user.RoleAdmin, "/admin/requests/7/purge"))
	require.False(t, p.CanAccessPage(user.RoleFinanceDirector, "/audit"))
	require.True(t, p.CanAccessPage(user.RoleGeneralDirector, "/audit"))
	require.False(t, p.CanAccessPage(user.RoleAdmin, "/does-not-exist"))

	require.False(t, p.CanAccessPage(user.Role("ghost"), "/"))
	require.Contains(t, buf.String(), "unknown role")
}

func TestVisibilityScope(t *testing.T) {
	p, _ := newTestPolicy(t)

	require.Equal(t, request.Scope{OwnerID: 4}, p.VisibilityScope(user.RoleTC, 4))
	require.Equal(t, request.Scope{OwnerID: 4, ManagerID: 4}, p.VisibilityScope(user.RoleDirector, 4))
	require.Equal(t, request.Scope{All: true}, p.VisibilityScope(user.RoleGeneralDirector, 4))
}
