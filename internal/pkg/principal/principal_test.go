package principal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdering(t *testing.T) {
	for i := 1; i < len(AllRoles); i++ {
		assert.Greater(t, Rank(AllRoles[i]), Rank(AllRoles[i-1]),
			"%s should outrank %s", AllRoles[i], AllRoles[i-1])
	}
	// The external auditor sits above admin but below superadmin.
	assert.Greater(t, Rank(RoleAuditorExternal), Rank(RoleAdmin))
	assert.Greater(t, Rank(RoleSuperadmin), Rank(RoleAuditorExternal))
}

func TestUnknownRoleRanksAsGuest(t *testing.T) {
	assert.Equal(t, Rank(RoleGuest), Rank(Role("intern")))
	assert.False(t, Valid(Role("intern")))
	assert.True(t, Valid(RoleManager))
}

func TestAtLeast(t *testing.T) {
	assert.True(t, AtLeast(RoleAdmin, RoleManager))
	assert.True(t, AtLeast(RoleAdmin, RoleAdmin))
	assert.False(t, AtLeast(RoleManager, RoleAdmin))
	assert.True(t, AtLeast(RoleSuperadmin, RoleAuditorExternal))
}

func TestAuditorsAreReadOnly(t *testing.T) {
	for _, r := range []Role{RoleAuditorInternal, RoleAuditorExternal} {
		assert.True(t, IsAuditor(r))
		assert.False(t, CanEdit(r), "%s must not edit", r)
		assert.False(t, CanDelete(r), "%s must not delete", r)
		assert.False(t, CanAssignRole(r, RoleUser), "%s must not assign roles", r)
	}
	assert.False(t, IsAuditor(RoleAdmin))
}

func TestCanEditAndDelete(t *testing.T) {
	assert.False(t, CanEdit(RoleGuest))
	assert.True(t, CanEdit(RoleUser))
	assert.True(t, CanEdit(RoleSuperadmin))

	assert.False(t, CanDelete(RoleUser))
	assert.True(t, CanDelete(RoleManager))
	assert.True(t, CanDelete(RoleAdmin))
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(RoleAdmin, RoleManager))
	assert.True(t, CanAssignRole(RoleAdmin, RoleAdmin))
	assert.False(t, CanAssignRole(RoleManager, RoleUser))

	// Only a superadmin can mint another superadmin.
	assert.False(t, CanAssignRole(RoleAdmin, RoleSuperadmin))
	assert.False(t, CanAssignRole(RoleAuditorExternal, RoleSuperadmin))
	assert.True(t, CanAssignRole(RoleSuperadmin, RoleSuperadmin))
}

func TestPrincipalHelpers(t *testing.T) {
	p := Principal{Role: RoleUser, TenantID: "acme.com", UserID: "john@acme.com"}
	assert.False(t, p.IsSuperadmin())
	assert.True(t, p.SameTenant("acme.com"))
	assert.False(t, p.SameTenant("other.com"))
	assert.False(t, Principal{}.SameTenant(""))

	anon := Anonymous()
	assert.Equal(t, RoleGuest, anon.Role)
	assert.Equal(t, "guest", anon.TenantID)

	sa := Principal{Role: RoleSuperadmin, TenantID: "platform", UserID: "ops@strefex.com"}
	assert.True(t, sa.IsSuperadmin())
}
