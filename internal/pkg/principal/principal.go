package principal

// Role is an entry in the company role hierarchy. There is exactly one rank
// table; every permission check in the codebase goes through this package.
type Role string

const (
	RoleGuest           Role = "guest"
	RoleUser            Role = "user"
	RoleManager         Role = "manager"
	RoleAuditorInternal Role = "auditor_internal"
	RoleAdmin           Role = "admin"
	RoleAuditorExternal Role = "auditor_external"
	RoleSuperadmin      Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleGuest:           0,
	RoleUser:            1,
	RoleManager:         2,
	RoleAuditorInternal: 3,
	RoleAdmin:           4,
	RoleAuditorExternal: 5,
	RoleSuperadmin:      6,
}

// AllRoles lists every valid role, lowest rank first.
var AllRoles = []Role{
	RoleGuest, RoleUser, RoleManager, RoleAuditorInternal,
	RoleAdmin, RoleAuditorExternal, RoleSuperadmin,
}

// Rank returns the numeric rank of a role; unknown roles rank as guest.
func Rank(r Role) int {
	return roleRank[r]
}

// Valid reports whether r is a known role.
func Valid(r Role) bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r meets or exceeds the required role's rank.
func AtLeast(r, required Role) bool {
	return Rank(r) >= Rank(required)
}

// IsAuditor reports whether the role is one of the two read-only auditor
// roles. Auditors have elevated read access but can never modify or approve.
func IsAuditor(r Role) bool {
	return r == RoleAuditorInternal || r == RoleAuditorExternal
}

// CanEdit reports whether the role may modify records at all.
func CanEdit(r Role) bool {
	if IsAuditor(r) {
		return false
	}
	return AtLeast(r, RoleUser)
}

// CanDelete reports whether the role may delete records.
func CanDelete(r Role) bool {
	if IsAuditor(r) {
		return false
	}
	return AtLeast(r, RoleManager)
}

// CanAssignRole reports whether an actor may assign the target role to
// another identity. The superadmin role can only be handed out by an
// existing superadmin; everything else requires admin rank.
func CanAssignRole(actor, target Role) bool {
	if IsAuditor(actor) {
		return false
	}
	if target == RoleSuperadmin {
		return actor == RoleSuperadmin
	}
	return AtLeast(actor, RoleAdmin)
}

// Principal is the acting identity of a request: who, in which tenant, with
// which role. It is passed explicitly into every entitlement and visibility
// call instead of being read from ambient session state.
type Principal struct {
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
}

// Anonymous is the principal used when nobody is logged in.
func Anonymous() Principal {
	return Principal{Role: RoleGuest, TenantID: "guest", UserID: ""}
}

// IsSuperadmin reports whether the principal holds platform-wide authority.
func (p Principal) IsSuperadmin() bool {
	return p.Role == RoleSuperadmin
}

// SameTenant reports whether the principal belongs to the given tenant.
func (p Principal) SameTenant(tenantID string) bool {
	return p.TenantID != "" && p.TenantID == tenantID
}
