package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/internal/pkg/principal"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsLoggedIn  bool   `json:"is_logged_in"`
	Role        principal.Role `json:"role"`
	TenantSlug  string `json:"tenant_slug"`
	TenantName  string `json:"tenant_name"`
	AccountType string `json:"account_type"`
}

// Principal converts the request context into the explicit principal value
// the entitlement engine, visibility filter and approval pipeline consume.
func (uc UserContext) Principal() principal.Principal {
	if !uc.IsLoggedIn {
		return principal.Anonymous()
	}
	return principal.Principal{
		Role:     uc.Role,
		TenantID: uc.TenantSlug,
		UserID:   uc.Email,
	}
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, Role: principal.RoleGuest}
}

// GetPrincipal returns the acting principal for the current request.
func GetPrincipal(c *fiber.Ctx) principal.Principal {
	return GetUserContext(c).Principal()
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsSuperadmin checks if the current user holds platform-wide authority
func IsSuperadmin(c *fiber.Ctx) bool {
	return GetUserContext(c).Role == principal.RoleSuperadmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetTenantSlug returns the current tenant slug, or "guest"
func GetTenantSlug(c *fiber.Ctx) string {
	if uc := GetUserContext(c); uc.IsLoggedIn {
		return uc.TenantSlug
	}
	return "guest"
}
