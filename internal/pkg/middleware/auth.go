package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireRole gates a route to sessions at or above the given role rank.
func RequireRole(required principal.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := c.Locals(usercontext.KeyFromProtected)
		loggedIn := false
		if b, ok := v.(bool); ok {
			loggedIn = b
		}
		if !loggedIn {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		p := usercontext.GetPrincipal(c)
		if !principal.AtLeast(p.Role, required) {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireSuperadmin ensures a logged-in superadmin; redirects otherwise.
// Rank comparison is not enough here because auditor_external outranks
// admin without holding platform powers.
func RequireSuperadmin(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if !usercontext.IsSuperadmin(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	v := c.Locals(usercontext.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}
