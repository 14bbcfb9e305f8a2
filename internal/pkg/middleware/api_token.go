package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/internal/pkg/env"
	"github.com/strefex/strefex/internal/pkg/metrics/counter"
	"github.com/strefex/strefex/internal/pkg/security"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// APITokenMiddleware authenticates requests carrying a bearer token issued
// at login. The token embeds the caller's role and tenant, so API handlers
// see the same principal a web session would produce.
func APITokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing bearer token"})
		}

		claims, err := security.ValidateAPIToken(token, env.GetEnv("JWT_SECRET", ""))
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Token expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
		}

		p := claims.Principal()
		userCtx := usercontext.UserContext{
			UserID:     claims.UserID,
			Email:      claims.Subject,
			IsLoggedIn: true,
			Role:       p.Role,
			TenantSlug: p.TenantID,
		}
		c.Locals(usercontext.KeyUserContext, userCtx)
		c.Locals(usercontext.KeyFromProtected, true)

		_ = counter.AddAPIRequest(p.TenantID)

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Get("X-API-Token"))
}
