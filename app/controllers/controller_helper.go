package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/approval"
	"github.com/strefex/strefex/internal/pkg/database"
	"github.com/strefex/strefex/internal/pkg/entitlements"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// repos returns the shared repository bundle backed by the global database.
func repos() *repository.Repositories {
	return repository.GetGlobalFactory().GetRepositories()
}

func grantService() *grants.Service {
	r := repos()
	return grants.NewService(r.FeatureGrant, r.Subscription)
}

func entitlementService() *entitlements.Service {
	r := repos()
	return entitlements.NewService(r.Subscription, grantService())
}

func approvalService() *approval.Service {
	r := repos()
	return approval.NewService(r.Transaction, entitlementService())
}

func databaseReady() bool {
	return database.GetDB() != nil
}

// serviceError maps domain errors onto HTTP status codes for JSON handlers.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, approval.ErrPermissionDenied),
		errors.Is(err, grants.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": err.Error(),
		})
	case errors.Is(err, approval.ErrInvalidState),
		errors.Is(err, entitlements.ErrPlanNotAllowed),
		errors.Is(err, grants.ErrFeatureNotGrantable),
		errors.Is(err, grants.ErrGrantNotExtendable),
		errors.Is(err, approval.ErrNoAssignee):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "invalid_state",
			"message": err.Error(),
		})
	case errors.Is(err, repository.ErrStaleTransaction):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "stale_version",
			"message": "transaction was modified concurrently, reload and retry",
		})
	case errors.Is(err, approval.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": err.Error(),
		})
	}
}
