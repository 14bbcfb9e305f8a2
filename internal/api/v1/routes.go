package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// ServerInterface is the contract the router binds; public/docs/v1 holds
// the matching OpenAPI document.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetMe(c *fiber.Ctx) error
	GetPlans(c *fiber.Ctx) error
	GetSubscription(c *fiber.Ctx) error
	GetHasFeature(c *fiber.Ctx, key string) error
	GetWithinLimit(c *fiber.Ctx, key string) error
	GetEntitlements(c *fiber.Ctx) error
	GetTransactions(c *fiber.Ctx) error
	GetTransaction(c *fiber.Ctx, publicID string) error
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Get("/me", si.GetMe)
	router.Get("/plans", si.GetPlans)
	router.Get("/subscription", si.GetSubscription)
	router.Get("/entitlements", si.GetEntitlements)
	router.Get("/entitlements/features/:key", func(c *fiber.Ctx) error {
		return si.GetHasFeature(c, c.Params("key"))
	})
	router.Get("/entitlements/limits/:key", func(c *fiber.Ctx) error {
		return si.GetWithinLimit(c, c.Params("key"))
	})
	router.Get("/transactions", si.GetTransactions)
	router.Get("/transactions/:id", func(c *fiber.Ctx) error {
		return si.GetTransaction(c, c.Params("id"))
	})
}
