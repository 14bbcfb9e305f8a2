package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// HandleStart renders the start page. Logged-in users see their tenant and
// current plan.
func HandleStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	data := fiber.Map{
		"Title":      "STREFEX",
		"IsLoggedIn": userCtx.IsLoggedIn,
		"FlashData":  flash.Get(c),
	}

	if userCtx.IsLoggedIn {
		if sub, err := entitlementService().Subscription(userCtx.TenantSlug, userCtx.AccountType); err == nil {
			data["TenantName"] = userCtx.TenantName
			data["Plan"] = plans.ByID(sub.PlanID).Name
			data["Role"] = string(userCtx.Role)
		}
	}

	return c.Render("index", data, "layouts/main")
}

// HandleAbout renders the static about page.
func HandleAbout(c *fiber.Ctx) error {
	return c.Render("about", fiber.Map{
		"Title":     "About",
		"FlashData": flash.Get(c),
	}, "layouts/main")
}
