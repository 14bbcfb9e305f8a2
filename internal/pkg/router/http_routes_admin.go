package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/app/controllers"
	"github.com/strefex/strefex/internal/pkg/constants"
	"github.com/strefex/strefex/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group(constants.AdminRoute, middleware.RequireSuperadmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// Tenant and user administration
	adminGroup.Get("/tenants", controllers.HandleAdminTenants)
	adminGroup.Post("/tenants/:tenant/overrides", controllers.HandleAdminSetOverrides)
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Post("/users/:userID/role", controllers.HandleAdminAssignRole)

	// Feature grants
	adminGroup.Get("/grants", controllers.HandleAdminGrants)
	adminGroup.Post("/grants", controllers.HandleAdminGrantCreate)
	adminGroup.Post("/grants/:grantID/revoke", controllers.HandleAdminGrantRevoke)
	adminGroup.Post("/grants/:grantID/extend", controllers.HandleAdminGrantExtend)
}
