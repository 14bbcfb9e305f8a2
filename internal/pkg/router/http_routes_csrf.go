package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/strefex/strefex/app/controllers"
	"github.com/strefex/strefex/internal/pkg/constants"
	"github.com/strefex/strefex/internal/pkg/env"
	"github.com/strefex/strefex/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), constants.APIRoute+"/") || strings.HasPrefix(c.Path(), constants.WebhooksRoute+"/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.HomeRoute, loggedInMiddleware, controllers.HandleStart)
	group.Get(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)

	// Bearer token issuance for API clients
	group.Post(constants.TokenRoute, middleware.RequireAuth, controllers.HandleAPIToken)

	// Billing and plan management
	group.Get("/billing/plans", middleware.RequireAuth, controllers.HandleBillingPlans)
	group.Get("/billing/subscription", middleware.RequireAuth, controllers.HandleBillingSubscription)
	group.Post("/billing/checkout", middleware.RequireAuth, controllers.HandleBillingCheckout)
	group.Post("/billing/trial", middleware.RequireAuth, controllers.HandleBillingStartTrial)
	group.Post("/billing/downgrade", middleware.RequireAuth, controllers.HandleBillingDowngrade)
	group.Post("/billing/cancel", middleware.RequireAuth, controllers.HandleBillingCancel)
	group.Post("/billing/period", middleware.RequireAuth, controllers.HandleBillingPeriod)

	// Transactions and the approval pipeline
	group.Get("/transactions", middleware.RequireAuth, controllers.HandleTransactions)
	group.Get("/transactions/:id", middleware.RequireAuth, controllers.HandleTransactionShow)
	group.Post("/transactions/:id/company-approve", middleware.RequireAuth, controllers.HandleTransactionCompanyApprove)
	group.Post("/transactions/:id/company-reject", middleware.RequireAuth, controllers.HandleTransactionCompanyReject)
	group.Post("/transactions/:id/mark-paid", middleware.RequireAuth, controllers.HandleTransactionMarkPaid)
	group.Post("/transactions/:id/platform-approve", middleware.RequireSuperadmin, controllers.HandleTransactionPlatformApprove)
	group.Post("/transactions/:id/platform-reject", middleware.RequireSuperadmin, controllers.HandleTransactionPlatformReject)
	group.Post("/transactions/:id/assign", middleware.RequireSuperadmin, controllers.HandleTaskAssign)
	group.Post("/transactions/:id/task-status", middleware.RequireAuth, controllers.HandleTaskStatus)
}
