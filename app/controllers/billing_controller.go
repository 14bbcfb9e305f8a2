package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/approval"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/tenantkv"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// planView is the catalog row rendered on the plans page.
type planView struct {
	ID             string
	Name           string
	Tier           int
	MonthlyPrice   float64
	AnnualPrice    float64
	TriennialPrice float64
	Current        bool
}

// HandleBillingPlans lists the plans the tenant's account type may buy.
func HandleBillingPlans(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	sub, err := entitlementService().Subscription(userCtx.TenantSlug, userCtx.AccountType)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load subscription"}).Redirect("/")
	}

	catalog := plans.ForAccountType(userCtx.AccountType)
	views := make([]planView, 0, len(catalog))
	for _, p := range catalog {
		views = append(views, planView{
			ID:             p.ID,
			Name:           p.Name,
			Tier:           int(p.Tier),
			MonthlyPrice:   plans.Price(p, plans.PeriodMonthly),
			AnnualPrice:    plans.Price(p, plans.PeriodAnnual),
			TriennialPrice: plans.Price(p, plans.PeriodTriennial),
			Current:        p.ID == sub.PlanID,
		})
	}

	return c.Render("billing/plans", fiber.Map{
		"Title":     "Plans",
		"Plans":     views,
		"Period":    sub.BillingPeriod,
		"FlashData": flash.Get(c),
	}, "layouts/main")
}

// HandleBillingSubscription shows the tenant's subscription, its effective
// limits and any feature grants layered on top.
func HandleBillingSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	p := userCtx.Principal()

	svc := entitlementService()
	sub, err := svc.Subscription(userCtx.TenantSlug, userCtx.AccountType)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load subscription"}).Redirect("/")
	}

	eff, err := svc.EffectiveLimits(p)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not evaluate entitlements"}).Redirect("/")
	}

	granted, _ := grantService().ActiveGrants(userCtx.TenantSlug)

	return c.Render("billing/subscription", fiber.Map{
		"Title":         "Subscription",
		"Subscription":  sub,
		"Plan":          plans.ByID(sub.PlanID),
		"PeriodLabel":   plans.PeriodLabel(sub.BillingPeriod),
		"Features":      eff.Features,
		"Limits":        eff.Limits,
		"Grants":        granted,
		"TrialDaysLeft": sub.TrialDaysLeft(time.Now()),
		"FlashData":     flash.Get(c),
	}, "layouts/main")
}

// HandleBillingCheckout creates a plan-upgrade request that enters the
// approval pipeline. Regular members create requests their company admin
// must approve; admins may submit direct upgrades that enter at platform
// review.
func HandleBillingCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	p := userCtx.Principal()
	fm := fiber.Map{"type": "error"}

	planID := c.FormValue("plan_id")
	period := c.FormValue("billing_period", plans.PeriodMonthly)
	direct := c.FormValue("direct") == "1"

	plan := plans.ByID(planID)
	if plan.ID != planID {
		fm["message"] = "Unknown plan"
		return flash.WithError(c, fm).Redirect("/billing/plans")
	}
	if !plans.ValidPeriod(period) {
		fm["message"] = "Unknown billing period"
		return flash.WithError(c, fm).Redirect("/billing/plans")
	}

	sub, err := entitlementService().Subscription(userCtx.TenantSlug, userCtx.AccountType)
	if err != nil {
		fm["message"] = "Could not load subscription"
		return flash.WithError(c, fm).Redirect("/billing/plans")
	}

	tx, err := approvalService().Create(p, approval.CreateRequest{
		Kind:        models.TxKindPlanUpgrade,
		Amount:      plans.Price(plan, period),
		Method:      c.FormValue("method", "invoice"),
		PlanFrom:    sub.PlanID,
		PlanTo:      plan.ID,
		AccountType: userCtx.AccountType,
		PayerEmail:  userCtx.Email,
		RequestedBy: userCtx.Email,
		TenantSlug:  userCtx.TenantSlug,
		Direct:      direct,
	})
	if err != nil {
		fm["message"] = "Could not create upgrade request"
		return flash.WithError(c, fm).Redirect("/billing/plans")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Upgrade request " + tx.PublicID + " created.",
	}
	return flash.WithSuccess(c, fm).Redirect("/transactions")
}

// HandleBillingStartTrial begins the 14-day enterprise trial. Company
// admins only.
func HandleBillingStartTrial(c *fiber.Ctx) error {
	return mutateSubscription(c, "Trial started.", func(tenantSlug string) error {
		_, err := entitlementService().StartTrial(tenantSlug)
		return err
	})
}

// HandleBillingDowngrade drops the tenant to its category floor plan.
func HandleBillingDowngrade(c *fiber.Ctx) error {
	return mutateSubscription(c, "Plan downgraded.", func(tenantSlug string) error {
		_, err := entitlementService().Downgrade(tenantSlug)
		return err
	})
}

// HandleBillingCancel marks the subscription canceled.
func HandleBillingCancel(c *fiber.Ctx) error {
	return mutateSubscription(c, "Subscription canceled.", func(tenantSlug string) error {
		_, err := entitlementService().Cancel(tenantSlug)
		return err
	})
}

// HandleBillingPeriod changes the billing cadence.
func HandleBillingPeriod(c *fiber.Ctx) error {
	period := c.FormValue("billing_period")
	return mutateSubscription(c, "Billing period changed.", func(tenantSlug string) error {
		_, err := entitlementService().SetBillingPeriod(tenantSlug, period)
		return err
	})
}

// mutateSubscription runs a subscription change for the session's tenant.
// Company admin rank is required; the cached snapshot is invalidated so the
// next request sees the new state.
func mutateSubscription(c *fiber.Ctx, successMsg string, change func(tenantSlug string) error) error {
	userCtx := usercontext.GetUserContext(c)
	fm := fiber.Map{"type": "error"}

	if principal.IsAuditor(userCtx.Role) || !principal.AtLeast(userCtx.Role, principal.RoleAdmin) {
		fm["message"] = "Only company admins may change the subscription"
		return flash.WithError(c, fm).Redirect("/billing/subscription")
	}

	if err := change(userCtx.TenantSlug); err != nil {
		fm["message"] = "Subscription change failed"
		return flash.WithError(c, fm).Redirect("/billing/subscription")
	}

	tenantkv.Delete(tenantkv.SubscriptionKey, userCtx.TenantSlug)

	fm = fiber.Map{
		"type":    "success",
		"message": successMsg,
	}
	return flash.WithSuccess(c, fm).Redirect("/billing/subscription")
}
