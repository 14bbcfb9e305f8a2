package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/metrics/counter"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
	"github.com/strefex/strefex/internal/pkg/tenantkv"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// HandleAdminDashboard shows platform-wide approval and revenue state.
// Superadmin only (enforced by routing middleware).
func HandleAdminDashboard(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	svc := approvalService()

	pending, err := svc.PendingPlatformApprovalsRaw(p)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load pending approvals"}).Redirect("/")
	}
	tasks, err := svc.ServiceTasksRaw(p)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load service tasks"}).Redirect("/")
	}
	revenue, _ := svc.TotalRevenue(p)
	awaiting, _ := svc.PendingPayments(p)
	apiTotals, _ := counter.APIRequestTotals()

	return c.Render("admin/dashboard", fiber.Map{
		"Title":            "Platform Admin",
		"PendingApprovals": pending,
		"ServiceTasks":     tasks,
		"TotalRevenue":     revenue,
		"PendingPayments":  awaiting,
		"APIRequests":      apiTotals,
		"FlashData":        flash.Get(c),
	}, "layouts/main")
}

// HandleAdminGrants lists every feature grant on the platform together
// with the grantable-feature menu.
func HandleAdminGrants(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	all, err := grantService().ListAll(p)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load grants"}).Redirect("/admin")
	}

	return c.Render("admin/grants", fiber.Map{
		"Title":      "Feature Grants",
		"Grants":     all,
		"Grantable":  grants.GrantableFeatures,
		"PeriodDays": grants.GrantPeriodDays,
		"FlashData":  flash.Get(c),
	}, "layouts/main")
}

// HandleAdminGrantCreate grants one or more features to a tenant.
// Form: tenant_slug, feature_keys (comma separated), period_days.
func HandleAdminGrantCreate(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	fm := fiber.Map{"type": "error"}

	tenantSlug := models.NormalizeTenantSlug(c.FormValue("tenant_slug"))
	periodDays, err := strconv.Atoi(c.FormValue("period_days", "0"))
	if err != nil || periodDays < 0 {
		fm["message"] = "Invalid grant period"
		return flash.WithError(c, fm).Redirect("/admin/grants")
	}

	var keys []plans.FeatureKey
	for _, raw := range strings.Split(c.FormValue("feature_keys"), ",") {
		if k := strings.TrimSpace(raw); k != "" {
			keys = append(keys, plans.FeatureKey(k))
		}
	}
	if len(keys) == 0 {
		fm["message"] = "At least one feature key is required"
		return flash.WithError(c, fm).Redirect("/admin/grants")
	}

	created, err := grantService().Grant(p, tenantSlug, keys, periodDays)
	if err != nil {
		fm["message"] = err.Error()
		return flash.WithError(c, fm).Redirect("/admin/grants")
	}

	tenantkv.Delete(tenantkv.SubscriptionKey, tenantSlug)

	fm = fiber.Map{
		"type":    "success",
		"message": strconv.Itoa(len(created)) + " grant(s) created for " + tenantSlug,
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/grants")
}

// HandleAdminGrantRevoke removes a grant.
func HandleAdminGrantRevoke(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	if err := grantService().Revoke(p, c.Params("grantID")); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": err.Error()}).Redirect("/admin/grants")
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Grant revoked."}).Redirect("/admin/grants")
}

// HandleAdminGrantExtend pushes an expiring grant's expiry out.
func HandleAdminGrantExtend(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	fm := fiber.Map{"type": "error"}

	extraDays, err := strconv.Atoi(c.FormValue("extra_days", "0"))
	if err != nil || extraDays <= 0 {
		fm["message"] = "Invalid extension"
		return flash.WithError(c, fm).Redirect("/admin/grants")
	}

	if _, err := grantService().Extend(p, c.Params("grantID"), extraDays); err != nil {
		fm["message"] = err.Error()
		return flash.WithError(c, fm).Redirect("/admin/grants")
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Grant extended."}).Redirect("/admin/grants")
}

// HandleAdminUsers lists users of a tenant (or all tenants).
func HandleAdminUsers(c *fiber.Ctx) error {
	tenantSlug := c.Query("tenant")

	var (
		users []models.User
		err   error
	)
	if tenantSlug != "" {
		users, err = repos().User.ListByTenant(tenantSlug)
	} else {
		users, err = repos().User.List(0, 200)
	}
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load users"}).Redirect("/admin")
	}

	return c.Render("admin/users", fiber.Map{
		"Title":     "Users",
		"Users":     users,
		"Tenant":    tenantSlug,
		"Roles":     principal.AllRoles,
		"FlashData": flash.Get(c),
	}, "layouts/main")
}

// HandleAdminAssignRole changes a user's role. The superadmin role can
// only be handed out by another superadmin.
func HandleAdminAssignRole(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	fm := fiber.Map{"type": "error"}

	userID, err := strconv.ParseUint(c.Params("userID"), 10, 64)
	if err != nil {
		fm["message"] = "Invalid user id"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	target := principal.Role(c.FormValue("role"))
	if !principal.Valid(target) || target == principal.RoleGuest {
		fm["message"] = "Unknown role"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}
	if !principal.CanAssignRole(p.Role, target) {
		fm["message"] = "You may not assign this role"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	if err := repos().User.UpdateRole(uint(userID), string(target)); err != nil {
		fm["message"] = "Role change failed"
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Role updated.",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

// HandleAdminTenants lists all tenants with their subscriptions.
func HandleAdminTenants(c *fiber.Ctx) error {
	tenants, err := repos().Tenant.List(0, 200)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not load tenants"}).Redirect("/admin")
	}

	subs := make(map[string]*models.Subscription, len(tenants))
	for _, t := range tenants {
		if sub, err := repos().Subscription.GetByTenant(t.Slug); err == nil {
			subs[t.Slug] = sub
		}
	}

	return c.Render("admin/tenants", fiber.Map{
		"Title":         "Tenants",
		"Tenants":       tenants,
		"Subscriptions": subs,
		"FlashData":     flash.Get(c),
	}, "layouts/main")
}

// HandleAdminSetOverrides replaces a tenant's manual feature overrides.
// Form: features as feature_key=on checkboxes prefixed with "ov_".
func HandleAdminSetOverrides(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	tenantSlug := models.NormalizeTenantSlug(c.Params("tenant"))
	if tenantSlug == "" {
		fm["message"] = "Invalid tenant"
		return flash.WithError(c, fm).Redirect("/admin/tenants")
	}

	overrides := models.FeatureOverrides{}
	for _, key := range plans.AllFeatureKeys {
		switch c.FormValue("ov_" + string(key)) {
		case "on", "true", "1":
			overrides[string(key)] = true
		case "off", "false", "0":
			overrides[string(key)] = false
		}
	}

	if _, err := entitlementService().SetOverrides(tenantSlug, overrides); err != nil {
		fm["message"] = "Override update failed"
		return flash.WithError(c, fm).Redirect("/admin/tenants")
	}

	tenantkv.Delete(tenantkv.SubscriptionKey, tenantSlug)

	fm = fiber.Map{
		"type":    "success",
		"message": "Overrides updated for " + tenantSlug,
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/tenants")
}
