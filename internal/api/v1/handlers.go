package apiv1

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/approval"
	"github.com/strefex/strefex/internal/pkg/entitlements"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/metrics/counter"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/usercontext"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

func (s *APIServer) entitlements() *entitlements.Service {
	r := repository.GetGlobalRepositories()
	return entitlements.NewService(r.Subscription, grants.NewService(r.FeatureGrant, r.Subscription))
}

func (s *APIServer) approvals() *approval.Service {
	r := repository.GetGlobalRepositories()
	return approval.NewService(r.Transaction, s.entitlements())
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetMe returns the authenticated principal.
func (s *APIServer) GetMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	return c.JSON(Identity{
		Email:       userCtx.Email,
		Role:        string(userCtx.Role),
		TenantSlug:  userCtx.TenantSlug,
		AccountType: userCtx.AccountType,
	})
}

// GetPlans lists the catalog for the caller's account type.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	accountType := c.Query("account_type", userCtx.AccountType)
	if accountType == "" {
		accountType = plans.AccountSeller
	}

	catalog := plans.ForAccountType(accountType)
	out := make([]PlanSummary, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, PlanSummary{
			ID:             p.ID,
			Name:           p.Name,
			Tier:           int(p.Tier),
			MonthlyPrice:   plans.Price(p, plans.PeriodMonthly),
			AnnualPrice:    plans.Price(p, plans.PeriodAnnual),
			TriennialPrice: plans.Price(p, plans.PeriodTriennial),
		})
	}
	return c.JSON(out)
}

// GetSubscription returns the caller tenant's subscription.
func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	sub, err := s.entitlements().Subscription(userCtx.TenantSlug, userCtx.AccountType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "subscription lookup failed"})
	}

	plan := plans.ByID(sub.PlanID)
	info := SubscriptionInfo{
		TenantSlug:    sub.TenantSlug,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		AccountType:   sub.AccountType,
		Status:        sub.Status,
		BillingPeriod: sub.BillingPeriod,
		Price:         plans.Price(plan, sub.BillingPeriod),
	}
	if sub.TrialEndsAt != nil {
		info.TrialEndsAt = sub.TrialEndsAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(info)
}

// GetHasFeature evaluates one feature key for the caller.
func (s *APIServer) GetHasFeature(c *fiber.Ctx, key string) error {
	p := usercontext.GetPrincipal(c)
	allowed := s.entitlements().HasFeature(p, plans.FeatureKey(key))
	if !allowed {
		_ = counter.AddEntitlementDenial(p.TenantID)
	}
	return c.JSON(FeatureCheck{Feature: key, Allowed: allowed})
}

// GetWithinLimit checks a usage count against the caller's effective limit.
// Query: count (current usage).
func (s *APIServer) GetWithinLimit(c *fiber.Ctx, key string) error {
	p := usercontext.GetPrincipal(c)

	count, err := strconv.ParseFloat(c.Query("count", "0"), 64)
	if err != nil || count < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "count must be a non-negative number"})
	}

	svc := s.entitlements()
	within := svc.WithinLimit(p, plans.LimitKey(key), count)
	if !within {
		_ = counter.AddEntitlementDenial(p.TenantID)
	}

	remaining := math.Inf(1)
	if eff, err := svc.EffectiveLimits(p); err == nil {
		if limit, ok := eff.Limit(plans.LimitKey(key)); ok {
			remaining = limit - count
		}
	}

	out := LimitCheck{
		Limit:  key,
		Count:  count,
		Within: within,
	}
	if math.IsInf(remaining, 1) {
		out.Unlimited = true
		out.Remaining = -1
	} else {
		out.Remaining = math.Max(remaining, 0)
	}
	return c.JSON(out)
}

// GetEntitlements returns the full evaluated feature and limit set.
// Unlimited limits are encoded as -1, JSON has no infinity.
func (s *APIServer) GetEntitlements(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	eff, err := s.entitlements().EffectiveLimits(p)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "entitlement evaluation failed"})
	}

	out := EffectiveEntitlements{
		Features: make(map[string]bool, len(eff.Features)),
		Limits:   make(map[string]float64, len(eff.Limits)),
	}
	for k, v := range eff.Features {
		out.Features[string(k)] = v
	}
	for k, v := range eff.Limits {
		if math.IsInf(v, 1) {
			out.Limits[string(k)] = -1
		} else {
			out.Limits[string(k)] = v
		}
	}
	return c.JSON(out)
}

// GetTransactions lists the transactions visible to the caller.
func (s *APIServer) GetTransactions(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)

	txs, err := s.approvals().ListVisible(p)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "transaction query failed"})
	}
	return c.JSON(txs)
}

// GetTransaction returns one transaction by public id.
func (s *APIServer) GetTransaction(c *fiber.Ctx, publicID string) error {
	p := usercontext.GetPrincipal(c)

	tx, err := s.approvals().Get(p, publicID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "transaction not found"})
	}
	return c.JSON(tx)
}
