package entitlements

import (
	"errors"
	"time"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

// TrialDays is the length of the free enterprise trial.
const TrialDays = 14

// ErrPlanNotAllowed is returned when an account type tries to move to a plan
// it may not hold (buyers on the free tier).
var ErrPlanNotAllowed = errors.New("plan not available for this account type")

// Service loads subscription state and grant sets and applies the pure
// evaluation functions. All mutating operations live here, never on the
// read path.
type Service struct {
	subs   repository.SubscriptionRepository
	grants *grants.Service
	now    func() time.Time
}

// NewService creates an entitlement service.
func NewService(subs repository.SubscriptionRepository, grantSvc *grants.Service) *Service {
	return &Service{subs: subs, grants: grantSvc, now: time.Now}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) load(p principal.Principal) (*models.Subscription, map[plans.FeatureKey]bool, error) {
	sub, err := s.subs.GetByTenant(p.TenantID)
	if err != nil {
		return nil, nil, err
	}
	granted, err := s.grants.ActiveGrants(p.TenantID)
	if err != nil {
		// Grants are an overlay; entitlement evaluation proceeds without
		// them rather than failing the read.
		granted = nil
	}
	return sub, granted, nil
}

// HasFeature answers a feature query for the principal's tenant. Unknown
// tenants and load failures answer false.
func (s *Service) HasFeature(p principal.Principal, key plans.FeatureKey) bool {
	if p.IsSuperadmin() {
		return true
	}
	sub, granted, err := s.load(p)
	if err != nil {
		return false
	}
	return HasFeature(p, sub, granted, key, s.now())
}

// HasTier answers a tier-rank query for the principal's tenant.
func (s *Service) HasTier(p principal.Principal, required plans.Tier) bool {
	if p.IsSuperadmin() {
		return true
	}
	sub, _, err := s.load(p)
	if err != nil {
		return false
	}
	return HasTier(p, sub, required, s.now())
}

// WithinLimit answers a numeric-limit query for the principal's tenant.
func (s *Service) WithinLimit(p principal.Principal, key plans.LimitKey, count float64) bool {
	if p.IsSuperadmin() {
		return true
	}
	sub, _, err := s.load(p)
	if err != nil {
		return false
	}
	return WithinLimit(p, sub, key, count, s.now())
}

// EffectiveLimits returns the merged entitlement view for the tenant.
func (s *Service) EffectiveLimits(p principal.Principal) (plans.Effective, error) {
	sub, err := s.subs.GetByTenant(p.TenantID)
	if err != nil {
		return plans.Effective{}, err
	}
	return Effective(sub, s.now()), nil
}

// ReconcileExpiredTrial downgrades a lapsed trial to the category floor.
// It is invoked on session start (user-context middleware) so that reads
// stay effect-free. Idempotent: a second call finds no expired trial and
// changes nothing. A lapsed trial is a normal state correction, not an
// error.
func (s *Service) ReconcileExpiredTrial(tenantSlug string) (*models.Subscription, bool, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	if !sub.TrialExpired(now) {
		return sub, false, nil
	}
	sub.PlanID = plans.FloorPlan(sub.AccountType)
	sub.Status = models.SubStatusActive
	sub.TrialEndsAt = nil
	sub.BillingPeriod = plans.PeriodMonthly
	sub.Overrides = models.FeatureOverrides{}
	if err := s.subs.Save(sub); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// SetPlan moves the tenant to a plan with the given status. Buyer accounts
// may never hold the free tier.
func (s *Service) SetPlan(tenantSlug, planID, status string) (*models.Subscription, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	if sub.AccountType == plans.AccountBuyer && planID == plans.PlanStart {
		return nil, ErrPlanNotAllowed
	}
	sub.PlanID = plans.ByID(planID).ID
	sub.Status = status
	if status != models.SubStatusTrialing {
		sub.TrialEndsAt = nil
	}
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// StartTrial begins a 14-day enterprise trial for the tenant.
func (s *Service) StartTrial(tenantSlug string) (*models.Subscription, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	ends := s.now().Add(TrialDays * 24 * time.Hour)
	sub.PlanID = plans.PlanEnterprise
	sub.Status = models.SubStatusTrialing
	sub.TrialEndsAt = &ends
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Downgrade resets the tenant to its category floor plan: monthly billing,
// no trial, overrides cleared.
func (s *Service) Downgrade(tenantSlug string) (*models.Subscription, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	sub.PlanID = plans.FloorPlan(sub.AccountType)
	sub.Status = models.SubStatusActive
	sub.TrialEndsAt = nil
	sub.BillingPeriod = plans.PeriodMonthly
	sub.Overrides = models.FeatureOverrides{}
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel marks the subscription canceled. The row is kept; entitlement
// evaluation floors it from now on.
func (s *Service) Cancel(tenantSlug string) (*models.Subscription, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	sub.Status = models.SubStatusCanceled
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SetBillingPeriod changes the billing cadence.
func (s *Service) SetBillingPeriod(tenantSlug, period string) (*models.Subscription, error) {
	if !plans.ValidPeriod(period) {
		return nil, errors.New("unknown billing period")
	}
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	sub.BillingPeriod = period
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SetOverrides replaces the manual per-feature overrides.
func (s *Service) SetOverrides(tenantSlug string, overrides models.FeatureOverrides) (*models.Subscription, error) {
	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	if overrides == nil {
		overrides = models.FeatureOverrides{}
	}
	sub.Overrides = overrides
	if err := s.subs.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Subscription returns (creating when missing) the subscription row for a
// tenant with the category-appropriate default plan.
func (s *Service) Subscription(tenantSlug, accountType string) (*models.Subscription, error) {
	return s.subs.GetOrCreate(tenantSlug, accountType)
}
