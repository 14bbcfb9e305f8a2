// Package grants implements the feature grant register: time-boxed,
// per-tenant feature unlocks superimposed on the plan-derived entitlement
// set. Grants are independent of the approval pipeline and never touch the
// subscription row.
package grants

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

var (
	// ErrPermissionDenied is returned when the acting principal may not
	// manage grants.
	ErrPermissionDenied = errors.New("grant management requires superadmin")
	// ErrFeatureNotGrantable is returned when a feature is unknown or not
	// above the tenant's current plan tier.
	ErrFeatureNotGrantable = errors.New("feature is not grantable for this tenant")
	// ErrGrantNotExtendable is returned when Extend is called on an
	// unlimited grant.
	ErrGrantNotExtendable = errors.New("unlimited grants cannot be extended")
)

// GrantableFeature describes a feature that may be granted, together with
// the plan tier that normally unlocks it.
type GrantableFeature struct {
	Key       plans.FeatureKey `json:"key"`
	Label     string           `json:"label"`
	Tier      plans.Tier       `json:"tier"`
	TierLabel string           `json:"tier_label"`
}

// GrantableFeatures is the operator-facing menu of features, grouped by the
// tier that unlocks them.
var GrantableFeatures = []GrantableFeature{
	{plans.FeatureTeamManagement, "Team Management", plans.TierBasic, "Basic"},
	{plans.FeatureBasicAnalytics, "Basic Analytics", plans.TierBasic, "Basic"},
	{plans.FeatureEmailSupport, "Email Support", plans.TierBasic, "Basic"},
	{plans.FeatureMultipleIndustries, "Multiple Industries", plans.TierBasic, "Basic"},
	{plans.FeatureAdvancedReports, "Advanced Reports", plans.TierStandard, "Standard"},
	{plans.FeatureExecutiveSummary, "Executive Summary", plans.TierStandard, "Standard"},
	{plans.FeaturePrioritySupport, "Priority Support", plans.TierStandard, "Standard"},
	{plans.FeatureProductionManagement, "Production Management", plans.TierPremium, "Premium"},
	{plans.FeatureCostManagement, "Cost Management", plans.TierPremium, "Premium"},
	{plans.FeatureAuditManagement, "Audit Management", plans.TierPremium, "Premium"},
	{plans.FeatureCustomIntegrations, "Custom Integrations", plans.TierPremium, "Premium"},
	{plans.FeatureMessenger, "Messenger", plans.TierPremium, "Premium"},
	{plans.FeatureProfileContacts, "Profile Contacts", plans.TierPremium, "Premium"},
	{plans.FeatureEnterpriseManagement, "Enterprise Management", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureProcurement, "Procurement", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureContractManagement, "Contract Management", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureSpendAnalysis, "Spend Analysis", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureComplianceEsg, "Compliance & ESG", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureAIInsights, "AI Insights", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureERPIntegrations, "ERP Integrations", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureTemplateLibrary, "Template Library", plans.TierEnterprise, "Enterprise"},
	{plans.FeatureAuditLogs, "System Audit Logs", plans.TierEnterprise, "Enterprise"},
}

// GrantPeriodDays lists the selectable grant durations. 0 encodes an
// unlimited grant (no expiry).
var GrantPeriodDays = []int{7, 14, 30, 60, 90, 180, 365, 730, 1095, 0}

func grantableByKey(key plans.FeatureKey) (GrantableFeature, bool) {
	for _, f := range GrantableFeatures {
		if f.Key == key {
			return f, true
		}
	}
	return GrantableFeature{}, false
}

// Service manages feature grants on top of the grant and subscription
// repositories.
type Service struct {
	grants repository.FeatureGrantRepository
	subs   repository.SubscriptionRepository
	now    func() time.Time
}

// NewService creates a grant service.
func NewService(grants repository.FeatureGrantRepository, subs repository.SubscriptionRepository) *Service {
	return &Service{grants: grants, subs: subs, now: time.Now}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Grant creates one grant per feature key for a tenant. periodDays == 0
// creates an unlimited grant. Only features strictly above the tenant's
// current plan tier may be granted.
func (s *Service) Grant(p principal.Principal, tenantSlug string, featureKeys []plans.FeatureKey, periodDays int) ([]models.FeatureGrant, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	if len(featureKeys) == 0 {
		return nil, errors.New("at least one feature key is required")
	}

	sub, err := s.subs.GetByTenant(tenantSlug)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant subscription: %w", err)
	}
	currentTier := plans.TierOf(sub.PlanID)

	now := s.now()
	var expiresAt *time.Time
	if periodDays > 0 {
		e := now.Add(time.Duration(periodDays) * 24 * time.Hour)
		expiresAt = &e
	}

	created := make([]models.FeatureGrant, 0, len(featureKeys))
	for _, key := range featureKeys {
		f, ok := grantableByKey(key)
		if !ok || f.Tier <= currentTier {
			return nil, fmt.Errorf("%w: %s", ErrFeatureNotGrantable, key)
		}
		grant := models.FeatureGrant{
			GrantID:     "grant-" + uuid.NewString(),
			TenantSlug:  tenantSlug,
			FeatureKey:  string(key),
			PlanAtGrant: sub.PlanID,
			GrantedBy:   p.UserID,
			GrantedAt:   now,
			ExpiresAt:   expiresAt,
			PeriodDays:  periodDays,
			Status:      models.GrantStatusActive,
		}
		if err := s.grants.Create(&grant); err != nil {
			return created, err
		}
		created = append(created, grant)
	}
	return created, nil
}

// Revoke removes a grant entirely.
func (s *Service) Revoke(p principal.Principal, grantID string) error {
	if !p.IsSuperadmin() {
		return ErrPermissionDenied
	}
	return s.grants.Delete(grantID)
}

// Extend pushes the expiry of a grant forward by extraDays. Unlimited grants
// have no expiry to extend.
func (s *Service) Extend(p principal.Principal, grantID string, extraDays int) (*models.FeatureGrant, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	if extraDays <= 0 {
		return nil, errors.New("extraDays must be positive")
	}
	grant, err := s.grants.GetByGrantID(grantID)
	if err != nil {
		return nil, err
	}
	if grant.ExpiresAt == nil {
		return nil, ErrGrantNotExtendable
	}
	newExpiry := grant.ExpiresAt.Add(time.Duration(extraDays) * 24 * time.Hour)
	grant.ExpiresAt = &newExpiry
	grant.PeriodDays += extraDays
	if err := s.grants.Save(grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// ActiveGrants returns the set of feature keys currently unlocked by grants
// for a tenant. Expiry is evaluated lazily: expired grants stay stored but
// are excluded here.
func (s *Service) ActiveGrants(tenantSlug string) (map[plans.FeatureKey]bool, error) {
	list, err := s.grants.ListByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make(map[plans.FeatureKey]bool)
	for _, g := range list {
		if g.Active(now) {
			active[plans.FeatureKey(g.FeatureKey)] = true
		}
	}
	return active, nil
}

// ExpiredGrants returns lapsed grants for operator cleanup. There is no
// background sweep.
func (s *Service) ExpiredGrants(tenantSlug string) ([]models.FeatureGrant, error) {
	list, err := s.grants.ListByTenant(tenantSlug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	expired := make([]models.FeatureGrant, 0)
	for _, g := range list {
		if g.Expired(now) {
			expired = append(expired, g)
		}
	}
	return expired, nil
}

// ListAll returns every grant platform-wide; superadmin dashboards only.
func (s *Service) ListAll(p principal.Principal) ([]models.FeatureGrant, error) {
	if !p.IsSuperadmin() {
		return nil, ErrPermissionDenied
	}
	return s.grants.ListAll()
}
