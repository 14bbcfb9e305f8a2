package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func sellerSub(planID, status string) *models.Subscription {
	return &models.Subscription{
		TenantSlug:    "acme.com",
		PlanID:        planID,
		AccountType:   plans.AccountSeller,
		Status:        status,
		BillingPeriod: plans.PeriodMonthly,
		Overrides:     models.FeatureOverrides{},
	}
}

func member() principal.Principal {
	return principal.Principal{Role: principal.RoleUser, TenantID: "acme.com", UserID: "john@acme.com"}
}

func superadmin() principal.Principal {
	return principal.Principal{Role: principal.RoleSuperadmin, TenantID: "platform", UserID: "ops@strefex.com"}
}

func TestHasFeatureFollowsPlan(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)

	assert.True(t, HasFeature(member(), sub, nil, plans.FeatureTeamManagement, testNow))
	assert.False(t, HasFeature(member(), sub, nil, plans.FeatureAdvancedReports, testNow))
	assert.False(t, HasFeature(member(), sub, nil, plans.FeatureKey("unknown"), testNow))
}

func TestSuperadminBypassesEverything(t *testing.T) {
	sub := sellerSub(plans.PlanStart, models.SubStatusCanceled)

	assert.True(t, HasFeature(superadmin(), sub, nil, plans.FeatureAIInsights, testNow))
	assert.True(t, HasTier(superadmin(), sub, plans.TierEnterprise, testNow))
	assert.True(t, WithinLimit(superadmin(), sub, plans.LimitMaxProjects, 1e9, testNow))
	assert.Equal(t, plans.Unlimited, Remaining(superadmin(), sub, plans.LimitMaxProjects, 1e9, testNow))
}

func TestRunningTrialGrantsFullTier(t *testing.T) {
	ends := testNow.Add(5 * 24 * time.Hour)
	sub := sellerSub(plans.PlanEnterprise, models.SubStatusTrialing)
	sub.TrialEndsAt = &ends

	assert.True(t, HasTier(member(), sub, plans.TierPremium, testNow))
	assert.True(t, HasFeature(member(), sub, nil, plans.FeatureAIInsights, testNow))
	assert.True(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 5000, testNow))
}

func TestExpiredTrialFloorsEntitlements(t *testing.T) {
	ended := testNow.Add(-24 * time.Hour)
	sub := sellerSub(plans.PlanEnterprise, models.SubStatusTrialing)
	sub.TrialEndsAt = &ended

	assert.False(t, HasFeature(member(), sub, nil, plans.FeatureAIInsights, testNow))
	assert.False(t, HasTier(member(), sub, plans.TierBasic, testNow))
	assert.False(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 5, testNow))
	assert.True(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 2, testNow))
}

func TestCanceledSubscriptionFloorsEntitlements(t *testing.T) {
	sub := sellerSub(plans.PlanPremium, models.SubStatusCanceled)

	assert.False(t, HasFeature(member(), sub, nil, plans.FeatureMessenger, testNow))
	assert.Equal(t, plans.TierStart, plans.TierOf(effectivePlanID(sub, testNow)))

	// The buyer floor is Basic, not Free.
	buyer := sellerSub(plans.PlanPremium, models.SubStatusCanceled)
	buyer.AccountType = plans.AccountBuyer
	assert.True(t, HasFeature(member(), buyer, nil, plans.FeatureTeamManagement, testNow))
}

func TestOverridesBeatPlanAndGrants(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)
	sub.Overrides = models.FeatureOverrides{
		string(plans.FeatureAdvancedReports): true,
		string(plans.FeatureTeamManagement):  false,
	}

	assert.True(t, HasFeature(member(), sub, nil, plans.FeatureAdvancedReports, testNow))
	assert.False(t, HasFeature(member(), sub, nil, plans.FeatureTeamManagement, testNow))

	// An explicit false override wins over an active grant.
	granted := map[plans.FeatureKey]bool{plans.FeatureTeamManagement: true}
	assert.False(t, HasFeature(member(), sub, granted, plans.FeatureTeamManagement, testNow))
}

func TestOverridesIgnoredOnFlooredSubscription(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusCanceled)
	sub.Overrides = models.FeatureOverrides{string(plans.FeatureAIInsights): true}
	granted := map[plans.FeatureKey]bool{plans.FeatureMessenger: true}

	assert.False(t, HasFeature(member(), sub, granted, plans.FeatureAIInsights, testNow))
	assert.False(t, HasFeature(member(), sub, granted, plans.FeatureMessenger, testNow))
}

func TestGrantsUnlockFeaturesAbovePlan(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)
	granted := map[plans.FeatureKey]bool{plans.FeatureAdvancedReports: true}

	assert.True(t, HasFeature(member(), sub, granted, plans.FeatureAdvancedReports, testNow))
	assert.False(t, HasFeature(member(), sub, granted, plans.FeatureAIInsights, testNow))
}

func TestWithinLimitIsStrict(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)

	assert.True(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 9, testNow))
	assert.False(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 10, testNow))
	assert.False(t, WithinLimit(member(), sub, plans.LimitMaxProjects, 11, testNow))

}

func TestMissingLimitKeyDenies(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)

	// Only an explicit Unlimited is unconstrained; an uncataloged key must
	// not pass at any count.
	assert.False(t, WithinLimit(member(), sub, plans.LimitKey("unknown"), 0, testNow))
	assert.False(t, WithinLimit(member(), sub, plans.LimitKey("unknown"), 1e12, testNow))
	assert.Equal(t, float64(0), Remaining(member(), sub, plans.LimitKey("unknown"), 0, testNow))

	// The superadmin bypass still precedes the key lookup.
	assert.True(t, WithinLimit(superadmin(), sub, plans.LimitKey("unknown"), 1e12, testNow))
}

func TestRemaining(t *testing.T) {
	sub := sellerSub(plans.PlanBasic, models.SubStatusActive)

	assert.Equal(t, float64(7), Remaining(member(), sub, plans.LimitMaxProjects, 3, testNow))
	assert.Equal(t, float64(0), Remaining(member(), sub, plans.LimitMaxProjects, 10, testNow))
	assert.Equal(t, float64(0), Remaining(member(), sub, plans.LimitMaxProjects, 99, testNow))
	assert.Equal(t, plans.Unlimited, Remaining(member(), sub, plans.LimitMaxIndustries, 500, testNow))
}
