package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveLimitsSellerMatchesCatalog(t *testing.T) {
	eff := EffectiveLimits(PlanBasic, AccountSeller)

	assert.True(t, eff.HasFeature(FeatureTeamManagement))
	v, ok := eff.Limit(LimitMaxIndustries)
	assert.True(t, ok)
	assert.Equal(t, Unlimited, v)

	// The executive summary page is buyer-facing; sellers never see it.
	assert.False(t, EffectiveLimits(PlanStandard, AccountSeller).HasFeature(FeatureExecutiveSummary))
	assert.False(t, EffectiveLimits(PlanEnterprise, AccountSeller).HasFeature(FeatureExecutiveSummary))
}

func TestEffectiveLimitsBuyerIndustryCaps(t *testing.T) {
	basic := EffectiveLimits(PlanBasic, AccountBuyer)
	v, _ := basic.Limit(LimitMaxIndustries)
	assert.Equal(t, float64(1), v)
	v, _ = basic.Limit(LimitMaxCategories)
	assert.Equal(t, float64(1), v)
	assert.False(t, basic.HasFeature(FeatureMultipleIndustries))

	standard := EffectiveLimits(PlanStandard, AccountBuyer)
	v, _ = standard.Limit(LimitMaxIndustries)
	assert.Equal(t, float64(3), v)
	assert.True(t, standard.HasFeature(FeatureExecutiveSummary))

	premium := EffectiveLimits(PlanPremium, AccountBuyer)
	v, _ = premium.Limit(LimitMaxIndustries)
	assert.Equal(t, Unlimited, v)
}

func TestEffectiveLimitsServiceProviderHasNoIndustries(t *testing.T) {
	for _, planID := range []string{PlanStart, PlanBasic, PlanStandard, PlanPremium, PlanEnterprise} {
		eff := EffectiveLimits(planID, AccountServiceProvider)
		v, _ := eff.Limit(LimitMaxIndustries)
		assert.Equal(t, float64(0), v, "plan %s", planID)
		v, _ = eff.Limit(LimitMaxCategories)
		assert.Equal(t, float64(0), v, "plan %s", planID)
		assert.False(t, eff.HasFeature(FeatureExecutiveSummary), "plan %s", planID)
	}

	v, _ := EffectiveLimits(PlanStart, AccountServiceProvider).Limit(LimitMaxServiceCategories)
	assert.Equal(t, float64(1), v)
	v, _ = EffectiveLimits(PlanBasic, AccountServiceProvider).Limit(LimitMaxServiceCategories)
	assert.Equal(t, Unlimited, v)
}

func TestEffectiveLimitsDoesNotMutateCatalog(t *testing.T) {
	before := ByID(PlanBasic).Limits[LimitMaxIndustries]
	eff := EffectiveLimits(PlanBasic, AccountBuyer)
	eff.Limits[LimitMaxIndustries] = 42
	eff.Features[FeatureMessenger] = true

	assert.Equal(t, before, ByID(PlanBasic).Limits[LimitMaxIndustries])
	assert.False(t, ByID(PlanBasic).Features[FeatureMessenger])
}

func TestEffectiveMissingLimitIsNotUnlimited(t *testing.T) {
	eff := EffectiveLimits(PlanBasic, AccountSeller)
	_, ok := eff.Limit(LimitKey("doesNotExist"))
	assert.False(t, ok)
}
