package plans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogOrderMatchesTier(t *testing.T) {
	require.Len(t, Catalog, 5)
	for i, p := range Catalog {
		assert.Equal(t, Tier(i), p.Tier, "plan %s out of order", p.ID)
	}
	assert.True(t, TierOf(PlanStart) < TierOf(PlanBasic))
	assert.True(t, TierOf(PlanBasic) < TierOf(PlanStandard))
	assert.True(t, TierOf(PlanStandard) < TierOf(PlanPremium))
	assert.True(t, TierOf(PlanPremium) < TierOf(PlanEnterprise))
}

func TestCatalogDefinesEveryKey(t *testing.T) {
	for _, p := range Catalog {
		for _, k := range AllFeatureKeys {
			_, ok := p.Features[k]
			assert.True(t, ok, "plan %s missing feature %s", p.ID, k)
		}
		for _, k := range AllLimitKeys {
			_, ok := p.Limits[k]
			assert.True(t, ok, "plan %s missing limit %s", p.ID, k)
		}
	}
}

func TestByIDFallsBackToFree(t *testing.T) {
	assert.Equal(t, PlanPremium, ByID(PlanPremium).ID)
	assert.Equal(t, PlanStart, ByID("no-such-plan").ID)
	assert.Equal(t, PlanStart, ByID("").ID)
}

func TestForAccountTypeExcludesFreeForBuyers(t *testing.T) {
	buyer := ForAccountType(AccountBuyer)
	require.Len(t, buyer, 4)
	for _, p := range buyer {
		assert.NotEqual(t, PlanStart, p.ID)
	}

	assert.Len(t, ForAccountType(AccountSeller), 5)
	assert.Len(t, ForAccountType(AccountServiceProvider), 5)
}

func TestFloorPlan(t *testing.T) {
	assert.Equal(t, PlanBasic, FloorPlan(AccountBuyer))
	assert.Equal(t, PlanStart, FloorPlan(AccountSeller))
	assert.Equal(t, PlanStart, FloorPlan(AccountServiceProvider))
	assert.Equal(t, FloorPlan(AccountBuyer), DefaultPlan(AccountBuyer))
}

func TestPriceDiscounts(t *testing.T) {
	basic := ByID(PlanBasic)
	assert.InDelta(t, 19, Price(basic, PeriodMonthly), 0.001)
	assert.InDelta(t, 19*0.85, Price(basic, PeriodAnnual), 0.001)
	assert.InDelta(t, 19*0.75, Price(basic, PeriodTriennial), 0.001)

	ent := ByID(PlanEnterprise)
	assert.InDelta(t, 999*0.85, Price(ent, PeriodAnnual), 0.01)
	assert.InDelta(t, 999*0.75, Price(ent, PeriodTriennial), 0.01)
}

func TestUnlimitedIsInfinite(t *testing.T) {
	assert.True(t, math.IsInf(Unlimited, 1))
	assert.True(t, ByID(PlanPremium).Limits[LimitMaxProjects] == Unlimited)
	assert.False(t, ByID(PlanStandard).Limits[LimitMaxProjects] == Unlimited)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidPeriod(PeriodMonthly))
	assert.True(t, ValidPeriod(PeriodAnnual))
	assert.True(t, ValidPeriod(PeriodTriennial))
	assert.False(t, ValidPeriod("weekly"))
	assert.False(t, ValidPeriod(""))

	assert.True(t, ValidAccountType(AccountSeller))
	assert.True(t, ValidAccountType(AccountBuyer))
	assert.True(t, ValidAccountType(AccountServiceProvider))
	assert.False(t, ValidAccountType("reseller"))
}
