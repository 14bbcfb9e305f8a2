package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/app/repository"
	"github.com/strefex/strefex/internal/pkg/grants"
	"github.com/strefex/strefex/internal/pkg/plans"
)

func newTestService(t *testing.T) (*Service, repository.SubscriptionRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscription{}, &models.FeatureGrant{}))

	subs := repository.NewSubscriptionRepository(db)
	grantSvc := grants.NewService(repository.NewFeatureGrantRepository(db), subs)
	return NewService(subs, grantSvc), subs
}

func TestSubscriptionCreatesCategoryDefault(t *testing.T) {
	svc, _ := newTestService(t)

	sub, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)
	assert.Equal(t, plans.PlanStart, sub.PlanID)
	assert.Equal(t, models.SubStatusActive, sub.Status)

	buyer, err := svc.Subscription("buyer.com", plans.AccountBuyer)
	require.NoError(t, err)
	assert.Equal(t, plans.PlanBasic, buyer.PlanID)
}

func TestStartTrialAndReconcile(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	_, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)

	sub, err := svc.StartTrial("acme.com")
	require.NoError(t, err)
	assert.Equal(t, plans.PlanEnterprise, sub.PlanID)
	assert.Equal(t, models.SubStatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, TrialDays, sub.TrialDaysLeft(now))

	// Mid-trial the reconcile is a no-op.
	sub, changed, err := svc.ReconcileExpiredTrial("acme.com")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, plans.PlanEnterprise, sub.PlanID)

	// Past the trial end the subscription drops to the category floor.
	now = now.Add((TrialDays + 1) * 24 * time.Hour)
	sub, changed, err = svc.ReconcileExpiredTrial("acme.com")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, plans.PlanStart, sub.PlanID)
	assert.Equal(t, models.SubStatusActive, sub.Status)
	assert.Nil(t, sub.TrialEndsAt)

	// Idempotent: a second reconcile finds nothing to do.
	_, changed, err = svc.ReconcileExpiredTrial("acme.com")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSetPlanRejectsFreeForBuyers(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscription("buyer.com", plans.AccountBuyer)
	require.NoError(t, err)

	_, err = svc.SetPlan("buyer.com", plans.PlanStart, models.SubStatusActive)
	assert.ErrorIs(t, err, ErrPlanNotAllowed)

	sub, err := svc.SetPlan("buyer.com", plans.PlanPremium, models.SubStatusActive)
	require.NoError(t, err)
	assert.Equal(t, plans.PlanPremium, sub.PlanID)
}

func TestSetPlanClearsTrialEnd(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)
	_, err = svc.StartTrial("acme.com")
	require.NoError(t, err)

	sub, err := svc.SetPlan("acme.com", plans.PlanStandard, models.SubStatusActive)
	require.NoError(t, err)
	assert.Nil(t, sub.TrialEndsAt)
	assert.Equal(t, models.SubStatusActive, sub.Status)
}

func TestDowngradeResetsToFloor(t *testing.T) {
	svc, subs := newTestService(t)

	sub, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)
	sub.PlanID = plans.PlanPremium
	sub.BillingPeriod = plans.PeriodAnnual
	sub.Overrides = models.FeatureOverrides{"messenger": true}
	require.NoError(t, subs.Save(sub))

	sub, err = svc.Downgrade("acme.com")
	require.NoError(t, err)
	assert.Equal(t, plans.PlanStart, sub.PlanID)
	assert.Equal(t, plans.PeriodMonthly, sub.BillingPeriod)
	assert.Empty(t, sub.Overrides)
}

func TestCancelKeepsRowAndFloorsReads(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)
	_, err = svc.SetPlan("acme.com", plans.PlanPremium, models.SubStatusActive)
	require.NoError(t, err)

	sub, err := svc.Cancel("acme.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubStatusCanceled, sub.Status)
	assert.Equal(t, plans.PlanPremium, sub.PlanID)

	assert.False(t, svc.HasFeature(member(), plans.FeatureMessenger))
	assert.True(t, svc.HasFeature(member(), plans.FeatureBasicDashboard))
}

func TestServiceAnswersFalseForUnknownTenant(t *testing.T) {
	svc, _ := newTestService(t)

	assert.False(t, svc.HasFeature(member(), plans.FeatureBasicDashboard))
	assert.False(t, svc.HasTier(member(), plans.TierStart))
	assert.False(t, svc.WithinLimit(member(), plans.LimitMaxProjects, 0))

	_, err := svc.EffectiveLimits(member())
	assert.Error(t, err)
}

func TestSetBillingPeriodValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)

	_, err = svc.SetBillingPeriod("acme.com", "weekly")
	assert.Error(t, err)

	sub, err := svc.SetBillingPeriod("acme.com", plans.PeriodTriennial)
	require.NoError(t, err)
	assert.Equal(t, plans.PeriodTriennial, sub.BillingPeriod)
}

func TestSetOverrides(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscription("acme.com", plans.AccountSeller)
	require.NoError(t, err)

	sub, err := svc.SetOverrides("acme.com", models.FeatureOverrides{string(plans.FeatureMessenger): true})
	require.NoError(t, err)
	assert.True(t, sub.Overrides[string(plans.FeatureMessenger)])
	assert.True(t, svc.HasFeature(member(), plans.FeatureMessenger))

	sub, err = svc.SetOverrides("acme.com", nil)
	require.NoError(t, err)
	assert.NotNil(t, sub.Overrides)
	assert.Empty(t, sub.Overrides)
}
