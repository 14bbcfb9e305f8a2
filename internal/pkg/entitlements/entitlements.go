// Package entitlements computes the effective entitlement set for a tenant:
// plan-derived features and limits, manual overrides, feature grants, trial
// and cancellation floors, and the superadmin bypass.
//
// The evaluation functions here are pure: they take the acting principal and
// a subscription snapshot explicitly and never mutate stored state. Trial
// expiry is corrected by Service.ReconcileExpiredTrial, which is invoked on
// session start rather than hidden inside a read.
package entitlements

import (
	"time"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/plans"
	"github.com/strefex/strefex/internal/pkg/principal"
)

// effectivePlanID resolves which plan the subscription is evaluated against:
// the stored plan, or the category floor when the trial has lapsed or the
// subscription is canceled.
func effectivePlanID(sub *models.Subscription, now time.Time) string {
	if sub.TrialExpired(now) || sub.Status == models.SubStatusCanceled {
		return plans.FloorPlan(sub.AccountType)
	}
	return sub.PlanID
}

// Effective returns the merged feature/limit view the subscription is
// currently entitled to, with trial/cancel floors applied.
func Effective(sub *models.Subscription, now time.Time) plans.Effective {
	return plans.EffectiveLimits(effectivePlanID(sub, now), sub.AccountType)
}

// HasFeature evaluates a boolean capability.
//
// Order: superadmin bypass, trial/cancel floor, manual overrides, active
// feature grants, plan-derived limits. Missing keys default to false.
func HasFeature(p principal.Principal, sub *models.Subscription, granted map[plans.FeatureKey]bool, key plans.FeatureKey, now time.Time) bool {
	if p.IsSuperadmin() {
		return true
	}
	floored := sub.TrialExpired(now) || sub.Status == models.SubStatusCanceled
	if !floored {
		if v, ok := sub.Overrides[string(key)]; ok {
			return v
		}
		if granted[key] {
			return true
		}
	}
	return Effective(sub, now).HasFeature(key)
}

// HasTier reports whether the subscription's tier rank meets the required
// tier. Comparison is by rank, not plan identity, so a trial on the top tier
// satisfies every lower-tier check while the trial runs.
func HasTier(p principal.Principal, sub *models.Subscription, required plans.Tier, now time.Time) bool {
	if p.IsSuperadmin() {
		return true
	}
	return plans.TierOf(effectivePlanID(sub, now)) >= required
}

// WithinLimit reports whether a count fits under a numeric limit. Unlimited
// is always satisfied; otherwise the check is strict (count < limit). A
// limit is unconstrained only when it is explicitly Unlimited: a key missing
// from the effective map denies, it is never defaulted to unlimited.
func WithinLimit(p principal.Principal, sub *models.Subscription, key plans.LimitKey, count float64, now time.Time) bool {
	if p.IsSuperadmin() {
		return true
	}
	max, ok := Effective(sub, now).Limit(key)
	if !ok {
		return false
	}
	return count < max
}

// Remaining returns how much headroom is left under a numeric limit.
// Unlimited limits report plans.Unlimited remaining; a missing key reports
// zero, matching the WithinLimit denial.
func Remaining(p principal.Principal, sub *models.Subscription, key plans.LimitKey, count float64, now time.Time) float64 {
	if p.IsSuperadmin() {
		return plans.Unlimited
	}
	max, ok := Effective(sub, now).Limit(key)
	if !ok {
		return 0
	}
	if max == plans.Unlimited {
		return plans.Unlimited
	}
	if r := max - count; r > 0 {
		return r
	}
	return 0
}
