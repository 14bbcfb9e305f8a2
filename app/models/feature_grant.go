package models

import (
	"time"

	"gorm.io/gorm"
)

// Feature grant statuses. An expired grant keeps its stored status; expiry
// is evaluated lazily at read time.
const (
	GrantStatusActive  = "active"
	GrantStatusRevoked = "revoked"
)

// FeatureGrant is a time-boxed, per-tenant feature unlock superimposed on
// the plan-derived entitlement set. It never mutates the subscription.
type FeatureGrant struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	GrantID    string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"grant_id"`
	TenantSlug string         `gorm:"type:varchar(191);not null;index" json:"tenant_slug"`
	FeatureKey string         `gorm:"type:varchar(64);not null" json:"feature_key"`
	PlanAtGrant string        `gorm:"type:varchar(50)" json:"plan_at_grant"`
	GrantedBy  string         `gorm:"type:varchar(200)" json:"granted_by"`
	GrantedAt  time.Time      `gorm:"not null" json:"granted_at"`
	ExpiresAt  *time.Time     `gorm:"type:timestamp;default:null" json:"expires_at"`
	PeriodDays int            `gorm:"not null;default:0" json:"period_days"`
	Status     string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Expired reports whether the grant has lapsed. A nil ExpiresAt means the
// grant is unlimited and never expires on its own.
func (g *FeatureGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

// Active reports whether the grant currently unlocks its feature.
func (g *FeatureGrant) Active(now time.Time) bool {
	return g.Status == GrantStatusActive && !g.Expired(now)
}
