package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/strefex/strefex/internal/pkg/plans"
)

// Subscription statuses.
const (
	SubStatusActive   = "active"
	SubStatusTrialing = "trialing"
	SubStatusPastDue  = "past_due"
	SubStatusCanceled = "canceled"
)

// FeatureOverrides is a JSON-encoded map of manual per-feature overrides on
// a subscription. Overrides beat plan-derived entitlements but not the
// superadmin bypass or the trial/cancel floor.
type FeatureOverrides map[string]bool

func (o FeatureOverrides) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *FeatureOverrides) Scan(src interface{}) error {
	if src == nil {
		*o = FeatureOverrides{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported overrides column type %T", src)
	}
	if len(data) == 0 {
		*o = FeatureOverrides{}
		return nil
	}
	return json.Unmarshal(data, o)
}

// Subscription is the per-tenant plan record. There is exactly one row per
// tenant; it is never hard-deleted, only status-transitioned to canceled.
type Subscription struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	TenantSlug    string           `gorm:"uniqueIndex;type:varchar(191);not null" json:"tenant_slug"`
	PlanID        string           `gorm:"type:varchar(50);not null;default:'start'" json:"plan_id"`
	AccountType   string           `gorm:"type:varchar(20);not null;default:'seller'" json:"account_type"`
	Status        string           `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	TrialEndsAt   *time.Time       `gorm:"type:timestamp;default:null" json:"trial_ends_at"`
	BillingPeriod string           `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_period"`
	Overrides     FeatureOverrides `gorm:"type:text" json:"overrides"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// NewSubscription builds the signup default for an account type. Buyers may
// never default to the free tier.
func NewSubscription(tenantSlug, accountType string) *Subscription {
	if !plans.ValidAccountType(accountType) {
		accountType = plans.AccountSeller
	}
	return &Subscription{
		TenantSlug:    tenantSlug,
		PlanID:        plans.DefaultPlan(accountType),
		AccountType:   accountType,
		Status:        SubStatusActive,
		BillingPeriod: plans.PeriodMonthly,
		Overrides:     FeatureOverrides{},
	}
}

// GetOrCreateSubscription returns the tenant's subscription, creating the
// category default when none exists yet.
func GetOrCreateSubscription(db *gorm.DB, tenantSlug, accountType string) (*Subscription, error) {
	var sub Subscription
	if err := db.Where("tenant_slug = ?", tenantSlug).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created := NewSubscription(tenantSlug, accountType)
			if err := db.Create(created).Error; err != nil {
				return nil, err
			}
			return created, nil
		}
		return nil, err
	}
	return &sub, nil
}

// TrialExpired reports whether the subscription is a trial past its end date.
func (s *Subscription) TrialExpired(now time.Time) bool {
	return s.Status == SubStatusTrialing && s.TrialEndsAt != nil && now.After(*s.TrialEndsAt)
}

// IsTrial reports whether the subscription is in a still-running trial.
func (s *Subscription) IsTrial(now time.Time) bool {
	return s.Status == SubStatusTrialing && s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// TrialDaysLeft returns the whole days remaining in the trial, 0 otherwise.
func (s *Subscription) TrialDaysLeft(now time.Time) int {
	if !s.IsTrial(now) {
		return 0
	}
	d := s.TrialEndsAt.Sub(now)
	days := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
