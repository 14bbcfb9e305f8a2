package repository

import (
	"github.com/strefex/strefex/app/models"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByTenant(tenantSlug string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("tenant_slug = ?", tenantSlug).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetOrCreate(tenantSlug, accountType string) (*models.Subscription, error) {
	return models.GetOrCreateSubscription(r.db, tenantSlug, accountType)
}

func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Offset(offset).Limit(limit).Order("id asc").Find(&subs).Error
	return subs, err
}
