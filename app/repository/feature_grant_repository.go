package repository

import (
	"github.com/strefex/strefex/app/models"
	"gorm.io/gorm"
)

type featureGrantRepository struct {
	db *gorm.DB
}

// NewFeatureGrantRepository creates a new feature grant repository instance
func NewFeatureGrantRepository(db *gorm.DB) FeatureGrantRepository {
	return &featureGrantRepository{db: db}
}

func (r *featureGrantRepository) Create(grant *models.FeatureGrant) error {
	return r.db.Create(grant).Error
}

func (r *featureGrantRepository) GetByGrantID(grantID string) (*models.FeatureGrant, error) {
	var grant models.FeatureGrant
	err := r.db.Where("grant_id = ?", grantID).First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *featureGrantRepository) Save(grant *models.FeatureGrant) error {
	return r.db.Save(grant).Error
}

func (r *featureGrantRepository) Delete(grantID string) error {
	return r.db.Where("grant_id = ?", grantID).Delete(&models.FeatureGrant{}).Error
}

func (r *featureGrantRepository) ListByTenant(tenantSlug string) ([]models.FeatureGrant, error) {
	var grants []models.FeatureGrant
	err := r.db.Where("tenant_slug = ?", tenantSlug).Order("granted_at desc").Find(&grants).Error
	return grants, err
}

func (r *featureGrantRepository) ListAll() ([]models.FeatureGrant, error) {
	var grants []models.FeatureGrant
	err := r.db.Order("granted_at desc").Find(&grants).Error
	return grants, err
}
