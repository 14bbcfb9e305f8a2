package repository

import (
	"errors"

	"github.com/strefex/strefex/app/models"
	"gorm.io/gorm"
)

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

func (r *tenantRepository) GetBySlug(slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("slug = ?", slug).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetOrCreate returns the tenant for a slug, registering it when unknown.
func (r *tenantRepository) GetOrCreate(slug, name, accountType string) (*models.Tenant, error) {
	tenant, err := r.GetBySlug(slug)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if name == "" {
		name = slug
	}
	if accountType == "" {
		accountType = "seller"
	}
	created := &models.Tenant{Slug: slug, Name: name, AccountType: accountType, Status: "active"}
	if err := r.db.Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

func (r *tenantRepository) List(offset, limit int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.Offset(offset).Limit(limit).Order("id asc").Find(&tenants).Error
	return tenants, err
}

func (r *tenantRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Count(&count).Error
	return count, err
}
