package repository

import (
	"github.com/strefex/strefex/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdateRole(id uint, role string) error
	ListByTenant(tenantSlug string) ([]models.User, error)
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetBySlug(slug string) (*models.Tenant, error)
	GetOrCreate(slug, name, accountType string) (*models.Tenant, error)
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for per-tenant subscription state
type SubscriptionRepository interface {
	GetByTenant(tenantSlug string) (*models.Subscription, error)
	GetOrCreate(tenantSlug, accountType string) (*models.Subscription, error)
	Save(sub *models.Subscription) error
	List(offset, limit int) ([]models.Subscription, error)
}

// TransactionRepository defines the interface for approval records.
// UpdateWithVersion performs the optimistic-concurrency write every pipeline
// transition goes through.
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	GetByPublicID(publicID string) (*models.Transaction, error)
	GetByInvoiceID(invoiceID string) (*models.Transaction, error)
	UpdateWithVersion(tx *models.Transaction) error
	ListByTenant(tenantSlug string) ([]models.Transaction, error)
	ListByStatus(statuses ...string) ([]models.Transaction, error)
	ListByKind(kind string) ([]models.Transaction, error)
	ListAll() ([]models.Transaction, error)
	NextSequence() (uint, error)
}

// FeatureGrantRepository defines the interface for feature grant records
type FeatureGrantRepository interface {
	Create(grant *models.FeatureGrant) error
	GetByGrantID(grantID string) (*models.FeatureGrant, error)
	Save(grant *models.FeatureGrant) error
	Delete(grantID string) error
	ListByTenant(tenantSlug string) ([]models.FeatureGrant, error)
	ListAll() ([]models.FeatureGrant, error)
}
