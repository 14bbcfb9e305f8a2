package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tenant is a company account, the unit of data isolation. The slug is the
// normalized company domain (acme.com) and is what every tenant-scoped
// record carries as its tenant identifier.
type Tenant struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;type:varchar(191);not null" json:"slug" validate:"required,min=3,max=191"`
	Name        string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	AccountType string         `gorm:"type:varchar(20);not null;default:'seller'" json:"account_type" validate:"oneof=seller buyer service_provider"`
	Status      string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TenantSlugFromEmail derives the tenant slug from an email address
// (john@acme.com -> acme.com). Returns "" when the input has no domain.
func TenantSlugFromEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return NormalizeTenantSlug(parts[1])
}

// NormalizeTenantSlug lowercases and strips characters that are not safe in
// a storage key.
func NormalizeTenantSlug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
