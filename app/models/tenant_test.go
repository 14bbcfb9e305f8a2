package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantSlugFromEmail(t *testing.T) {
	assert.Equal(t, "acme.com", TenantSlugFromEmail("john@acme.com"))
	assert.Equal(t, "acme.com", TenantSlugFromEmail("John@ACME.com"))
	assert.Equal(t, "", TenantSlugFromEmail("not-an-email"))
	assert.Equal(t, "", TenantSlugFromEmail("a@b@c"))
}

func TestNormalizeTenantSlug(t *testing.T) {
	assert.Equal(t, "acme.com", NormalizeTenantSlug("  ACME.com "))
	assert.Equal(t, "acme-corp.io", NormalizeTenantSlug("Acme-Corp.io"))
	assert.Equal(t, "acmecom", NormalizeTenantSlug("acme com!"))
	assert.Equal(t, "", NormalizeTenantSlug("   "))
}
