package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDerivesTenantFromEmail(t *testing.T) {
	u, err := CreateUser("John Doe", "john@acme.com", "secret123", "", "")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", u.TenantSlug)
	assert.Equal(t, "user", u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.NotEqual(t, "secret123", u.Password)

	u, err = CreateUser("Jane Doe", "jane@acme.com", "secret123", "custom-slug", "admin")
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", u.TenantSlug)
	assert.Equal(t, "admin", u.Role)
}

func TestCreateUserValidates(t *testing.T) {
	_, err := CreateUser("John", "not-an-email", "secret123", "acme.com", "user")
	assert.Error(t, err)

	_, err = CreateUser("John", "john@acme.com", "secret123", "acme.com", "mayor")
	assert.Error(t, err)
}

func TestPasswordCheck(t *testing.T) {
	u, err := CreateUser("John Doe", "john@acme.com", "secret123", "", "")
	require.NoError(t, err)

	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))

	require.NoError(t, u.SetPassword("newsecret"))
	assert.True(t, u.CheckPassword("newsecret"))
	assert.False(t, u.CheckPassword("secret123"))
}

func TestUserIsActive(t *testing.T) {
	u := &User{Status: STATUS_ACTIVE}
	assert.True(t, u.IsActive())
	u.Status = STATUS_DISABLED
	assert.False(t, u.IsActive())
}
