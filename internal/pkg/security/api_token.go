package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/strefex/strefex/internal/pkg/principal"
)

// APITokenTTL is how long an issued bearer token stays valid.
const APITokenTTL = 12 * time.Hour

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// APIClaims carries the principal inside a signed bearer token so API
// requests can be authorized without a cookie session.
type APIClaims struct {
	Role       string `json:"role"`
	TenantSlug string `json:"tenant_slug"`
	UserID     uint   `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateAPIToken signs a bearer token for the given identity.
func GenerateAPIToken(userID uint, email string, p principal.Principal, secret string) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("secret is required for token generation")
	}
	expiresAt := time.Now().Add(APITokenTTL)
	claims := APIClaims{
		Role:       string(p.Role),
		TenantSlug: p.TenantID,
		UserID:     userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAPIToken parses and verifies a bearer token and returns its claims.
func ValidateAPIToken(tokenString, secret string) (*APIClaims, error) {
	claims := &APIClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Principal rebuilds the acting principal from validated claims.
func (c *APIClaims) Principal() principal.Principal {
	return principal.Principal{
		Role:     principal.Role(c.Role),
		TenantID: c.TenantSlug,
		UserID:   c.Subject,
	}
}
