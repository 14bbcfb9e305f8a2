// Package tenantkv is a tenant-namespaced key-value store on top of the
// Redis cache. Every key is scoped as {baseKey}::{tenantSlug}, so data for
// different tenants can never collide.
//
// Reads fall back to the caller's default on any storage error and writes
// are best-effort. Entitlement evaluation must keep answering when the
// cache is unavailable or holds a corrupt value.
package tenantkv

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/strefex/strefex/internal/pkg/cache"
)

// SubscriptionKey is the base key under which the per-tenant subscription
// snapshot is cached. Mutating the subscription must delete this entry.
const SubscriptionKey = "strefex-subscription"

// Key builds the tenant-scoped storage key.
func Key(baseKey, tenantSlug string) string {
	return fmt.Sprintf("%s::%s", baseKey, tenantSlug)
}

// SetJSON stores a JSON-serialized value under the tenant-scoped key.
// Errors are swallowed; the persisted row stays the source of truth.
func SetJSON(baseKey, tenantSlug string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = cache.Set(Key(baseKey, tenantSlug), string(data), ttl)
}

// GetJSON reads a JSON value into out. Returns false when the key is
// missing, unreadable or corrupt; out is left untouched in that case.
func GetJSON(baseKey, tenantSlug string, out interface{}) bool {
	raw, err := cache.Get(Key(baseKey, tenantSlug))
	if err != nil || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

// Delete drops the tenant-scoped key. Best-effort.
func Delete(baseKey, tenantSlug string) {
	_ = cache.Delete(Key(baseKey, tenantSlug))
}
