package counter

import (
	"context"
	"sort"
	"strconv"

	"github.com/strefex/strefex/internal/pkg/cache"
)

const (
	apiRequestsKey      = "api:counters:requests"
	entitlementDenyKey  = "api:counters:entitlement-denials"
	webhookDeliveredKey = "billing:counters:webhooks"
)

// AddAPIRequest increments the per-tenant API request counter in Redis.
func AddAPIRequest(tenantSlug string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, apiRequestsKey, tenantSlug, 1).Err()
}

// AddEntitlementDenial increments the per-tenant counter of feature and
// limit checks that answered no.
func AddEntitlementDenial(tenantSlug string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, entitlementDenyKey, tenantSlug, 1).Err()
}

// AddWebhookDelivery counts processed billing webhook deliveries.
func AddWebhookDelivery() error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookDeliveredKey, "delivered", 1).Err()
}

// TenantCount is one row of a counter hash, sorted for stable dashboards.
type TenantCount struct {
	TenantSlug string
	Count      int64
}

// APIRequestTotals returns per-tenant API request counts, highest first.
func APIRequestTotals() ([]TenantCount, error) {
	return readHash(apiRequestsKey)
}

// EntitlementDenialTotals returns per-tenant denial counts, highest first.
func EntitlementDenialTotals() ([]TenantCount, error) {
	return readHash(entitlementDenyKey)
}

func readHash(key string) ([]TenantCount, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]TenantCount, 0, len(data))
	for slug, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out = append(out, TenantCount{TenantSlug: slug, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TenantSlug < out[j].TenantSlug
	})
	return out, nil
}

// Reset drops all counter hashes. Operator tooling only.
func Reset() error {
	ctx := context.Background()
	return cache.GetClient().Del(ctx, apiRequestsKey, entitlementDenyKey, webhookDeliveredKey).Err()
}
