package billingprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/strefex/strefex/app/models"
	"github.com/strefex/strefex/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.billing.strefex.io/v1"

// ProviderSubscription is the provider-side view of a tenant subscription.
// It carries the provider's own status vocabulary; map it through
// StatusToLocal before writing anything into local tables.
type ProviderSubscription struct {
	SubscriptionID     string     `json:"subscription_id"`
	TenantRef          string     `json:"tenant_ref"`
	PlanRef            string     `json:"plan_ref"`
	BillingInterval    string     `json:"billing_interval"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

// CreateSubscriptionRequest is the payload for opening a provider-side
// subscription when a plan purchase clears platform approval.
type CreateSubscriptionRequest struct {
	TenantRef       string  `json:"tenant_ref"`
	PlanRef         string  `json:"plan_ref"`
	BillingInterval string  `json:"billing_interval"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

type Client struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("BILLING_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("BILLING_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSubscription fetches the provider-side subscription for a tenant.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "/subscriptions/"+id, nil)
	if err != nil {
		return nil, err
	}

	var out ProviderSubscription
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.SubscriptionID) == "" {
		return nil, errors.New("provider response missing subscription id")
	}
	return &out, nil
}

// CreateSubscription opens a provider-side subscription for a tenant.
func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*ProviderSubscription, error) {
	if strings.TrimSpace(req.TenantRef) == "" {
		return nil, errors.New("tenant ref is required")
	}
	if strings.TrimSpace(req.PlanRef) == "" {
		return nil, errors.New("plan ref is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/subscriptions", payload)
	if err != nil {
		return nil, err
	}

	var out ProviderSubscription
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.SubscriptionID) == "" {
		return nil, errors.New("provider response missing subscription id")
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("BILLING_API_KEY is not configured")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.APIBaseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("billing provider request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// StatusToLocal maps a provider subscription status onto the local
// subscription status vocabulary.
func StatusToLocal(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active":
		return models.SubStatusActive
	case "trialing":
		return models.SubStatusTrialing
	case "past_due", "unpaid", "declined":
		return models.SubStatusPastDue
	case "canceled", "expired":
		return models.SubStatusCanceled
	default:
		return models.SubStatusPastDue
	}
}
