package billingprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := &Client{APIKey: "test-key", APIBaseURL: srv.URL, HTTPClient: srv.Client()}
	return c, srv
}

func TestGetSubscription(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ProviderSubscription{
			SubscriptionID: "sub_1",
			TenantRef:      "acme.com",
			Status:         "active",
		})
	})
	defer srv.Close()

	sub, err := c.GetSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.SubscriptionID)
	assert.Equal(t, "acme.com", sub.TenantRef)

	_, err = c.GetSubscription(context.Background(), " ")
	assert.Error(t, err)
}

func TestCreateSubscription(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subscriptions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme.com", req.TenantRef)

		json.NewEncoder(w).Encode(ProviderSubscription{
			SubscriptionID: "sub_new",
			TenantRef:      req.TenantRef,
			PlanRef:        req.PlanRef,
			Status:         "active",
		})
	})
	defer srv.Close()

	sub, err := c.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		TenantRef:       "acme.com",
		PlanRef:         "standard",
		BillingInterval: "monthly",
		Amount:          45,
		Currency:        "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_new", sub.SubscriptionID)

	_, err = c.CreateSubscription(context.Background(), CreateSubscriptionRequest{PlanRef: "standard"})
	assert.Error(t, err)
	_, err = c.CreateSubscription(context.Background(), CreateSubscriptionRequest{TenantRef: "acme.com"})
	assert.Error(t, err)
}

func TestClientErrors(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such subscription"}`, http.StatusNotFound)
	})
	defer srv.Close()

	_, err := c.GetSubscription(context.Background(), "sub_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	c.APIKey = ""
	_, err = c.GetSubscription(context.Background(), "sub_1")
	assert.Error(t, err)
}

func TestGetSubscriptionRejectsEmptyResponse(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	_, err := c.GetSubscription(context.Background(), "sub_1")
	assert.Error(t, err)
}
