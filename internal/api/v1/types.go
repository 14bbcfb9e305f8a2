package apiv1

// Pong is the ping response.
type Pong struct {
	Ping string `json:"ping"`
}

// Identity describes the authenticated API principal.
type Identity struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	TenantSlug  string `json:"tenant_slug"`
	AccountType string `json:"account_type,omitempty"`
}

// PlanSummary is one catalog entry.
type PlanSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Tier           int     `json:"tier"`
	MonthlyPrice   float64 `json:"monthly_price"`
	AnnualPrice    float64 `json:"annual_price"`
	TriennialPrice float64 `json:"triennial_price"`
}

// SubscriptionInfo is the API view of a tenant subscription.
type SubscriptionInfo struct {
	TenantSlug    string  `json:"tenant_slug"`
	PlanID        string  `json:"plan_id"`
	PlanName      string  `json:"plan_name"`
	AccountType   string  `json:"account_type"`
	Status        string  `json:"status"`
	BillingPeriod string  `json:"billing_period"`
	Price         float64 `json:"price"`
	TrialEndsAt   string  `json:"trial_ends_at,omitempty"`
}

// FeatureCheck is the has-feature response.
type FeatureCheck struct {
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
}

// LimitCheck is the within-limit response.
type LimitCheck struct {
	Limit     string  `json:"limit"`
	Count     float64 `json:"count"`
	Within    bool    `json:"within"`
	Remaining float64 `json:"remaining"`
	Unlimited bool    `json:"unlimited"`
}

// EffectiveEntitlements is the full evaluated entitlement set.
type EffectiveEntitlements struct {
	Features map[string]bool    `json:"features"`
	Limits   map[string]float64 `json:"limits"`
}
