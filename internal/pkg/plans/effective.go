package plans

// Effective is the merged feature/limit view for a (plan, account type) pair.
type Effective struct {
	Features map[FeatureKey]bool
	Limits   map[LimitKey]float64
}

// HasFeature returns the boolean value of a feature key, false when absent.
func (e Effective) HasFeature(key FeatureKey) bool {
	return e.Features[key]
}

// Limit returns the numeric value for a limit key and whether it is defined.
// Missing limits are never treated as unlimited.
func (e Effective) Limit(key LimitKey) (float64, bool) {
	v, ok := e.Limits[key]
	return v, ok
}

// Buyers get stricter industry/category caps at the two lowest paid tiers and
// full access above.
var buyerLimitOverrides = map[string]override{
	PlanBasic: {
		limits:   map[LimitKey]float64{LimitMaxIndustries: 1, LimitMaxCategories: 1},
		features: map[FeatureKey]bool{FeatureMultipleIndustries: false},
	},
	PlanStandard: {
		limits:   map[LimitKey]float64{LimitMaxIndustries: 3, LimitMaxCategories: 3},
		features: map[FeatureKey]bool{FeatureExecutiveSummary: true},
	},
}

// Service providers register in service categories, not industries. Their
// industry access is forced to zero on every tier.
var serviceProviderLimitOverrides = map[string]override{
	PlanStart: {
		limits:   map[LimitKey]float64{LimitMaxIndustries: 0, LimitMaxCategories: 0, LimitMaxServiceCategories: 1},
		features: map[FeatureKey]bool{FeatureMultipleIndustries: false, FeatureExecutiveSummary: false},
	},
	PlanBasic: {
		limits:   map[LimitKey]float64{LimitMaxIndustries: 0, LimitMaxCategories: 0, LimitMaxServiceCategories: Unlimited},
		features: map[FeatureKey]bool{FeatureExecutiveSummary: false},
	},
	PlanStandard: {
		limits:   map[LimitKey]float64{LimitMaxIndustries: 0, LimitMaxCategories: 0, LimitMaxServiceCategories: Unlimited},
		features: map[FeatureKey]bool{FeatureExecutiveSummary: false},
	},
	PlanPremium: {
		limits: map[LimitKey]float64{LimitMaxIndustries: 0, LimitMaxCategories: 0, LimitMaxServiceCategories: Unlimited},
	},
	PlanEnterprise: {
		limits: map[LimitKey]float64{LimitMaxIndustries: 0, LimitMaxCategories: 0, LimitMaxServiceCategories: Unlimited},
	},
}

type override struct {
	limits   map[LimitKey]float64
	features map[FeatureKey]bool
}

// EffectiveLimits merges a plan's base feature/limit maps with the
// account-type override tables. The executive summary capability is
// buyer/service-provider exclusive: sellers always have it forced off.
func EffectiveLimits(planID, accountType string) Effective {
	p := ByID(planID)
	eff := Effective{
		Features: make(map[FeatureKey]bool, len(p.Features)),
		Limits:   make(map[LimitKey]float64, len(p.Limits)),
	}
	for k, v := range p.Features {
		eff.Features[k] = v
	}
	for k, v := range p.Limits {
		eff.Limits[k] = v
	}

	switch accountType {
	case AccountBuyer:
		applyOverride(&eff, buyerLimitOverrides[p.ID])
	case AccountServiceProvider:
		applyOverride(&eff, serviceProviderLimitOverrides[p.ID])
		eff.Features[FeatureExecutiveSummary] = false
	default:
		// Sellers get RFQ notifications instead of the executive summary page.
		eff.Features[FeatureExecutiveSummary] = false
	}
	return eff
}

func applyOverride(eff *Effective, o override) {
	for k, v := range o.limits {
		eff.Limits[k] = v
	}
	for k, v := range o.features {
		eff.Features[k] = v
	}
}
