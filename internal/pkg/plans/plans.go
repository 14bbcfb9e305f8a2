package plans

import "math"

// Tier is the numeric rank of a subscription plan. Higher means more capable.
type Tier int

const (
	TierStart Tier = iota
	TierBasic
	TierStandard
	TierPremium
	TierEnterprise
)

// Plan identifiers as stored on subscriptions and transactions.
const (
	PlanStart      = "start"
	PlanBasic      = "basic"
	PlanStandard   = "standard"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Account types. A company registers one account per direction.
const (
	AccountSeller          = "seller"
	AccountBuyer           = "buyer"
	AccountServiceProvider = "service_provider"
)

// Billing periods. Annual carries a 15% discount, triennial 25%.
const (
	PeriodMonthly   = "monthly"
	PeriodAnnual    = "annual"
	PeriodTriennial = "triennial"
)

// FeatureKey names a boolean capability on a plan.
type FeatureKey string

// LimitKey names a numeric quota on a plan.
type LimitKey string

// Unlimited marks a numeric limit as unconstrained.
var Unlimited = math.Inf(1)

// Boolean feature keys known to the catalog. Every plan defines every key.
const (
	FeatureBasicDashboard       FeatureKey = "basicDashboard"
	FeatureCompanyProfile       FeatureKey = "companyProfile"
	FeatureBasicAnalytics       FeatureKey = "basicAnalytics"
	FeatureAdvancedReports      FeatureKey = "advancedReports"
	FeatureCustomIntegrations   FeatureKey = "customIntegrations"
	FeatureAuditManagement      FeatureKey = "auditManagement"
	FeatureCostManagement       FeatureKey = "costManagement"
	FeatureProductionManagement FeatureKey = "productionManagement"
	FeatureProductionStandard   FeatureKey = "productionStandard"
	FeatureEnterpriseManagement FeatureKey = "enterpriseManagement"
	FeatureTeamManagement       FeatureKey = "teamManagement"
	FeatureMessenger            FeatureKey = "messenger"
	FeatureProfileContacts      FeatureKey = "profileContacts"
	FeatureAIInsights           FeatureKey = "aiInsights"
	FeatureERPIntegrations      FeatureKey = "erpIntegrations"
	FeatureProcurement          FeatureKey = "procurement"
	FeatureContractManagement   FeatureKey = "contractManagement"
	FeatureSpendAnalysis        FeatureKey = "spendAnalysis"
	FeatureComplianceEsg        FeatureKey = "complianceEsg"
	FeatureTemplateLibrary      FeatureKey = "templateLibrary"
	FeatureAuditLogs            FeatureKey = "auditLogs"
	FeatureEmailSupport         FeatureKey = "emailSupport"
	FeaturePrioritySupport      FeatureKey = "prioritySupport"
	FeatureMultipleIndustries   FeatureKey = "multipleIndustries"
	FeatureExecutiveSummary     FeatureKey = "executiveSummary"
	FeatureProjectAuditSchedule FeatureKey = "projectAuditSchedule"
)

// Numeric limit keys known to the catalog.
const (
	LimitMaxProjects          LimitKey = "maxProjects"
	LimitMaxUsers             LimitKey = "maxUsers"
	LimitMaxAssets            LimitKey = "maxAssets"
	LimitMaxStorageGB         LimitKey = "maxStorageGB"
	LimitMaxIndustries        LimitKey = "maxIndustries"
	LimitMaxCategories        LimitKey = "maxCategories"
	LimitMaxServiceCategories LimitKey = "maxServiceCategories"
)

// AllFeatureKeys lists every feature key the catalog defines.
var AllFeatureKeys = []FeatureKey{
	FeatureBasicDashboard, FeatureCompanyProfile, FeatureBasicAnalytics,
	FeatureAdvancedReports, FeatureCustomIntegrations, FeatureAuditManagement,
	FeatureCostManagement, FeatureProductionManagement, FeatureProductionStandard,
	FeatureEnterpriseManagement, FeatureTeamManagement, FeatureMessenger,
	FeatureProfileContacts, FeatureAIInsights, FeatureERPIntegrations,
	FeatureProcurement, FeatureContractManagement, FeatureSpendAnalysis,
	FeatureComplianceEsg, FeatureTemplateLibrary, FeatureAuditLogs,
	FeatureEmailSupport, FeaturePrioritySupport, FeatureMultipleIndustries,
	FeatureExecutiveSummary, FeatureProjectAuditSchedule,
}

// AllLimitKeys lists every numeric limit key the catalog defines.
var AllLimitKeys = []LimitKey{
	LimitMaxProjects, LimitMaxUsers, LimitMaxAssets, LimitMaxStorageGB,
	LimitMaxIndustries, LimitMaxCategories, LimitMaxServiceCategories,
}

// Plan is an immutable catalog entry.
type Plan struct {
	ID             string
	Name           string
	Tier           Tier
	MonthlyPrice   float64
	AnnualPrice    float64
	TriennialPrice float64
	StorageGB      int
	StoragePerSeat bool
	SellerOnly     bool // buyers cannot subscribe to this plan
	Features       map[FeatureKey]bool
	Limits         map[LimitKey]float64
}

func features(enabled ...FeatureKey) map[FeatureKey]bool {
	m := make(map[FeatureKey]bool, len(AllFeatureKeys))
	for _, k := range AllFeatureKeys {
		m[k] = false
	}
	for _, k := range enabled {
		m[k] = true
	}
	return m
}

// Catalog is the ordered plan table. Slice position matches tier rank.
var Catalog = []Plan{
	{
		ID:             PlanStart,
		Name:           "Free",
		Tier:           TierStart,
		MonthlyPrice:   0,
		AnnualPrice:    0,
		TriennialPrice: 0,
		StorageGB:      1,
		SellerOnly:     true,
		Features:       features(FeatureBasicDashboard, FeatureCompanyProfile),
		Limits: map[LimitKey]float64{
			LimitMaxProjects:          3,
			LimitMaxUsers:             1,
			LimitMaxAssets:            10,
			LimitMaxStorageGB:         1,
			LimitMaxIndustries:        1,
			LimitMaxCategories:        1,
			LimitMaxServiceCategories: 1,
		},
	},
	{
		ID:             PlanBasic,
		Name:           "Basic",
		Tier:           TierBasic,
		MonthlyPrice:   19,
		AnnualPrice:    16.15,
		TriennialPrice: 14.25,
		StorageGB:      5,
		Features: features(
			FeatureBasicDashboard, FeatureCompanyProfile, FeatureBasicAnalytics,
			FeatureTeamManagement, FeatureEmailSupport, FeatureMultipleIndustries,
		),
		Limits: map[LimitKey]float64{
			LimitMaxProjects:          10,
			LimitMaxUsers:             5,
			LimitMaxAssets:            50,
			LimitMaxStorageGB:         5,
			LimitMaxIndustries:        Unlimited,
			LimitMaxCategories:        Unlimited,
			LimitMaxServiceCategories: Unlimited,
		},
	},
	{
		ID:             PlanStandard,
		Name:           "Standard",
		Tier:           TierStandard,
		MonthlyPrice:   45,
		AnnualPrice:    38.25,
		TriennialPrice: 33.75,
		StorageGB:      50,
		Features: features(
			FeatureBasicDashboard, FeatureCompanyProfile, FeatureBasicAnalytics,
			FeatureAdvancedReports, FeatureTeamManagement, FeatureEmailSupport,
			FeaturePrioritySupport, FeatureMultipleIndustries, FeatureExecutiveSummary,
		),
		Limits: map[LimitKey]float64{
			LimitMaxProjects:          50,
			LimitMaxUsers:             25,
			LimitMaxAssets:            500,
			LimitMaxStorageGB:         50,
			LimitMaxIndustries:        Unlimited,
			LimitMaxCategories:        Unlimited,
			LimitMaxServiceCategories: Unlimited,
		},
	},
	{
		ID:             PlanPremium,
		Name:           "Premium",
		Tier:           TierPremium,
		MonthlyPrice:   250,
		AnnualPrice:    212.50,
		TriennialPrice: 187.50,
		StorageGB:      100,
		StoragePerSeat: true,
		Features: features(
			FeatureBasicDashboard, FeatureCompanyProfile, FeatureBasicAnalytics,
			FeatureAdvancedReports, FeatureCustomIntegrations, FeatureAuditManagement,
			FeatureCostManagement, FeatureProductionManagement, FeatureProductionStandard,
			FeatureTeamManagement, FeatureMessenger, FeatureProfileContacts,
			FeatureEmailSupport, FeaturePrioritySupport, FeatureMultipleIndustries,
			FeatureExecutiveSummary, FeatureProjectAuditSchedule,
		),
		Limits: map[LimitKey]float64{
			LimitMaxProjects:          Unlimited,
			LimitMaxUsers:             Unlimited,
			LimitMaxAssets:            Unlimited,
			LimitMaxStorageGB:         100,
			LimitMaxIndustries:        Unlimited,
			LimitMaxCategories:        Unlimited,
			LimitMaxServiceCategories: Unlimited,
		},
	},
	{
		ID:             PlanEnterprise,
		Name:           "Enterprise",
		Tier:           TierEnterprise,
		MonthlyPrice:   999,
		AnnualPrice:    849.15,
		TriennialPrice: 749.25,
		StorageGB:      500,
		StoragePerSeat: true,
		Features: features(
			FeatureBasicDashboard, FeatureCompanyProfile, FeatureBasicAnalytics,
			FeatureAdvancedReports, FeatureCustomIntegrations, FeatureAuditManagement,
			FeatureCostManagement, FeatureProductionManagement, FeatureProductionStandard,
			FeatureEnterpriseManagement, FeatureTeamManagement, FeatureMessenger,
			FeatureProfileContacts, FeatureAIInsights, FeatureERPIntegrations,
			FeatureProcurement, FeatureContractManagement, FeatureSpendAnalysis,
			FeatureComplianceEsg, FeatureTemplateLibrary, FeatureAuditLogs,
			FeatureEmailSupport, FeaturePrioritySupport, FeatureMultipleIndustries,
			FeatureExecutiveSummary, FeatureProjectAuditSchedule,
		),
		Limits: map[LimitKey]float64{
			LimitMaxProjects:          Unlimited,
			LimitMaxUsers:             Unlimited,
			LimitMaxAssets:            Unlimited,
			LimitMaxStorageGB:         500,
			LimitMaxIndustries:        Unlimited,
			LimitMaxCategories:        Unlimited,
			LimitMaxServiceCategories: Unlimited,
		},
	},
}

// ByID resolves a plan id, falling back to the Free plan for unknown ids.
func ByID(planID string) Plan {
	for _, p := range Catalog {
		if p.ID == planID {
			return p
		}
	}
	return Catalog[0]
}

// TierOf returns the numeric tier rank for a plan id.
func TierOf(planID string) Tier {
	return ByID(planID).Tier
}

// ForAccountType returns the plans a given account type may subscribe to.
// Buyers can never use the Free plan; their floor is Basic.
func ForAccountType(accountType string) []Plan {
	if accountType != AccountBuyer {
		return Catalog
	}
	out := make([]Plan, 0, len(Catalog))
	for _, p := range Catalog {
		if !p.SellerOnly {
			out = append(out, p)
		}
	}
	return out
}

// FloorPlan is the plan an account falls back to when a trial expires or the
// subscription is canceled.
func FloorPlan(accountType string) string {
	if accountType == AccountBuyer {
		return PlanBasic
	}
	return PlanStart
}

// DefaultPlan is the plan assigned at signup.
func DefaultPlan(accountType string) string {
	return FloorPlan(accountType)
}

// Price returns the effective monthly price for a billing period.
func Price(p Plan, billingPeriod string) float64 {
	switch billingPeriod {
	case PeriodTriennial:
		return p.TriennialPrice
	case PeriodAnnual:
		return p.AnnualPrice
	default:
		return p.MonthlyPrice
	}
}

// PeriodLabel returns the display label of a billing period.
func PeriodLabel(billingPeriod string) string {
	switch billingPeriod {
	case PeriodAnnual:
		return "Annual"
	case PeriodTriennial:
		return "3-Year"
	default:
		return "Monthly"
	}
}

// ValidPeriod reports whether the billing period is one of the known values.
func ValidPeriod(billingPeriod string) bool {
	switch billingPeriod {
	case PeriodMonthly, PeriodAnnual, PeriodTriennial:
		return true
	}
	return false
}

// ValidAccountType reports whether the account type is one of the known values.
func ValidAccountType(accountType string) bool {
	switch accountType {
	case AccountSeller, AccountBuyer, AccountServiceProvider:
		return true
	}
	return false
}
