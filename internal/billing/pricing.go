// Package billing holds the subscription plans, the pure pricing calculator,
// and checkout/portal session creation against the payment provider.
package billing

import (
	"fmt"
	"math"
	"strings"
)

// Plan identifiers.
const (
	PlanStarter    = "starter"
	PlanGrowth     = "growth"
	PlanEnterprise = "enterprise"
)

// Discounts applied by the calculator. Annual prices are already baked into
// the plan tables; the nonprofit discount is applied on top of either.
const (
	NonprofitDiscount = 0.20
)

// Plan describes a subscription tier. All prices are in cents.
type Plan struct {
	ID           string
	Name         string
	UserLimit    int // 0 means no fixed limit
	MonthlyPrice int64
	AnnualPrice  int64
	// Enterprise only: base price covers MinUsers seats, each seat above
	// that is charged PerUser*.
	BaseMonthlyPrice   int64
	BaseAnnualPrice    int64
	PerUserMonthlyOver int64
	PerUserAnnualOver  int64
	MinUsers           int
	Features           []string
}

var plans = map[string]Plan{
	PlanStarter: {
		ID:           PlanStarter,
		Name:         "Starter",
		UserLimit:    5,
		MonthlyPrice: 4900,
		AnnualPrice:  49900,
		Features: []string{
			"Up to 5 users",
			"Unlimited strategic plans",
			"Team collaboration",
			"Progress tracking",
			"Email support",
			"7-day free trial",
		},
	},
	PlanGrowth: {
		ID:           PlanGrowth,
		Name:         "Growth",
		UserLimit:    15,
		MonthlyPrice: 9900,
		AnnualPrice:  105990,
		Features: []string{
			"Up to 15 users",
			"All Starter features",
			"Advanced reporting",
			"CSV import/export",
			"Priority support",
			"7-day free trial",
		},
	},
	PlanEnterprise: {
		ID:                 PlanEnterprise,
		Name:               "Enterprise",
		BaseMonthlyPrice:   14900,
		BaseAnnualPrice:    159900,
		PerUserMonthlyOver: 500,
		PerUserAnnualOver:  5400,
		MinUsers:           16,
		Features: []string{
			"16+ users",
			"All Growth features",
			"Custom integrations",
			"Advanced analytics",
			"Dedicated support",
			"Custom training",
			"7-day free trial",
		},
	},
}

// PlanByID returns the plan for id (case-insensitive) and whether it exists.
func PlanByID(id string) (Plan, bool) {
	p, ok := plans[strings.ToLower(id)]
	return p, ok
}

// Plans returns the catalog cheapest first.
func Plans() []Plan {
	return []Plan{plans[PlanStarter], plans[PlanGrowth], plans[PlanEnterprise]}
}

// PlanByUserCount returns the cheapest plan whose seat limit covers userCount.
func PlanByUserCount(userCount int) Plan {
	switch {
	case userCount <= plans[PlanStarter].UserLimit:
		return plans[PlanStarter]
	case userCount <= plans[PlanGrowth].UserLimit:
		return plans[PlanGrowth]
	default:
		return plans[PlanEnterprise]
	}
}

// CalculatePlanPrice returns the price in cents for the plan, seat count, and
// billing flags, or an error for an unknown plan. Enterprise charges its base
// price plus per-seat overage above MinUsers; Starter and Growth are fixed.
// The nonprofit discount is applied last, rounded to the nearest cent.
func CalculatePlanPrice(planID string, userCount int, annual, nonprofit bool) (int64, error) {
	p, ok := PlanByID(planID)
	if !ok {
		return 0, fmt.Errorf("unknown plan %q", planID)
	}
	var price int64
	if p.ID == PlanEnterprise && userCount > p.MinUsers {
		if annual {
			price = p.BaseAnnualPrice + int64(userCount-p.MinUsers)*p.PerUserAnnualOver
		} else {
			price = p.BaseMonthlyPrice + int64(userCount-p.MinUsers)*p.PerUserMonthlyOver
		}
	} else if p.ID == PlanEnterprise {
		if annual {
			price = p.BaseAnnualPrice
		} else {
			price = p.BaseMonthlyPrice
		}
	} else {
		if annual {
			price = p.AnnualPrice
		} else {
			price = p.MonthlyPrice
		}
	}
	if nonprofit {
		price = int64(math.Round(float64(price) * (1 - NonprofitDiscount)))
	}
	return price, nil
}

// SuggestedDowngrade returns the plan id the org could drop to for its seat
// count, or "" when the current plan already fits.
func SuggestedDowngrade(currentPlanID string, userCount int) string {
	p, ok := PlanByID(currentPlanID)
	if !ok {
		return ""
	}
	if p.ID == PlanGrowth && userCount <= plans[PlanStarter].UserLimit {
		return PlanStarter
	}
	if p.ID == PlanEnterprise && userCount <= plans[PlanGrowth].UserLimit {
		return PlanGrowth
	}
	return ""
}

// UsageWarning describes an approaching seat limit.
type UsageWarning struct {
	Message  string
	Severity string // "medium" or "high"
}

// CheckUsage returns a warning when the org is close to its plan's seat
// limit, or nil.
func CheckUsage(planID string, userCount int) *UsageWarning {
	p, ok := PlanByID(planID)
	if !ok || p.ID != PlanGrowth {
		return nil
	}
	if userCount >= 12 {
		sev := "medium"
		if userCount >= 14 {
			sev = "high"
		}
		return &UsageWarning{
			Message:  fmt.Sprintf("You're approaching your user limit (%d/%d). Consider upgrading to Enterprise.", userCount, p.UserLimit),
			Severity: sev,
		}
	}
	return nil
}
