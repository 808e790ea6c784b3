package types

import (
	"math"

	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionPlan is the tier a merchant is subscribed to
type SubscriptionPlan string

const (
	SubscriptionPlanFree  SubscriptionPlan = "FREE"
	SubscriptionPlanBasic SubscriptionPlan = "BASIC"
	SubscriptionPlanFull  SubscriptionPlan = "FULL"
)

// UnlimitedQuota stands in for the FULL plan's unbounded monthly quota
const UnlimitedQuota = math.MaxInt

var planInvoiceQuotas = map[SubscriptionPlan]int{
	SubscriptionPlanFree:  15,
	SubscriptionPlanBasic: 50,
	SubscriptionPlanFull:  UnlimitedQuota,
}

func SubscriptionPlans() []SubscriptionPlan {
	return []SubscriptionPlan{
		SubscriptionPlanFree,
		SubscriptionPlanBasic,
		SubscriptionPlanFull,
	}
}

func (p SubscriptionPlan) String() string {
	return string(p)
}

func (p SubscriptionPlan) Validate() error {
	if !lo.Contains(SubscriptionPlans(), p) {
		return ierr.NewError("invalid subscription plan").
			WithHint("Invalid subscription plan").
			WithReportableDetails(map[string]any{
				"allowed": SubscriptionPlans(),
				"plan":    p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MonthlyInvoiceQuota returns the number of invoices a plan may create per month.
// Unknown plans get no quota.
func (p SubscriptionPlan) MonthlyInvoiceQuota() int {
	return planInvoiceQuotas[p]
}

// IsUnlimited is true when the plan has no monthly invoice cap
func (p SubscriptionPlan) IsUnlimited() bool {
	return p.MonthlyInvoiceQuota() == UnlimitedQuota
}

// AllowsFiscalEmission reports whether invoices on this plan may be sent to the tax authority
func (p SubscriptionPlan) AllowsFiscalEmission() bool {
	return p == SubscriptionPlanBasic || p == SubscriptionPlanFull
}
