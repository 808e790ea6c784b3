package service

import (
	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/user"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/types"
)

// PlanLimiter enforces what each subscription plan may do
type PlanLimiter interface {
	// CanCreate reports whether the user has invoices left this month
	CanCreate(u *user.User) bool
	// CanEmitFiscal reports whether the user may send invoices to the fiscal provider
	CanEmitFiscal(u *user.User) bool
	// CanCreateProduct reports whether one more catalog product fits the plan
	CanCreateProduct(u *user.User, productCount int) bool
	// CheckCreate is CanCreate as an error carrying the plan limit
	CheckCreate(u *user.User) error
	// CheckEmitFiscal is CanEmitFiscal as an error
	CheckEmitFiscal(u *user.User) error
}

type planLimiter struct {
	demoMode      bool
	productLimits config.ProductLimitsConfig
}

func NewPlanLimiter(cfg *config.Configuration) PlanLimiter {
	return &planLimiter{
		demoMode:      cfg.Factus.DemoMode,
		productLimits: cfg.Plans.ProductLimits,
	}
}

func (l *planLimiter) CanCreate(u *user.User) bool {
	return u.MonthlyInvoiceCount < u.Plan.MonthlyInvoiceQuota()
}

// CanEmitFiscal is always true in demo mode since nothing reaches the authority
func (l *planLimiter) CanEmitFiscal(u *user.User) bool {
	return l.demoMode || u.Plan.AllowsFiscalEmission()
}

func (l *planLimiter) CanCreateProduct(u *user.User, productCount int) bool {
	limit := l.productLimits.ForPlan(u.Plan)
	return limit == 0 || productCount < limit
}

func (l *planLimiter) CheckCreate(u *user.User) error {
	if l.CanCreate(u) {
		return nil
	}
	quota := u.Plan.MonthlyInvoiceQuota()
	return ierr.NewError("monthly invoice quota exceeded").
		WithHintf("Your %s plan allows %d invoices per month. Upgrade your plan to keep invoicing.", u.Plan, quota).
		WithReportableDetails(map[string]any{
			"plan":          u.Plan,
			"monthly_quota": quota,
			"used":          u.MonthlyInvoiceCount,
		}).
		Mark(ierr.ErrQuotaExceeded)
}

func (l *planLimiter) CheckEmitFiscal(u *user.User) error {
	if l.CanEmitFiscal(u) {
		return nil
	}
	return ierr.NewError("plan does not allow fiscal emission").
		WithHintf("Electronic invoicing is not included in the %s plan", u.Plan).
		WithReportableDetails(map[string]any{
			"plan":           u.Plan,
			"required_plans": []types.SubscriptionPlan{types.SubscriptionPlanBasic, types.SubscriptionPlanFull},
		}).
		Mark(ierr.ErrPermissionDenied)
}
