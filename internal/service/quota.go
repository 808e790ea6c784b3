package service

import (
	"context"
	"time"
)

// QuotaService maintains the monthly invoice counters behind the plan limits
type QuotaService interface {
	// ResetMonthlyQuotas zeroes the counters of users not reset since the
	// start of the month containing now
	ResetMonthlyQuotas(ctx context.Context, now time.Time) (int, error)
}

type quotaService struct {
	ServiceParams
}

func NewQuotaService(params ServiceParams) QuotaService {
	return &quotaService{ServiceParams: params}
}

func (s *quotaService) ResetMonthlyQuotas(ctx context.Context, now time.Time) (int, error) {
	var reset int
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		reset, err = s.UserRepo.ResetMonthlyInvoiceCounts(ctx, StartOfMonth(now))
		return err
	})
	if err != nil {
		return 0, err
	}
	s.Logger.Infow("monthly invoice quotas reset", "users", reset, "period_start", StartOfMonth(now))
	return reset, nil
}

// StartOfMonth returns midnight UTC of the first day of the month of t
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
