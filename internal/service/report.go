package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
)

// ReportService assembles the financial summary shown on the admin dashboard.
type ReportService struct {
	repo repo.ReportRepo
}

// NewReportService constructs a ReportService backed by the provided ReportRepo.
func NewReportService(r repo.ReportRepo) *ReportService {
	return &ReportService{repo: r}
}

// Summary aggregates reservations whose check-in falls in [from, to].
// Every status appears in ByStatus, with zero when nothing matched.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (domain.FinancialSummary, error) {
	from = domain.DateOf(from, time.UTC)
	to = domain.DateOf(to, time.UTC)
	if to.Before(from) {
		return domain.FinancialSummary{}, fmt.Errorf("%w: report end is before its start", domain.ErrInvalidDateRange)
	}

	totals, err := s.repo.TotalsByStatus(ctx, from, to)
	if err != nil {
		return domain.FinancialSummary{}, fmt.Errorf("service.ReportService.Summary: %w", err)
	}

	sum := domain.FinancialSummary{
		From: from,
		To:   to,
		ByStatus: map[domain.Status]int{
			domain.StatusPending:   0,
			domain.StatusConfirmed: 0,
			domain.StatusCancelled: 0,
			domain.StatusCompleted: 0,
		},
		Billed:    decimal.Zero,
		Collected: decimal.Zero,
	}
	for _, t := range totals {
		sum.ByStatus[t.Status] += t.Count
		sum.Collected = sum.Collected.Add(t.Collected)
		if t.Status != domain.StatusCancelled {
			sum.Billed = sum.Billed.Add(t.Billed)
			sum.Outstanding = sum.Outstanding.Add(t.Billed.Sub(t.Collected))
		}
	}
	return sum, nil
}
