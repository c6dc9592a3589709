package services

import (
	"context"
	"fmt"

	"gastos/internal/core"
)

// ReportRepository is the aggregate-query surface of storage.
type ReportRepository interface {
	Summary(ctx context.Context) (core.Summary, error)
	SpendingByCategory(ctx context.Context) ([]core.CategoryTotal, error)
}

// ReportService computes summary statistics and category breakdowns.
type ReportService struct {
	repo ReportRepository
}

func NewReportService(repo ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Summarize returns total income, total expense, and their balance. A kind
// with no rows contributes exactly zero.
func (s *ReportService) Summarize(ctx context.Context) (core.Summary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return summary, nil
}

// CategoryBreakdown returns expense totals per category, largest first.
// Unlike Summarize, categories with no rows are absent: the category set is
// open-ended and unknown categories must not be invented.
func (s *ReportService) CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error) {
	breakdown, err := s.repo.SpendingByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return breakdown, nil
}
