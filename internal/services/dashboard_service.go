package services

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlowTotals is one side (revenues or expenses) of a dashboard month
type FlowTotals struct {
	Total         string                     `json:"total"`
	PreviousTotal string                     `json:"previous_total"`
	Change        float64                    `json:"change_percent"`
	ByCategory    []repository.CategoryTotal `json:"by_category"`
}

// MonthSummary is the dashboard view of one month
type MonthSummary struct {
	Year     int        `json:"year"`
	Month    int        `json:"month"`
	Revenues FlowTotals `json:"revenues"`
	Expenses FlowTotals `json:"expenses"`
	Net      string     `json:"net"`
}

type DashboardService struct {
	repo      repository.DashboardRepository
	versioner *cache.Versioner
}

func NewDashboardService(repo repository.DashboardRepository, versioner *cache.Versioner) *DashboardService {
	return &DashboardService{repo: repo, versioner: versioner}
}

// Month returns revenue and expense totals of a month. Each side is cached
// under its own month key, which ledger writes delete.
func (s *DashboardService) Month(ctx context.Context, companyID uuid.UUID, year int, month time.Month) (*MonthSummary, error) {
	if year < 1900 || year > 9999 || month < time.January || month > time.December {
		return nil, Invalid("month", "must be a valid year and month")
	}

	revenues, err := s.flow(ctx, companyID, cache.FlowRevenues, models.TransactionRevenue, year, month)
	if err != nil {
		return nil, err
	}
	expenses, err := s.flow(ctx, companyID, cache.FlowExpenses, models.TransactionExpense, year, month)
	if err != nil {
		return nil, err
	}

	revenue, _ := decimal.NewFromString(revenues.Total)
	expense, _ := decimal.NewFromString(expenses.Total)
	return &MonthSummary{
		Year:     year,
		Month:    int(month),
		Revenues: revenues,
		Expenses: expenses,
		Net:      revenue.Sub(expense).StringFixed(2),
	}, nil
}

func (s *DashboardService) flow(ctx context.Context, companyID uuid.UUID, flow string, txType models.TransactionType, year int, month time.Month) (FlowTotals, error) {
	key := cache.DashboardKey(flow, companyID, year, month)
	return cache.CachedMonth(ctx, s.versioner.Store(), s.versioner.TTL(), key, func(ctx context.Context) (FlowTotals, error) {
		first := civil.Date{Year: year, Month: month, Day: 1}
		last := civil.Date{Year: year, Month: month, Day: schedule.DaysIn(year, month)}
		prevFirst := schedule.AddMonths(first, -1)
		prevLast := first.AddDays(-1)

		total, err := s.repo.SumByType(ctx, companyID, txType, schedule.ToTime(first), schedule.ToTime(last))
		if err != nil {
			return FlowTotals{}, classify("sum "+flow, err)
		}
		previous, err := s.repo.SumByType(ctx, companyID, txType, schedule.ToTime(prevFirst), schedule.ToTime(prevLast))
		if err != nil {
			return FlowTotals{}, classify("sum previous "+flow, err)
		}
		byCategory, err := s.repo.TotalsByCategory(ctx, companyID, txType, schedule.ToTime(first), schedule.ToTime(last))
		if err != nil {
			return FlowTotals{}, classify("sum "+flow+" by category", err)
		}
		if byCategory == nil {
			byCategory = []repository.CategoryTotal{}
		}

		return FlowTotals{
			Total:         total.StringFixed(2),
			PreviousTotal: previous.StringFixed(2),
			Change:        percentageChange(total, previous),
			ByCategory:    byCategory,
		}, nil
	})
}

// percentageChange computes the difference between current and previous in
// percent, rounded to one decimal
func percentageChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100.0
		}
		return 0.0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(hundred).Round(1).Float64()
	return change
}
