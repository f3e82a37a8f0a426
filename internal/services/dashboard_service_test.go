package services

import (
	"context"
	"testing"
	"time"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDashboardRepo struct {
	calls         int
	mockSumByType func(txType models.TransactionType, from time.Time) decimal.Decimal
}

func (m *mockDashboardRepo) SumByType(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	m.calls++
	return m.mockSumByType(txType, from), nil
}

func (m *mockDashboardRepo) TotalsByCategory(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) ([]repository.CategoryTotal, error) {
	return nil, nil
}

func TestDashboard_MonthIsReadThrough(t *testing.T) {
	repo := &mockDashboardRepo{}
	repo.mockSumByType = func(txType models.TransactionType, from time.Time) decimal.Decimal {
		if from.Month() == time.February {
			return dec("100.00")
		}
		if txType == models.TransactionRevenue {
			return dec("150.00")
		}
		return dec("40.00")
	}
	service := NewDashboardService(repo, cache.NewVersioner(cache.NewMemoryStore(), 0))
	company := uuid.New()

	summary, err := service.Month(context.Background(), company, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, "150.00", summary.Revenues.Total)
	assert.Equal(t, "100.00", summary.Revenues.PreviousTotal)
	assert.Equal(t, 50.0, summary.Revenues.Change)
	assert.Equal(t, -60.0, summary.Expenses.Change)
	assert.Equal(t, "110.00", summary.Net)
	assert.NotNil(t, summary.Revenues.ByCategory)
	assert.Equal(t, 4, repo.calls)

	_, err = service.Month(context.Background(), company, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 4, repo.calls)
}

func TestDashboard_InvalidMonth(t *testing.T) {
	service := NewDashboardService(&mockDashboardRepo{}, cache.NewVersioner(cache.NewMemoryStore(), 0))
	_, err := service.Month(context.Background(), uuid.New(), 2024, time.Month(13))
	requireFields(t, err, "month")
}

func TestDashboard_LedgerWritesInvalidateMonth(t *testing.T) {
	f := newFixture(t)
	f.post(models.TransactionRevenue, f.checking, "200.00", &f.revenue)

	summary, err := f.svc.Dashboard.Month(f.ctx, f.company, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, "200.00", summary.Revenues.Total)

	f.post(models.TransactionRevenue, f.checking, "50.00", &f.revenue)
	f.post(models.TransactionExpense, f.checking, "30.00", &f.expense)

	summary, err = f.svc.Dashboard.Month(f.ctx, f.company, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, "250.00", summary.Revenues.Total)
	assert.Equal(t, "30.00", summary.Expenses.Total)
	assert.Equal(t, "220.00", summary.Net)
	require.Len(t, summary.Revenues.ByCategory, 1)
	assert.True(t, summary.Revenues.ByCategory[0].Total.Equal(dec("250")))
}

func TestPercentageChange(t *testing.T) {
	assert.Equal(t, 100.0, percentageChange(dec("5"), decimal.Zero))
	assert.Equal(t, 0.0, percentageChange(decimal.Zero, decimal.Zero))
	assert.Equal(t, 33.3, percentageChange(dec("4"), dec("3")))
}
