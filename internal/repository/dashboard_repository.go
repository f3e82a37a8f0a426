package repository

import (
	"context"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryTotal is the sum of one category within a period
type CategoryTotal struct {
	CategoryID *uuid.UUID      `json:"category_id"`
	Total      decimal.Decimal `json:"total"`
}

// DashboardRepository serves the read-side sums behind the dashboard
type DashboardRepository interface {
	SumByType(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) (decimal.Decimal, error)
	TotalsByCategory(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) ([]CategoryTotal, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) SumByType(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("company_id = ? AND type = ?", companyID, txType).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *dashboardRepository) TotalsByCategory(ctx context.Context, companyID uuid.UUID, txType models.TransactionType, from, to time.Time) ([]CategoryTotal, error) {
	var rows []CategoryTotal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("category_id, SUM(amount) AS total").
		Where("company_id = ? AND type = ?", companyID, txType).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to).
		Group("category_id").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}
