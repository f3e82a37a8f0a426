package repository

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ObligationRepository defines the interface for bill and income data access
type ObligationRepository interface {
	Create(ctx context.Context, obligation *models.Obligation) error
	Update(ctx context.Context, obligation *models.Obligation) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Obligation, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Obligation, error)
	List(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *ListQuery) ([]models.Obligation, int64, error)
	ClearPaymentTransaction(ctx context.Context, transactionID uuid.UUID) error
}

type obligationRepository struct {
	db *gorm.DB
}

// NewObligationRepository creates a new obligation repository
func NewObligationRepository(db *gorm.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

var obligationSortColumns = map[string]bool{
	"due_date":    true,
	"amount":      true,
	"description": true,
	"status":      true,
	"created_at":  true,
}

func (r *obligationRepository) Create(ctx context.Context, obligation *models.Obligation) error {
	return r.db.WithContext(ctx).Create(obligation).Error
}

func (r *obligationRepository) Update(ctx context.Context, obligation *models.Obligation) error {
	return r.db.WithContext(ctx).Save(obligation).Error
}

func (r *obligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Obligation{}, "id = ?", id).Error
}

func (r *obligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Obligation, error) {
	var obligation models.Obligation
	if err := r.db.WithContext(ctx).First(&obligation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &obligation, nil
}

func (r *obligationRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Obligation, error) {
	var obligation models.Obligation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&obligation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &obligation, nil
}

func (r *obligationRepository) List(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *ListQuery) ([]models.Obligation, int64, error) {
	var obligations []models.Obligation
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("company_id = ? AND kind = ?", companyID, kind)

	if query.Search != "" {
		db = db.Where("LOWER(description) LIKE LOWER(?)", "%"+query.Search+"%")
	}
	if status := query.Filters["status"]; status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order(obligationSortColumns, "due_date ASC"))
	err := query.paginate(db).Find(&obligations).Error
	return obligations, total, err
}

// ClearPaymentTransaction detaches obligations from a transaction that is being deleted
func (r *obligationRepository) ClearPaymentTransaction(ctx context.Context, transactionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Obligation{}).
		Where("payment_transaction_id = ?", transactionID).
		Update("payment_transaction_id", nil).Error
}
