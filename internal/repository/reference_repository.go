package repository

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository covers the small lookup tables transactions point at:
// cash registers, cost centers, contacts and payment methods
type ReferenceRepository interface {
	CreateCashRegister(ctx context.Context, register *models.CashRegister) error
	FindCashRegister(ctx context.Context, id uuid.UUID) (*models.CashRegister, error)
	ListCashRegisters(ctx context.Context, companyID uuid.UUID) ([]models.CashRegister, error)

	CreateCostCenter(ctx context.Context, center *models.CostCenter) error
	FindCostCenter(ctx context.Context, id uuid.UUID) (*models.CostCenter, error)
	ListCostCenters(ctx context.Context, companyID uuid.UUID) ([]models.CostCenter, error)

	CreateContact(ctx context.Context, contact *models.Contact) error
	FindContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)

	FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new reference data repository
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func findByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *referenceRepository) CreateCashRegister(ctx context.Context, register *models.CashRegister) error {
	return r.db.WithContext(ctx).Create(register).Error
}

func (r *referenceRepository) FindCashRegister(ctx context.Context, id uuid.UUID) (*models.CashRegister, error) {
	return findByID[models.CashRegister](ctx, r.db, id)
}

func (r *referenceRepository) ListCashRegisters(ctx context.Context, companyID uuid.UUID) ([]models.CashRegister, error) {
	var registers []models.CashRegister
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name ASC").Find(&registers).Error
	return registers, err
}

func (r *referenceRepository) CreateCostCenter(ctx context.Context, center *models.CostCenter) error {
	return r.db.WithContext(ctx).Create(center).Error
}

func (r *referenceRepository) FindCostCenter(ctx context.Context, id uuid.UUID) (*models.CostCenter, error) {
	return findByID[models.CostCenter](ctx, r.db, id)
}

func (r *referenceRepository) ListCostCenters(ctx context.Context, companyID uuid.UUID) ([]models.CostCenter, error) {
	var centers []models.CostCenter
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("code ASC, name ASC").Find(&centers).Error
	return centers, err
}

func (r *referenceRepository) CreateContact(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *referenceRepository) FindContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return findByID[models.Contact](ctx, r.db, id)
}

func (r *referenceRepository) FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	return findByID[models.PaymentMethod](ctx, r.db, id)
}
