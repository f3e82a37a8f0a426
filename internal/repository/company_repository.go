package repository

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyRepository defines the interface for company and membership data access
type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	AddMember(ctx context.Context, membership *models.Membership) error
	IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
	FirstCompanyForUser(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) AddMember(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *companyRepository) IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	return count > 0, err
}

// FirstCompanyForUser picks the oldest membership when no company was requested
func (r *companyRepository) FirstCompanyForUser(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.company_id = companies.id").
		Where("memberships.user_id = ?", userID).
		Order("memberships.created_at ASC").
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Company{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
