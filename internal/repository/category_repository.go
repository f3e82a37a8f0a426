package repository

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, companyID uuid.UUID, categoryType models.CategoryType) ([]models.Category, error)
	ListChildren(ctx context.Context, companyID uuid.UUID, parentIDs []uuid.UUID) ([]models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, companyID uuid.UUID, categoryType models.CategoryType) ([]models.Category, error) {
	var categories []models.Category
	db := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if categoryType != "" {
		db = db.Where("type = ?", categoryType)
	}
	err := db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListChildren(ctx context.Context, companyID uuid.UUID, parentIDs []uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if len(parentIDs) == 0 {
		return categories, nil
	}
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND parent_id IN ?", companyID, parentIDs).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}
