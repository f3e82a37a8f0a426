package repository

import (
	"context"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecurringRepository defines the interface for recurring templates and
// the instances generated from them
type RecurringRepository interface {
	CreateTemplate(ctx context.Context, template *models.RecurringTemplate) error
	UpdateTemplate(ctx context.Context, template *models.RecurringTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.RecurringTemplate, error)
	LockTemplate(ctx context.Context, id uuid.UUID) (*models.RecurringTemplate, error)
	ListTemplates(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *ListQuery) ([]models.RecurringTemplate, int64, error)
	DueTemplateIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error)

	InsertInstances(ctx context.Context, instances []models.RecurringInstance) (int64, error)
	UpdateInstance(ctx context.Context, instance *models.RecurringInstance) error
	FindInstance(ctx context.Context, id uuid.UUID) (*models.RecurringInstance, error)
	LockInstance(ctx context.Context, id uuid.UUID) (*models.RecurringInstance, error)
	ListInstances(ctx context.Context, templateID uuid.UUID) ([]models.RecurringInstance, error)
	InstanceDueDates(ctx context.Context, templateID uuid.UUID) ([]time.Time, error)
	DeletePendingFrom(ctx context.Context, templateID uuid.UUID, from time.Time) (int64, error)
	DetachInstances(ctx context.Context, templateID uuid.UUID) error
	ClearInstanceTransaction(ctx context.Context, transactionID uuid.UUID) error
}

type recurringRepository struct {
	db *gorm.DB
}

// NewRecurringRepository creates a new recurring repository
func NewRecurringRepository(db *gorm.DB) RecurringRepository {
	return &recurringRepository{db: db}
}

var templateSortColumns = map[string]bool{
	"next_due_date": true,
	"amount":        true,
	"description":   true,
	"created_at":    true,
}

func (r *recurringRepository) CreateTemplate(ctx context.Context, template *models.RecurringTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *recurringRepository) UpdateTemplate(ctx context.Context, template *models.RecurringTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *recurringRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.RecurringTemplate{}, "id = ?", id).Error
}

func (r *recurringRepository) FindTemplate(ctx context.Context, id uuid.UUID) (*models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	if err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *recurringRepository) LockTemplate(ctx context.Context, id uuid.UUID) (*models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *recurringRepository) ListTemplates(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *ListQuery) ([]models.RecurringTemplate, int64, error) {
	var templates []models.RecurringTemplate
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.RecurringTemplate{}).
		Where("company_id = ? AND kind = ?", companyID, kind)

	if query.Search != "" {
		db = db.Where("LOWER(description) LIKE LOWER(?)", "%"+query.Search+"%")
	}
	switch query.Filters["active"] {
	case "true":
		db = db.Where("is_active = ?", true)
	case "false":
		db = db.Where("is_active = ?", false)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order(templateSortColumns, "next_due_date ASC"))
	err := query.paginate(db).Find(&templates).Error
	return templates, total, err
}

// DueTemplateIDs lists active templates whose next due date has arrived
func (r *recurringRepository) DueTemplateIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RecurringTemplate{}).
		Where("is_active = ? AND next_due_date <= ?", true, today).
		Order("next_due_date ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// InsertInstances bulk inserts, silently skipping (template_id, due_date)
// pairs that already exist. Returns the number of rows actually inserted.
// instanceBatchSize keeps bulk inserts under the driver's bind parameter limit
const instanceBatchSize = 500

func (r *recurringRepository) InsertInstances(ctx context.Context, instances []models.RecurringInstance) (int64, error) {
	if len(instances) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template_id"}, {Name: "due_date"}},
			DoNothing: true,
		}).
		CreateInBatches(&instances, instanceBatchSize)
	return result.RowsAffected, result.Error
}

func (r *recurringRepository) UpdateInstance(ctx context.Context, instance *models.RecurringInstance) error {
	return r.db.WithContext(ctx).Save(instance).Error
}

func (r *recurringRepository) FindInstance(ctx context.Context, id uuid.UUID) (*models.RecurringInstance, error) {
	var instance models.RecurringInstance
	if err := r.db.WithContext(ctx).First(&instance, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *recurringRepository) LockInstance(ctx context.Context, id uuid.UUID) (*models.RecurringInstance, error) {
	var instance models.RecurringInstance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&instance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *recurringRepository) ListInstances(ctx context.Context, templateID uuid.UUID) ([]models.RecurringInstance, error) {
	var instances []models.RecurringInstance
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("due_date ASC").
		Find(&instances).Error
	return instances, err
}

func (r *recurringRepository) InstanceDueDates(ctx context.Context, templateID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.RecurringInstance{}).
		Where("template_id = ?", templateID).
		Pluck("due_date", &dates).Error
	return dates, err
}

// DeletePendingFrom removes pending instances dated from onwards. Settled
// instances are history and never touched.
func (r *recurringRepository) DeletePendingFrom(ctx context.Context, templateID uuid.UUID, from time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("template_id = ? AND status = ? AND due_date >= ?", templateID, models.InstanceStatusPending, from).
		Delete(&models.RecurringInstance{})
	return result.RowsAffected, result.Error
}

func (r *recurringRepository) DetachInstances(ctx context.Context, templateID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RecurringInstance{}).
		Where("template_id = ?", templateID).
		Update("template_id", nil).Error
}

func (r *recurringRepository) ClearInstanceTransaction(ctx context.Context, transactionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RecurringInstance{}).
		Where("transaction_id = ?", transactionID).
		Update("transaction_id", nil).Error
}
