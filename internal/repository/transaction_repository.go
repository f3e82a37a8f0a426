package repository

import (
	"context"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountTypeTotal is the sum of amounts for one (account, type) pair
type AccountTypeTotal struct {
	BankAccountID uuid.UUID
	Type          models.TransactionType
	Total         decimal.Decimal
}

// TransactionFilter narrows a transaction listing
type TransactionFilter struct {
	Type          models.TransactionType
	BankAccountID *uuid.UUID
	CategoryIDs   []uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
}

// TransactionRepository defines the interface for ledger entry data access
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	SetLinked(ctx context.Context, id uuid.UUID, linkedID *uuid.UUID) error
	ClearReferencesTo(ctx context.Context, id uuid.UUID) error
	SumReversals(ctx context.Context, originalID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, companyID uuid.UUID, filter TransactionFilter, query *ListQuery) ([]models.Transaction, int64, error)
	TotalsByAccountAndType(ctx context.Context, companyID uuid.UUID) ([]AccountTypeTotal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

var transactionSortColumns = map[string]bool{
	"transaction_date": true,
	"amount":           true,
	"description":      true,
	"created_at":       true,
	"type":             true,
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// LockByID loads the row FOR UPDATE; concurrent refunds of the same
// original serialize here
func (r *transactionRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) SetLinked(ctx context.Context, id uuid.UUID, linkedID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("linked_transaction_id", linkedID).Error
}

// ClearReferencesTo nulls linked and related pointers aimed at id
func (r *transactionRepository) ClearReferencesTo(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Transaction{}).
		Where("linked_transaction_id = ?", id).
		Update("linked_transaction_id", nil).Error; err != nil {
		return err
	}
	return db.Model(&models.Transaction{}).
		Where("related_transaction_id = ?", id).
		Update("related_transaction_id", nil).Error
}

func (r *transactionRepository) SumReversals(ctx context.Context, originalID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("related_transaction_id = ? AND type = ?", originalID, models.TransactionReversal).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *transactionRepository) List(ctx context.Context, companyID uuid.UUID, filter TransactionFilter, query *ListQuery) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("company_id = ?", companyID)

	if query.Search != "" {
		db = db.Where("LOWER(description) LIKE LOWER(?)", "%"+query.Search+"%")
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.BankAccountID != nil {
		db = db.Where("bank_account_id = ?", *filter.BankAccountID)
	}
	if len(filter.CategoryIDs) > 0 {
		db = db.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.DateFrom != nil {
		db = db.Where("transaction_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("transaction_date <= ?", *filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order(transactionSortColumns, "transaction_date DESC")).Order("created_at DESC")
	err := query.paginate(db).Find(&txs).Error
	return txs, total, err
}

// TotalsByAccountAndType groups amounts so balances can be rebuilt from the ledger
func (r *transactionRepository) TotalsByAccountAndType(ctx context.Context, companyID uuid.UUID) ([]AccountTypeTotal, error) {
	var rows []AccountTypeTotal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("bank_account_id, type, SUM(amount) AS total").
		Where("company_id = ?", companyID).
		Group("bank_account_id, type").
		Scan(&rows).Error
	return rows, err
}
