package repository

import (
	"context"
	"sort"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankAccountRepository defines the interface for bank account data access.
// current_balance is only written through ApplyDelta and SetCurrentBalance.
type BankAccountRepository interface {
	Create(ctx context.Context, account *models.BankAccount) error
	UpdateDetails(ctx context.Context, account *models.BankAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error)
	LockByIDs(ctx context.Context, ids ...uuid.UUID) ([]models.BankAccount, error)
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	SetCurrentBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	List(ctx context.Context, companyID uuid.UUID) ([]models.BankAccount, error)
	TotalBalance(ctx context.Context, companyID uuid.UUID, exclude ...models.BankAccountType) (decimal.Decimal, error)
}

type bankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// UpdateDetails saves descriptive fields only, never the balances
func (r *bankAccountRepository) UpdateDetails(ctx context.Context, account *models.BankAccount) error {
	return r.db.WithContext(ctx).
		Model(account).
		Select("Name", "Type").
		Updates(account).Error
}

func (r *bankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// LockByIDs selects the accounts FOR UPDATE in ascending id order so two
// writers touching the same pair of accounts cannot deadlock. Missing ids
// are simply absent from the result.
func (r *bankAccountRepository) LockByIDs(ctx context.Context, ids ...uuid.UUID) ([]models.BankAccount, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })

	var accounts []models.BankAccount
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", unique).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// ApplyDelta increments current_balance atomically in the database
func (r *bankAccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.BankAccount{}).
		Where("id = ?", id).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bankAccountRepository) SetCurrentBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.BankAccount{}).
		Where("id = ?", id).
		Update("current_balance", balance).Error
}

func (r *bankAccountRepository) List(ctx context.Context, companyID uuid.UUID) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *bankAccountRepository) TotalBalance(ctx context.Context, companyID uuid.UUID, exclude ...models.BankAccountType) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	db := r.db.WithContext(ctx).
		Model(&models.BankAccount{}).
		Select("SUM(current_balance)").
		Where("company_id = ?", companyID)
	if len(exclude) > 0 {
		db = db.Where("type NOT IN ?", exclude)
	}
	if err := db.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
