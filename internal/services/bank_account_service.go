package services

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccountInput is the payload of a new bank account
type BankAccountInput struct {
	Name           string                 `json:"name" binding:"required"`
	Type           models.BankAccountType `json:"type" binding:"required"`
	InitialBalance decimal.Decimal        `json:"initial_balance"`
}

// TotalBalance is the sum of current balances, credit bank accounts excluded
type TotalBalance struct {
	Total    string `json:"total_balance"`
	Accounts int    `json:"accounts"`
}

type BankAccountService struct {
	repos     *repository.Repositories
	ledger    *LedgerService
	versioner *cache.Versioner
	audit     *AuditService
}

func NewBankAccountService(repos *repository.Repositories, ledger *LedgerService, versioner *cache.Versioner, audit *AuditService) *BankAccountService {
	return &BankAccountService{repos: repos, ledger: ledger, versioner: versioner, audit: audit}
}

// Create opens an account. Its current balance starts at the initial balance.
func (s *BankAccountService) Create(ctx context.Context, companyID uuid.UUID, input BankAccountInput) (*models.BankAccount, error) {
	verr := NewValidationError()
	if input.Name == "" {
		verr.Add("name", "is required")
	}
	if !input.Type.Valid() {
		verr.Add("type", "unknown bank account type")
	}
	if !input.InitialBalance.Equal(input.InitialBalance.Round(2)) {
		verr.Add("initial_balance", "must have at most 2 decimal places")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	account := &models.BankAccount{
		CompanyID:      companyID,
		Name:           input.Name,
		Type:           input.Type,
		InitialBalance: input.InitialBalance,
		CurrentBalance: input.InitialBalance,
	}
	if err := s.repos.BankAccount.Create(ctx, account); err != nil {
		return nil, classify("create bank account", err)
	}

	s.versioner.BumpAll(ctx, companyID, cache.KindBankAccounts)
	s.audit.Log(ctx, companyID, models.AuditActionCreate, "BankAccount", account.ID, map[string]interface{}{
		"name": account.Name, "initial_balance": account.InitialBalance.StringFixed(2),
	})
	return account, nil
}

func (s *BankAccountService) Get(ctx context.Context, companyID, id uuid.UUID) (*models.BankAccount, error) {
	account, err := s.repos.BankAccount.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError("bank account", "", err)
	}
	if account.CompanyID != companyID {
		return nil, notFound("bank account")
	}
	return account, nil
}

func (s *BankAccountService) List(ctx context.Context, companyID uuid.UUID) ([]models.BankAccount, error) {
	accounts, err := s.repos.BankAccount.List(ctx, companyID)
	if err != nil {
		return nil, classify("list bank accounts", err)
	}
	return accounts, nil
}

// TotalBalance sums current balances of the company, read through the cache
func (s *BankAccountService) TotalBalance(ctx context.Context, companyID uuid.UUID) (*TotalBalance, error) {
	return cache.Cached(ctx, s.versioner, companyID, cache.KindBankAccounts, map[string]string{"view": "total_balance"},
		func(ctx context.Context) (*TotalBalance, error) {
			total, err := s.repos.BankAccount.TotalBalance(ctx, companyID, models.BankAccountCreditBank)
			if err != nil {
				return nil, classify("sum bank balances", err)
			}
			accounts, err := s.repos.BankAccount.List(ctx, companyID)
			if err != nil {
				return nil, classify("list bank accounts", err)
			}
			count := 0
			for _, a := range accounts {
				if a.Type != models.BankAccountCreditBank {
					count++
				}
			}
			return &TotalBalance{Total: total.StringFixed(2), Accounts: count}, nil
		})
}

// Recalculate rebuilds the balances of every account of the company
func (s *BankAccountService) Recalculate(ctx context.Context, companyID uuid.UUID) ([]BalanceDrift, error) {
	drifts, err := s.ledger.Recalculate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(drifts) > 0 {
		s.versioner.BumpAll(ctx, companyID, cache.KindBankAccounts)
	}
	return drifts, nil
}
