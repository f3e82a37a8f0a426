package services

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delta is the signed effect of a transaction on its bank account.
// Reversals are informational and do not move the balance.
func Delta(txType models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case models.TransactionRevenue, models.TransactionInternalTransfer:
		return amount
	case models.TransactionExpense, models.TransactionExternalTransfer:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

func deltaOf(tx *models.Transaction) decimal.Decimal {
	if tx == nil {
		return decimal.Zero
	}
	return Delta(tx.Type, tx.Amount)
}

// BalanceDrift describes an account whose stored balance disagreed with its ledger
type BalanceDrift struct {
	BankAccountID uuid.UUID `json:"bank_account_id"`
	Name          string    `json:"name"`
	Stored        string    `json:"stored"`
	Expected      string    `json:"expected"`
}

// LedgerService keeps bank account balances equal to initial balance plus
// the signed sum of the account's transactions. All methods taking
// repositories must run inside a unit of work.
type LedgerService struct {
	repos *repository.Repositories
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repos *repository.Repositories) *LedgerService {
	return &LedgerService{repos: repos}
}

// Lock takes the row locks of the given accounts in ascending id order and
// fails with NotFoundError if any of them does not exist
func (s *LedgerService) Lock(ctx context.Context, repos *repository.Repositories, ids ...uuid.UUID) (map[uuid.UUID]*models.BankAccount, error) {
	accounts, err := repos.BankAccount.LockByIDs(ctx, ids...)
	if err != nil {
		return nil, classify("lock bank accounts", err)
	}

	locked := make(map[uuid.UUID]*models.BankAccount, len(accounts))
	for i := range accounts {
		locked[accounts[i].ID] = &accounts[i]
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok && id != uuid.Nil {
			return nil, &NotFoundError{Entity: "bank account", Field: "bank_account_id"}
		}
	}
	return locked, nil
}

// ApplyDelta increments the account balance. Zero deltas are skipped.
func (s *LedgerService) ApplyDelta(ctx context.Context, repos *repository.Repositories, bankAccountID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	if err := repos.BankAccount.ApplyDelta(ctx, bankAccountID, delta); err != nil {
		return classify("apply balance delta", err)
	}
	return nil
}

// Sync applies the net balance change between prev and next. prev is nil
// on create, next is nil on delete.
func (s *LedgerService) Sync(ctx context.Context, repos *repository.Repositories, prev, next *models.Transaction) error {
	var ids []uuid.UUID
	if prev != nil {
		ids = append(ids, prev.BankAccountID)
	}
	if next != nil {
		ids = append(ids, next.BankAccountID)
	}
	if _, err := s.Lock(ctx, repos, ids...); err != nil {
		return err
	}

	switch {
	case prev == nil && next == nil:
		return nil
	case prev == nil:
		return s.ApplyDelta(ctx, repos, next.BankAccountID, deltaOf(next))
	case next == nil:
		return s.ApplyDelta(ctx, repos, prev.BankAccountID, deltaOf(prev).Neg())
	case prev.BankAccountID == next.BankAccountID:
		return s.ApplyDelta(ctx, repos, next.BankAccountID, deltaOf(next).Sub(deltaOf(prev)))
	default:
		if err := s.ApplyDelta(ctx, repos, prev.BankAccountID, deltaOf(prev).Neg()); err != nil {
			return err
		}
		return s.ApplyDelta(ctx, repos, next.BankAccountID, deltaOf(next))
	}
}

// Recalculate rebuilds current_balance of every account of the company
// from its ledger and returns the accounts that had drifted
func (s *LedgerService) Recalculate(ctx context.Context, companyID uuid.UUID) ([]BalanceDrift, error) {
	var drifts []BalanceDrift

	err := s.repos.InTransaction(ctx, func(tx *repository.Repositories) error {
		accounts, err := tx.BankAccount.List(ctx, companyID)
		if err != nil {
			return classify("list bank accounts", err)
		}
		ids := make([]uuid.UUID, 0, len(accounts))
		for _, account := range accounts {
			ids = append(ids, account.ID)
		}
		locked, err := s.Lock(ctx, tx, ids...)
		if err != nil {
			return err
		}

		totals, err := tx.Transaction.TotalsByAccountAndType(ctx, companyID)
		if err != nil {
			return classify("sum transactions", err)
		}
		sums := make(map[uuid.UUID]decimal.Decimal)
		for _, row := range totals {
			sums[row.BankAccountID] = sums[row.BankAccountID].Add(Delta(row.Type, row.Total))
		}

		for _, id := range ids {
			account := locked[id]
			expected := account.InitialBalance.Add(sums[id])
			if expected.Equal(account.CurrentBalance) {
				continue
			}
			if err := tx.BankAccount.SetCurrentBalance(ctx, id, expected); err != nil {
				return classify("set balance", err)
			}
			drifts = append(drifts, BalanceDrift{
				BankAccountID: id,
				Name:          account.Name,
				Stored:        account.CurrentBalance.StringFixed(2),
				Expected:      expected.StringFixed(2),
			})
			logger.Warn("Bank account balance drift corrected",
				"company_id", companyID, "bank_account_id", id,
				"stored", account.CurrentBalance.StringFixed(2), "expected", expected.StringFixed(2))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
