package services

import (
	"testing"
	"time"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func requireFields(t *testing.T, err error, fields ...string) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range fields {
		assert.Contains(t, verr.Fields, field)
	}
	return verr
}

func TestTransaction_BalanceInvariantAcrossWrites(t *testing.T) {
	f := newFixture(t)

	sale := f.post(models.TransactionRevenue, f.checking, "200.00", &f.revenue)
	rent := f.post(models.TransactionExpense, f.checking, "50.00", &f.expense)
	f.post(models.TransactionRevenue, f.savings, "30.00", &f.revenue)

	amount := dec("80.00")
	_, err := f.svc.Transaction.Update(f.ctx, f.company, rent.ID, TransactionPatch{Amount: &amount, BankAccountID: &f.savings})
	require.NoError(t, err)
	require.NoError(t, f.svc.Transaction.Delete(f.ctx, f.company, sale.ID))

	f.requireBalance(f.checking, "1000.00")
	f.requireBalance(f.savings, "-50.00")

	// initial + signed sum, recomputed from the ledger, agrees with the stored balance
	drifts, err := f.svc.Ledger.Recalculate(f.ctx, f.company)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestTransaction_TransferWithDeduction(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{
		ToBankAccountID:     f.savings,
		Amount:              dec("1000"),
		DeductionPercentage: dec("10"),
	})
	require.NoError(t, err)

	out, in := result.Outgoing, result.Incoming
	assert.Equal(t, models.TransactionExternalTransfer, out.Type)
	assert.Equal(t, models.TransactionInternalTransfer, in.Type)
	assert.Equal(t, "1000.00", out.Amount.StringFixed(2))
	assert.Equal(t, "900.00", in.Amount.StringFixed(2))
	assert.Equal(t, out.TransactionDate, in.TransactionDate)
	assert.Equal(t, "Outgoing: Transfer between accounts (deduction: 10% = 100.00)", out.Description)
	assert.Equal(t, "Incoming: Transfer between accounts (net of 10% deduction)", in.Description)

	storedOut, err := f.repos.Transaction.FindByID(f.ctx, out.ID)
	require.NoError(t, err)
	storedIn, err := f.repos.Transaction.FindByID(f.ctx, in.ID)
	require.NoError(t, err)
	require.NotNil(t, storedOut.LinkedTransactionID)
	require.NotNil(t, storedIn.LinkedTransactionID)
	assert.Equal(t, in.ID, *storedOut.LinkedTransactionID)
	assert.Equal(t, out.ID, *storedIn.LinkedTransactionID)

	f.requireBalance(f.checking, "0.00")
	f.requireBalance(f.savings, "900.00")
}

func TestTransaction_TransferValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{
		ToBankAccountID:     f.checking,
		Amount:              dec("10"),
		DeductionPercentage: dec("100"),
	})
	requireFields(t, err, "to_bank_account_id", "deduction_percentage")

	_, err = f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{
		ToBankAccountID: f.savings,
		Amount:          dec("-1"),
	})
	requireFields(t, err, "amount")
}

func TestTransaction_TransferToForeignAccountRollsBack(t *testing.T) {
	f := newFixture(t)
	_, foreign := f.otherCompany()

	_, err := f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{
		ToBankAccountID: foreign,
		Amount:          dec("100"),
	})
	requireFields(t, err, "to_bank_account_id")

	items, total, err := f.svc.Transaction.List(f.ctx, f.company, TransactionListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	f.requireBalance(f.checking, "1000.00")
}

func TestTransaction_UpdateAppliesNetDelta(t *testing.T) {
	f := newFixture(t)
	rent := f.post(models.TransactionExpense, f.checking, "100", &f.expense)
	f.requireBalance(f.checking, "900.00")

	amount := dec("150")
	updated, err := f.svc.Transaction.Update(f.ctx, f.company, rent.ID, TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "150.00", updated.Amount.StringFixed(2))

	// -50, not -150 or -250
	f.requireBalance(f.checking, "850.00")
}

func TestTransaction_DeleteRevertsDelta(t *testing.T) {
	f := newFixture(t)
	sale := f.post(models.TransactionRevenue, f.checking, "200", &f.revenue)
	f.requireBalance(f.checking, "1200.00")

	require.NoError(t, f.svc.Transaction.Delete(f.ctx, f.company, sale.ID))
	f.requireBalance(f.checking, "1000.00")

	_, err := f.svc.Transaction.Get(f.ctx, f.company, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_DeleteClearsTransferLink(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{ToBankAccountID: f.savings, Amount: dec("40")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Transaction.Delete(f.ctx, f.company, result.Outgoing.ID))

	incoming, err := f.repos.Transaction.FindByID(f.ctx, result.Incoming.ID)
	require.NoError(t, err)
	assert.Nil(t, incoming.LinkedTransactionID)
	f.requireBalance(f.checking, "1000.00")
	f.requireBalance(f.savings, "40.00")
}

func TestTransaction_RefundCeiling(t *testing.T) {
	f := newFixture(t)
	sale := f.post(models.TransactionRevenue, f.checking, "500", &f.revenue)

	first, err := f.svc.Transaction.Refund(f.ctx, f.company, sale.ID, RefundInput{Amount: dec("200"), Description: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionReversal, first.Type)
	assert.Equal(t, "Refund: damaged", first.Description)
	require.NotNil(t, first.RelatedTransactionID)
	assert.Equal(t, sale.ID, *first.RelatedTransactionID)
	assert.Equal(t, sale.CategoryID, first.CategoryID)
	assert.Equal(t, sale.BankAccountID, first.BankAccountID)

	_, err = f.svc.Transaction.Refund(f.ctx, f.company, sale.ID, RefundInput{Amount: dec("301"), Description: "too much"})
	requireFields(t, err, "amount")

	_, err = f.svc.Transaction.Refund(f.ctx, f.company, sale.ID, RefundInput{Amount: dec("300"), Description: "rest"})
	require.NoError(t, err)

	_, err = f.svc.Transaction.Refund(f.ctx, f.company, sale.ID, RefundInput{Amount: dec("0.01"), Description: "more"})
	requireFields(t, err, "amount")

	// reversals carry a zero delta
	f.requireBalance(f.checking, "1500.00")
}

// lockedTransactions collects the ids of transactions loaded FOR UPDATE
func (f *fixture) lockedTransactions() *[]uuid.UUID {
	f.t.Helper()
	var locked []uuid.UUID
	err := f.repos.DB().Callback().Query().After("gorm:query").Register("test:locked_transactions", func(db *gorm.DB) {
		if _, ok := db.Statement.Clauses["FOR"]; !ok {
			return
		}
		if tx, ok := db.Statement.Dest.(*models.Transaction); ok {
			locked = append(locked, tx.ID)
		}
	})
	require.NoError(f.t, err)
	return &locked
}

func TestTransaction_UpdateReversalLocksOriginal(t *testing.T) {
	f := newFixture(t)
	sale := f.post(models.TransactionRevenue, f.checking, "500", &f.revenue)
	refund, err := f.svc.Transaction.Refund(f.ctx, f.company, sale.ID, RefundInput{Amount: dec("200"), Description: "damaged"})
	require.NoError(t, err)
	locked := f.lockedTransactions()

	amount := dec("450")
	_, err = f.svc.Transaction.Update(f.ctx, f.company, refund.ID, TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Contains(t, *locked, refund.ID)
	assert.Contains(t, *locked, sale.ID)

	amount = dec("500.01")
	_, err = f.svc.Transaction.Update(f.ctx, f.company, refund.ID, TransactionPatch{Amount: &amount})
	requireFields(t, err, "amount")
}

func TestTransaction_RefundRejectsNonRevenue(t *testing.T) {
	f := newFixture(t)
	rent := f.post(models.TransactionExpense, f.checking, "80", &f.expense)

	_, err := f.svc.Transaction.Refund(f.ctx, f.company, rent.ID, RefundInput{Amount: dec("10"), Description: "x"})
	requireFields(t, err, "transaction")

	_, err = f.svc.Transaction.Refund(f.ctx, f.company, uuid.New(), RefundInput{Amount: dec("10"), Description: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_ValidateCollectsEveryViolation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Transaction.Create(f.ctx, f.company, TransactionInput{
		BankAccountID:   f.checking,
		CategoryID:      &f.expense,
		Amount:          dec("-5"),
		Type:            models.TransactionRevenue,
		TransactionDate: f.today,
	})
	verr := requireFields(t, err, "amount", "category_id", "description")
	assert.ErrorIs(t, verr, ErrValidation)
}

func TestTransaction_ValidateRules(t *testing.T) {
	f := newFixture(t)
	otherCompany, foreignAccount := f.otherCompany()
	foreignCategory, err := f.svc.Category.Create(f.ctx, otherCompany, CategoryInput{Name: "Theirs", Type: models.CategoryRevenue})
	require.NoError(t, err)
	register, err := f.svc.Reference.CreateCashRegister(f.ctx, f.company, CashRegisterInput{Name: "Front desk", DefaultBankAccountID: f.checking})
	require.NoError(t, err)
	sale := f.post(models.TransactionRevenue, f.checking, "10", &f.revenue)

	base := func() TransactionInput {
		return TransactionInput{
			BankAccountID:   f.checking,
			Description:     "x",
			Amount:          dec("10"),
			Type:            models.TransactionRevenue,
			TransactionDate: f.today,
		}
	}

	tests := []struct {
		name   string
		mutate func(in *TransactionInput)
		field  string
	}{
		{"foreign bank account", func(in *TransactionInput) { in.BankAccountID = foreignAccount }, "bank_account_id"},
		{"foreign category", func(in *TransactionInput) { in.CategoryID = &foreignCategory.ID }, "category_id"},
		{"transfer with category", func(in *TransactionInput) {
			in.Type = models.TransactionExternalTransfer
			in.CategoryID = &f.expense
		}, "category_id"},
		{"transfer with cash register", func(in *TransactionInput) {
			in.Type = models.TransactionInternalTransfer
			in.CashRegisterID = &register.ID
		}, "cash_register_id"},
		{"cash register routed to another account", func(in *TransactionInput) {
			in.BankAccountID = f.savings
			in.CashRegisterID = &register.ID
		}, "bank_account_id"},
		{"link on non-transfer", func(in *TransactionInput) { in.LinkedTransactionID = &sale.ID }, "linked_transaction_id"},
		{"link to non-transfer", func(in *TransactionInput) {
			in.Type = models.TransactionExternalTransfer
			in.LinkedTransactionID = &sale.ID
		}, "linked_transaction_id"},
		{"related on non-reversal", func(in *TransactionInput) { in.RelatedTransactionID = &sale.ID }, "related_transaction_id"},
		{"too many decimals", func(in *TransactionInput) { in.Amount = dec("1.005") }, "amount"},
		{"unknown type", func(in *TransactionInput) { in.Type = "gift" }, "type"},
		{"reversal through create", func(in *TransactionInput) { in.Type = models.TransactionReversal }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := f.svc.Transaction.Create(f.ctx, f.company, in)
			requireFields(t, err, tt.field)
		})
	}

	t.Run("routed cash register is accepted", func(t *testing.T) {
		in := base()
		in.CashRegisterID = &register.ID
		_, err := f.svc.Transaction.Create(f.ctx, f.company, in)
		assert.NoError(t, err)
	})

	t.Run("missing references are not found", func(t *testing.T) {
		in := base()
		missing := uuid.New()
		in.CategoryID = &missing
		_, err := f.svc.Transaction.Create(f.ctx, f.company, in)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "category_id", nf.Field)
	})
}

func TestTransaction_UpdateGuards(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.Transaction.Transfer(f.ctx, f.company, f.checking, TransferInput{ToBankAccountID: f.savings, Amount: dec("5")})
	require.NoError(t, err)

	expense := models.TransactionExpense
	_, err = f.svc.Transaction.Update(f.ctx, f.company, result.Outgoing.ID, TransactionPatch{Type: &expense})
	requireFields(t, err, "type")

	reversal := models.TransactionReversal
	sale := f.post(models.TransactionRevenue, f.checking, "10", &f.revenue)
	_, err = f.svc.Transaction.Update(f.ctx, f.company, sale.ID, TransactionPatch{Type: &reversal})
	requireFields(t, err, "type")

	otherCompany, _ := f.otherCompany()
	_, err = f.svc.Transaction.Update(f.ctx, otherCompany, sale.ID, TransactionPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_UpdateClearsOptionalReference(t *testing.T) {
	f := newFixture(t)
	sale := f.post(models.TransactionRevenue, f.checking, "10", &f.revenue)

	updated, err := f.svc.Transaction.Update(f.ctx, f.company, sale.ID, TransactionPatch{CategoryID: ClearID()})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}

func TestTransaction_Withdraw(t *testing.T) {
	f := newFixture(t)

	tx, err := f.svc.Transaction.Withdraw(f.ctx, f.company, f.checking, WithdrawInput{Amount: dec("120.25")})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionExpense, tx.Type)
	assert.Equal(t, "Withdrawal", tx.Description)
	f.requireBalance(f.checking, "879.75")

	otherCompany, _ := f.otherCompany()
	_, err = f.svc.Transaction.Withdraw(f.ctx, otherCompany, f.checking, WithdrawInput{Amount: dec("1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func (f *fixture) dashboardVersion(key string) int64 {
	f.t.Helper()
	v, err := cache.DashboardVersion(f.ctx, f.store, key)
	require.NoError(f.t, err)
	return v
}

func TestTransaction_WritesInvalidateDashboardMonths(t *testing.T) {
	f := newFixture(t)
	march := cache.DashboardKey(cache.FlowExpenses, f.company, 2024, time.March)
	aprilRevenue := cache.DashboardKey(cache.FlowRevenues, f.company, 2024, time.April)

	rent := f.post(models.TransactionExpense, f.checking, "10", nil)
	assert.Equal(t, int64(1), f.dashboardVersion(march))
	assert.Zero(t, f.dashboardVersion(aprilRevenue))

	revenue := models.TransactionRevenue
	april := date(2024, time.April, 2)
	_, err := f.svc.Transaction.Update(f.ctx, f.company, rent.ID, TransactionPatch{Type: &revenue, TransactionDate: &april})
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.dashboardVersion(march))
	assert.Equal(t, int64(1), f.dashboardVersion(aprilRevenue))
}

func TestTransaction_ListIsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	f.post(models.TransactionRevenue, f.checking, "10", &f.revenue)

	before := f.version(cache.KindTransactions)
	_, total, err := f.svc.Transaction.List(f.ctx, f.company, TransactionListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	f.post(models.TransactionRevenue, f.checking, "20", &f.revenue)
	assert.Greater(t, f.version(cache.KindTransactions), before)

	_, total, err = f.svc.Transaction.List(f.ctx, f.company, TransactionListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestTransaction_ListByCategoryIncludesSubcategories(t *testing.T) {
	f := newFixture(t)
	online := f.category("Online sales", models.CategoryRevenue, &f.revenue)
	services := f.category("Services", models.CategoryRevenue, nil)

	f.post(models.TransactionRevenue, f.checking, "10", &f.revenue)
	f.post(models.TransactionRevenue, f.checking, "20", &online.ID)
	f.post(models.TransactionRevenue, f.checking, "30", &services.ID)

	query := repository.NewListQuery()
	items, total, err := f.svc.Transaction.List(f.ctx, f.company, TransactionListParams{Query: query, CategoryID: &f.revenue})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	assert.Equal(t, "30.00", sum.StringFixed(2))
}
