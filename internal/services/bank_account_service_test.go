package services

import (
	"testing"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankAccount_TotalBalanceExcludesCreditLines(t *testing.T) {
	f := newFixture(t)
	f.account("Card", models.BankAccountCreditBank, "-300.00")
	f.account("Safe", models.BankAccountSafe, "50.00")

	total, err := f.svc.BankAccount.TotalBalance(f.ctx, f.company)
	require.NoError(t, err)
	assert.Equal(t, "1050.00", total.Total)
	assert.Equal(t, 3, total.Accounts)

	f.post(models.TransactionRevenue, f.savings, "25.00", &f.revenue)

	total, err = f.svc.BankAccount.TotalBalance(f.ctx, f.company)
	require.NoError(t, err)
	assert.Equal(t, "1075.00", total.Total)
}

func TestBankAccount_CreateValidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BankAccount.Create(f.ctx, f.company, BankAccountInput{Type: models.BankAccountType("vault")})
	requireFields(t, err, "name", "type")
}

func TestBankAccount_GetIsScopedToCompany(t *testing.T) {
	f := newFixture(t)
	other, _ := f.otherCompany()
	_, err := f.svc.BankAccount.Get(f.ctx, other, f.checking)
	assert.ErrorIs(t, err, ErrNotFound)
}
