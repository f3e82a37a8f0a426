package services

import (
	"testing"
	"time"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) bill(amount string) *models.Obligation {
	f.t.Helper()
	bill, err := f.svc.Settlement.Create(f.ctx, f.company, models.KindBill, ObligationInput{
		CategoryID:  &f.expense,
		Description: "Electricity",
		Amount:      dec(amount),
		DueDate:     f.today,
	})
	require.NoError(f.t, err)
	return bill
}

func TestSettlement_RecordBillPayment(t *testing.T) {
	f := newFixture(t)
	bill := f.bill("230.40")
	paidOn := date(2024, time.March, 20)

	billsBefore := f.version(cache.KindBills)
	txBefore := f.version(cache.KindTransactions)

	settled, payment, err := f.svc.Settlement.RecordPayment(f.ctx, f.company, models.KindBill, bill.ID, PaymentInput{
		BankAccountID:   f.checking,
		TransactionDate: &paidOn,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ObligationStatusSettled, settled.Status)
	require.NotNil(t, settled.PaymentTransactionID)
	assert.Equal(t, payment.ID, *settled.PaymentTransactionID)
	assert.Equal(t, models.TransactionExpense, payment.Type)
	assert.Equal(t, "Payment - Electricity", payment.Description)
	assert.Equal(t, "230.40", payment.Amount.StringFixed(2))
	assert.Equal(t, bill.CategoryID, payment.CategoryID)
	f.requireBalance(f.checking, "769.60")

	// settling a bill bumps both bills and transactions
	assert.Greater(t, f.version(cache.KindBills), billsBefore)
	assert.Greater(t, f.version(cache.KindTransactions), txBefore)
}

func TestSettlement_RecordIncomeReceipt(t *testing.T) {
	f := newFixture(t)
	income, err := f.svc.Settlement.Create(f.ctx, f.company, models.KindIncome, ObligationInput{
		CategoryID:  &f.revenue,
		Description: "Consulting",
		Amount:      dec("500"),
		DueDate:     f.today,
	})
	require.NoError(t, err)

	_, payment, err := f.svc.Settlement.RecordPayment(f.ctx, f.company, models.KindIncome, income.ID, PaymentInput{BankAccountID: f.savings})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionRevenue, payment.Type)
	assert.Equal(t, "Receipt - Consulting", payment.Description)
	assert.Equal(t, f.today.In(time.UTC), payment.TransactionDate)
	f.requireBalance(f.savings, "500.00")
}

func TestSettlement_SettleIsOneWay(t *testing.T) {
	f := newFixture(t)
	bill := f.bill("10")

	_, _, err := f.svc.Settlement.RecordPayment(f.ctx, f.company, models.KindBill, bill.ID, PaymentInput{BankAccountID: f.checking})
	require.NoError(t, err)

	_, _, err = f.svc.Settlement.RecordPayment(f.ctx, f.company, models.KindBill, bill.ID, PaymentInput{BankAccountID: f.checking})
	requireFields(t, err, "status")
	f.requireBalance(f.checking, "990.00")

	description := "changed"
	_, err = f.svc.Settlement.Update(f.ctx, f.company, models.KindBill, bill.ID, ObligationPatch{Description: &description})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, f.svc.Settlement.Delete(f.ctx, f.company, models.KindBill, bill.ID), ErrInvalidState)
}

func TestSettlement_FailedPaymentLeavesBillOpen(t *testing.T) {
	f := newFixture(t)
	bill := f.bill("10")
	_, foreign := f.otherCompany()

	_, _, err := f.svc.Settlement.RecordPayment(f.ctx, f.company, models.KindBill, bill.ID, PaymentInput{BankAccountID: foreign})
	requireFields(t, err, "bank_account_id")

	reloaded, err := f.svc.Settlement.Get(f.ctx, f.company, models.KindBill, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ObligationStatusOpen, reloaded.Status)
	assert.Nil(t, reloaded.PaymentTransactionID)
}

func TestSettlement_ObligationValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Settlement.Create(f.ctx, f.company, models.KindBill, ObligationInput{
		CategoryID: &f.revenue,
		Amount:     dec("0"),
	})
	requireFields(t, err, "category_id", "amount", "description", "due_date")

	_, err = f.svc.Settlement.Get(f.ctx, f.company, models.KindIncome, f.bill("5").ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettlement_UpdateAndDeleteOpenBill(t *testing.T) {
	f := newFixture(t)
	bill := f.bill("10")

	amount := dec("12.50")
	updated, err := f.svc.Settlement.Update(f.ctx, f.company, models.KindBill, bill.ID, ObligationPatch{Amount: &amount, CategoryID: ClearID()})
	require.NoError(t, err)
	assert.Equal(t, "12.50", updated.Amount.StringFixed(2))
	assert.Nil(t, updated.CategoryID)

	items, total, err := f.svc.Settlement.List(f.ctx, f.company, models.KindBill, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	require.NoError(t, f.svc.Settlement.Delete(f.ctx, f.company, models.KindBill, bill.ID))
	_, total, err = f.svc.Settlement.List(f.ctx, f.company, models.KindBill, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSettlement_RecordInstancePayment(t *testing.T) {
	f := newFixture(t)
	template, err := f.svc.Recurring.Create(f.ctx, f.company, models.KindBill, RecurringInput{
		CategoryID:  &f.expense,
		Description: "Office rent",
		Amount:      dec("1500"),
		Frequency:   models.FrequencyMonthly,
		StartDate:   f.today,
	})
	require.NoError(t, err)
	instances, err := f.svc.Recurring.Instances(f.ctx, f.company, models.KindBill, template.ID)
	require.NoError(t, err)
	require.NotEmpty(t, instances)

	paymentsBefore := f.version(cache.KindRecurringBillPayments)
	templatesBefore := f.version(cache.KindRecurringBills)

	settled, payment, err := f.svc.Settlement.RecordInstancePayment(f.ctx, f.company, models.KindBill, instances[0].ID, PaymentInput{BankAccountID: f.checking})
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusSettled, settled.Status)
	require.NotNil(t, settled.SettledOn)
	require.NotNil(t, settled.TransactionID)
	assert.Equal(t, payment.ID, *settled.TransactionID)
	assert.Equal(t, "Payment - Office rent", payment.Description)
	assert.Equal(t, template.CategoryID, payment.CategoryID)
	f.requireBalance(f.checking, "-500.00")

	assert.Greater(t, f.version(cache.KindRecurringBillPayments), paymentsBefore)
	assert.Greater(t, f.version(cache.KindRecurringBills), templatesBefore)

	_, _, err = f.svc.Settlement.RecordInstancePayment(f.ctx, f.company, models.KindBill, instances[0].ID, PaymentInput{BankAccountID: f.checking})
	requireFields(t, err, "status")

	_, _, err = f.svc.Settlement.RecordInstancePayment(f.ctx, f.company, models.KindBill, uuid.New(), PaymentInput{BankAccountID: f.checking})
	assert.ErrorIs(t, err, ErrNotFound)
}
