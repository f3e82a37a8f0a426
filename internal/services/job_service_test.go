package services

import (
	"testing"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_RecalculateAllCoversEveryCompany(t *testing.T) {
	f := newFixture(t)
	f.post(models.TransactionRevenue, f.checking, "250.00", &f.revenue)
	_, foreign := f.otherCompany()

	require.NoError(t, f.repos.BankAccount.SetCurrentBalance(f.ctx, f.checking, dec("1.00")))
	require.NoError(t, f.repos.BankAccount.SetCurrentBalance(f.ctx, foreign, dec("-5.00")))

	fixed, err := f.svc.Job.RecalculateAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed)
	f.requireBalance(f.checking, "1250.00")
	f.requireBalance(foreign, "0.00")

	fixed, err = f.svc.Job.RecalculateAll(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}
