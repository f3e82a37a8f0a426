package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardKeysFor(t *testing.T) {
	company := uuid.New()
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)

	keys := DashboardKeysFor(&LedgerSnapshot{CompanyID: company, Type: models.TransactionExpense, Date: jan})
	assert.Equal(t, []string{"dashboard:expenses:" + company.String() + ":2024:1"}, keys)

	// type and month change: both the old and new combination
	keys = DashboardKeysFor(
		&LedgerSnapshot{CompanyID: company, Type: models.TransactionExpense, Date: jan},
		&LedgerSnapshot{CompanyID: company, Type: models.TransactionRevenue, Date: feb},
	)
	assert.ElementsMatch(t, []string{
		DashboardKey(FlowExpenses, company, 2024, time.January),
		DashboardKey(FlowRevenues, company, 2024, time.February),
	}, keys)

	assert.Empty(t, DashboardKeysFor(&LedgerSnapshot{CompanyID: company, Type: models.TransactionInternalTransfer, Date: jan}, nil))
}

func TestInvalidateDashboard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	company := uuid.New()
	key := DashboardKey(FlowRevenues, company, 2024, time.March)
	other := DashboardKey(FlowExpenses, company, 2024, time.March)

	InvalidateDashboard(ctx, store, &LedgerSnapshot{
		CompanyID: company,
		Type:      models.TransactionRevenue,
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})

	version, err := DashboardVersion(ctx, store, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	version, err = DashboardVersion(ctx, store, other)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestCachedMonth_RacingWriteIsNotServed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	company := uuid.New()
	key := DashboardKey(FlowRevenues, company, 2024, time.March)
	march := &LedgerSnapshot{CompanyID: company, Type: models.TransactionRevenue, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}

	// the ledger write commits while the reader is still loading the old total
	total, err := CachedMonth(ctx, store, 0, key, func(ctx context.Context) (string, error) {
		InvalidateDashboard(ctx, store, march)
		return "100.00", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", total)

	loads := 0
	load := func(ctx context.Context) (string, error) {
		loads++
		return "150.00", nil
	}
	total, err = CachedMonth(ctx, store, 0, key, load)
	require.NoError(t, err)
	assert.Equal(t, "150.00", total)

	total, err = CachedMonth(ctx, store, 0, key, load)
	require.NoError(t, err)
	assert.Equal(t, "150.00", total)
	assert.Equal(t, 1, loads)
}
