package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
)

// Dashboard flows
const (
	FlowExpenses = "expenses"
	FlowRevenues = "revenues"
)

// DashboardKey is the key of one month of dashboard totals
func DashboardKey(flow string, companyID uuid.UUID, year int, month time.Month) string {
	return fmt.Sprintf("dashboard:%s:%s:%d:%d", flow, companyID, year, int(month))
}

// LedgerSnapshot is the part of a transaction that decides which dashboard
// months it feeds
type LedgerSnapshot struct {
	CompanyID uuid.UUID
	Type      models.TransactionType
	Date      time.Time
}

// Snapshot captures the dashboard-relevant state of a transaction
func Snapshot(tx *models.Transaction) *LedgerSnapshot {
	if tx == nil {
		return nil
	}
	return &LedgerSnapshot{CompanyID: tx.CompanyID, Type: tx.Type, Date: tx.TransactionDate}
}

// DashboardKeysFor returns the month keys a snapshot feeds. Only revenue and
// expense transactions appear on the dashboard.
func DashboardKeysFor(snapshots ...*LedgerSnapshot) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		var flow string
		switch s.Type {
		case models.TransactionExpense:
			flow = FlowExpenses
		case models.TransactionRevenue:
			flow = FlowRevenues
		default:
			continue
		}
		key := DashboardKey(flow, s.CompanyID, s.Date.Year(), s.Date.Month())
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// dashboardVersionKey is the counter of one dashboard month. Month entries
// are stored under the month key suffixed with the counter value.
func dashboardVersionKey(key string) string {
	return "version:" + key
}

// DashboardVersion returns the counter of a dashboard month, 0 when it was never bumped
func DashboardVersion(ctx context.Context, store Store, key string) (int64, error) {
	return readCounter(ctx, store, dashboardVersionKey(key))
}

// CachedMonth serves one dashboard month through the store at its current
// version. A load that races a ledger write stores its result under the old
// version, where no reader will look again.
func CachedMonth[T any](ctx context.Context, store Store, ttl time.Duration, key string, load func(context.Context) (T, error)) (T, error) {
	version, err := DashboardVersion(ctx, store, key)
	if err != nil {
		logger.Warn("Dashboard version read failed", "key", key, "error", err)
		return load(ctx)
	}
	return ReadThrough(ctx, store, fmt.Sprintf("%s:v%d", key, version), ttl, load)
}

// InvalidateDashboard bumps the months fed by the given snapshots. On update
// pass both the previous and the new state.
func InvalidateDashboard(ctx context.Context, store Store, snapshots ...*LedgerSnapshot) {
	for _, key := range DashboardKeysFor(snapshots...) {
		if _, err := store.Incr(ctx, dashboardVersionKey(key)); err != nil {
			logger.Warn("Dashboard cache invalidation failed", "key", key, "error", err)
		}
	}
}
