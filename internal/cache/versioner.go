package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
)

// Kind is a family of cached reads that share one version counter per company
type Kind string

// Cached data kinds
const (
	KindTransactions            Kind = "transactions"
	KindBills                   Kind = "bills"
	KindIncomes                 Kind = "incomes"
	KindRecurringBills          Kind = "recurring_bills"
	KindRecurringIncomes        Kind = "recurring_incomes"
	KindRecurringBillPayments   Kind = "recurring_bill_payments"
	KindRecurringIncomeReceipts Kind = "recurring_income_receipts"
	KindBankAccounts            Kind = "bank_accounts"
)

// cascades lists the kinds that must be bumped together with the key kind
var cascades = map[Kind][]Kind{
	KindBills:                   {KindTransactions},
	KindIncomes:                 {KindTransactions},
	KindRecurringBillPayments:   {KindTransactions, KindRecurringBills},
	KindRecurringIncomeReceipts: {KindTransactions, KindRecurringIncomes},
}

// Affected returns kind followed by every kind it cascades to
func Affected(kind Kind) []Kind {
	return append([]Kind{kind}, cascades[kind]...)
}

// Versioner owns the per-(company, kind) version counters
type Versioner struct {
	store Store
	ttl   time.Duration
}

// NewVersioner creates a Versioner; ttl applies to cached values, never to counters
func NewVersioner(store Store, ttl time.Duration) *Versioner {
	return &Versioner{store: store, ttl: ttl}
}

// Store returns the underlying store
func (v *Versioner) Store() Store {
	return v.store
}

// TTL returns the lifetime given to cached values
func (v *Versioner) TTL() time.Duration {
	return v.ttl
}

func versionKey(companyID uuid.UUID, kind Kind) string {
	return fmt.Sprintf("version:%s:%s", companyID, kind)
}

// Version returns the current counter, 0 when it was never bumped
func (v *Versioner) Version(ctx context.Context, companyID uuid.UUID, kind Kind) (int64, error) {
	return readCounter(ctx, v.store, versionKey(companyID, kind))
}

func readCounter(ctx context.Context, store Store, key string) (int64, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// Bump increments the counter of kind and of every kind it cascades to.
// All increments are attempted even if one fails.
func (v *Versioner) Bump(ctx context.Context, companyID uuid.UUID, kind Kind) error {
	var errs []error
	for _, k := range Affected(kind) {
		if _, err := v.store.Incr(ctx, versionKey(companyID, k)); err != nil {
			errs = append(errs, fmt.Errorf("bump %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// BumpAll bumps each kind in turn, logging failures instead of returning them.
// Used after a commit, when the write itself can no longer be undone.
func (v *Versioner) BumpAll(ctx context.Context, companyID uuid.UUID, kinds ...Kind) {
	for _, kind := range kinds {
		if err := v.Bump(ctx, companyID, kind); err != nil {
			logger.Warn("Cache version bump failed", "company_id", companyID, "kind", kind, "error", err)
		}
	}
}

// Key builds the cache key for a parameterised read at a given version
func Key(companyID uuid.UUID, kind Kind, params map[string]string, version int64) string {
	return fmt.Sprintf("cache:%s:%s:v%d:%016x", companyID, kind, version, xxhash.Sum64String(canonical(params)))
}

func canonical(params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Cached serves a read through the cache. Store failures fall back to load
// so a broken cache never fails a request.
func Cached[T any](ctx context.Context, v *Versioner, companyID uuid.UUID, kind Kind, params map[string]string, load func(context.Context) (T, error)) (T, error) {
	version, err := v.Version(ctx, companyID, kind)
	if err != nil {
		logger.Warn("Cache version read failed", "company_id", companyID, "kind", kind, "error", err)
		return load(ctx)
	}
	return ReadThrough(ctx, v.store, Key(companyID, kind, params, version), v.ttl, load)
}

// ReadThrough returns the JSON value stored at key, loading and storing it
// on a miss. Store failures fall back to load.
func ReadThrough[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, err := store.Get(ctx, key); err == nil {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		logger.Warn("Cache read failed", "key", key, "error", err)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		if err := store.Set(ctx, key, raw, ttl); err != nil {
			logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}
	return value, nil
}
