package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repositories holds all repository instances. A Repositories built on a
// transaction handle is a unit of work: everything done through it commits
// or rolls back together.
type Repositories struct {
	db          *gorm.DB
	lockTimeout time.Duration

	Company     CompanyRepository
	BankAccount BankAccountRepository
	Transaction TransactionRepository
	Category    CategoryRepository
	Reference   ReferenceRepository
	Obligation  ObligationRepository
	Recurring   RecurringRepository
	Dashboard   DashboardRepository
	Audit       AuditRepository
}

// Option configures Repositories
type Option func(*Repositories)

// WithLockTimeout bounds how long a unit of work waits for a row lock
func WithLockTimeout(d time.Duration) Option {
	return func(r *Repositories) {
		r.lockTimeout = d
	}
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB, opts ...Option) *Repositories {
	r := &Repositories{
		db:          db,
		Company:     NewCompanyRepository(db),
		BankAccount: NewBankAccountRepository(db),
		Transaction: NewTransactionRepository(db),
		Category:    NewCategoryRepository(db),
		Reference:   NewReferenceRepository(db),
		Obligation:  NewObligationRepository(db),
		Recurring:   NewRecurringRepository(db),
		Dashboard:   NewDashboardRepository(db),
		Audit:       NewAuditRepository(db),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DB returns the underlying handle
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// InTransaction runs fn inside one database transaction. fn receives
// repositories bound to that transaction; any error rolls everything back.
func (r *Repositories) InTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if r.lockTimeout > 0 && db.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(NewRepositories(db, WithLockTimeout(r.lockTimeout)))
	})
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Params flattens the query into a map, used as cache key input
func (q *ListQuery) Params() map[string]string {
	params := map[string]string{
		"page":     fmt.Sprint(q.Page),
		"per_page": fmt.Sprint(q.PerPage),
		"search":   q.Search,
		"sort_by":  q.SortBy,
		"sort_dir": q.SortDir,
	}
	for k, v := range q.Filters {
		params["f."+k] = v
	}
	return params
}

func (q *ListQuery) order(allowed map[string]bool, fallback string) string {
	if q.SortBy == "" || !allowed[q.SortBy] {
		return fallback
	}
	if q.SortDir == "desc" {
		return q.SortBy + " DESC"
	}
	return q.SortBy + " ASC"
}

func (q *ListQuery) paginate(db *gorm.DB) *gorm.DB {
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		db = db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
	}
	return db
}

// IsDuplicateKeyError reports a unique constraint violation
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsLockTimeoutError reports that a row lock could not be acquired in time
func IsLockTimeoutError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03"
	}
	return false
}

// IsNotFound reports a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
