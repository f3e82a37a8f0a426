package services

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/config"
	"github.com/fintelis/fintelis-api/internal/database"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture is one company with two bank accounts and a revenue and an
// expense category, on a private in-memory database
type fixture struct {
	t         *testing.T
	ctx       context.Context
	repos     *repository.Repositories
	store     *cache.MemoryStore
	versioner *cache.Versioner
	svc       *Services
	company   uuid.UUID
	checking  uuid.UUID
	savings   uuid.UUID
	revenue   uuid.UUID
	expense   uuid.UUID
	today     civil.Date
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Connect(database.MemoryURL(uuid.NewString()), database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := cache.NewMemoryStore()
	versioner := cache.NewVersioner(store, 0)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{RecurringHorizonMonths: 12, SchedulerSweepTarget: config.SweepTargetObligations}

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		repos:     repos,
		store:     store,
		versioner: versioner,
		svc:       NewServices(repos, nil, versioner, cfg),
		today:     civil.Date{Year: 2024, Month: 3, Day: 15},
	}
	f.svc.Transaction.today = func() civil.Date { return f.today }
	f.svc.Recurring.today = func() civil.Date { return f.today }

	company, err := f.svc.Company.Create(f.ctx, "Acme", uuid.New())
	require.NoError(t, err)
	f.company = company.ID

	f.checking = f.account("Checking", models.BankAccountChecking, "1000.00").ID
	f.savings = f.account("Savings", models.BankAccountSavings, "0").ID
	f.revenue = f.category("Sales", models.CategoryRevenue, nil).ID
	f.expense = f.category("Rent", models.CategoryExpense, nil).ID
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func (f *fixture) account(name string, accountType models.BankAccountType, initial string) *models.BankAccount {
	f.t.Helper()
	account, err := f.svc.BankAccount.Create(f.ctx, f.company, BankAccountInput{Name: name, Type: accountType, InitialBalance: dec(initial)})
	require.NoError(f.t, err)
	return account
}

func (f *fixture) category(name string, categoryType models.CategoryType, parent *uuid.UUID) *models.Category {
	f.t.Helper()
	category, err := f.svc.Category.Create(f.ctx, f.company, CategoryInput{Name: name, Type: categoryType, ParentID: parent})
	require.NoError(f.t, err)
	return category
}

func (f *fixture) post(txType models.TransactionType, account uuid.UUID, amount string, category *uuid.UUID) *models.Transaction {
	f.t.Helper()
	tx, err := f.svc.Transaction.Create(f.ctx, f.company, TransactionInput{
		BankAccountID:   account,
		CategoryID:      category,
		Description:     string(txType) + " " + amount,
		Amount:          dec(amount),
		Type:            txType,
		TransactionDate: f.today,
	})
	require.NoError(f.t, err)
	return tx
}

func (f *fixture) balance(account uuid.UUID) decimal.Decimal {
	f.t.Helper()
	a, err := f.repos.BankAccount.FindByID(f.ctx, account)
	require.NoError(f.t, err)
	return a.CurrentBalance
}

// requireBalance compares with decimal equality so "900" and "900.00" match
func (f *fixture) requireBalance(account uuid.UUID, want string) {
	f.t.Helper()
	got := f.balance(account)
	require.Truef(f.t, got.Equal(dec(want)), "balance = %s, want %s", got.StringFixed(2), want)
}

func (f *fixture) version(kind cache.Kind) int64 {
	f.t.Helper()
	v, err := f.versioner.Version(f.ctx, f.company, kind)
	require.NoError(f.t, err)
	return v
}

// otherCompany creates a second tenant with one account and returns both ids
func (f *fixture) otherCompany() (uuid.UUID, uuid.UUID) {
	f.t.Helper()
	company, err := f.svc.Company.Create(f.ctx, "Other", uuid.Nil)
	require.NoError(f.t, err)
	account, err := f.svc.BankAccount.Create(f.ctx, company.ID, BankAccountInput{Name: "Foreign", Type: models.BankAccountChecking})
	require.NoError(f.t, err)
	return company.ID, account.ID
}
