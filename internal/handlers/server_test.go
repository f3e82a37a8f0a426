package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/config"
	"github.com/fintelis/fintelis-api/internal/database"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	svcs     *services.Services
	company  uuid.UUID
	checking uuid.UUID
	savings  uuid.UUID
	revenue  uuid.UUID
}

// newTestServer wires the real services on an in-memory database behind a
// router whose requests all act on one company
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(database.MemoryURL(uuid.NewString()), database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := repository.NewRepositories(db)
	versioner := cache.NewVersioner(cache.NewMemoryStore(), 0)
	svcs := services.NewServices(repos, nil, versioner, &config.Config{RecurringHorizonMonths: 12, SchedulerSweepTarget: config.SweepTargetObligations})

	ctx := context.Background()
	company, err := svcs.Company.Create(ctx, "Acme", uuid.New())
	require.NoError(t, err)
	checking, err := svcs.BankAccount.Create(ctx, company.ID, services.BankAccountInput{Name: "Checking", Type: models.BankAccountChecking, InitialBalance: decimal.RequireFromString("1000")})
	require.NoError(t, err)
	savings, err := svcs.BankAccount.Create(ctx, company.ID, services.BankAccountInput{Name: "Savings", Type: models.BankAccountSavings})
	require.NoError(t, err)
	revenue, err := svcs.Category.Create(ctx, company.ID, services.CategoryInput{Name: "Sales", Type: models.CategoryRevenue})
	require.NoError(t, err)

	s := &testServer{t: t, svcs: svcs, company: company.ID, checking: checking.ID, savings: savings.ID, revenue: revenue.ID}

	h := NewHandlers(svcs)
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set("companyID", s.company)
		c.Next()
	})
	api.GET("/transactions", h.Transaction.Index)
	api.POST("/transactions", h.Transaction.Create)
	api.GET("/transactions/export", h.Transaction.Export)
	api.GET("/transactions/:id", h.Transaction.Show)
	api.PATCH("/transactions/:id", h.Transaction.Update)
	api.DELETE("/transactions/:id", h.Transaction.Delete)
	api.POST("/transactions/:id/refund", h.Transaction.Refund)
	api.GET("/bank-accounts/total-balance", h.BankAccount.TotalBalance)
	api.GET("/bank-accounts/:id", h.BankAccount.Show)
	api.POST("/bank-accounts/:id/transfer", h.BankAccount.Transfer)
	api.POST("/bills", h.Bill.Create)
	api.POST("/bills/:id/record-payment", h.Bill.RecordPayment)
	api.POST("/recurring-incomes", h.RecurringIncome.Create)
	api.GET("/recurring-incomes/:id/preview", h.RecurringIncome.Preview)
	api.GET("/dashboard/month", h.Dashboard.Month)
	s.router = router
	return s
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) balance(id uuid.UUID) string {
	s.t.Helper()
	account, err := s.svcs.BankAccount.Get(context.Background(), s.company, id)
	require.NoError(s.t, err)
	return account.CurrentBalance.StringFixed(2)
}
