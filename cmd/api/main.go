package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fintelis/fintelis-api/docs" // Swagger docs
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/config"
	"github.com/fintelis/fintelis-api/internal/database"
	"github.com/fintelis/fintelis-api/internal/handlers"
	"github.com/fintelis/fintelis-api/internal/jobs"
	"github.com/fintelis/fintelis-api/internal/middleware"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/fintelis/fintelis-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Fintelis API
// @version 1.0
// @description Ledger API: bank accounts, transactions, bills, incomes and recurring schedules

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Production: cfg.IsProduction()})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	store, closeStore := openCacheStore(cfg)
	defer closeStore()
	versioner := cache.NewVersioner(store, cfg.CacheTTL)

	repos := repository.NewRepositories(db, repository.WithLockTimeout(cfg.LockTimeout))

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, versioner, cfg)

	scheduleJobs(worker, svcs, cfg)

	h := handlers.NewHandlers(svcs)
	router := setupRouter(h, svcs, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// openCacheStore connects to Redis when REDIS_URL is set and falls back to
// a process-local store otherwise
func openCacheStore(cfg *config.Config) (cache.Store, func()) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-memory cache (not shared between instances)")
		return cache.NewMemoryStore(), func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis")
	return store, func() { store.Close() }
}

func setupRouter(h *handlers.Handlers, svcs *services.Services, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		authed := v1.Group("")
		authed.Use(middleware.Auth(cfg.JWTSecret))
		{
			authed.POST("/companies", h.Company.Create)
		}

		// Company-scoped routes
		api := authed.Group("")
		api.Use(middleware.ActiveCompany(svcs.Company))
		{
			transactions := api.Group("/transactions")
			{
				transactions.GET("", h.Transaction.Index)
				transactions.POST("", h.Transaction.Create)
				// Static route first so "export" is not matched as :id
				transactions.GET("/export", h.Transaction.Export)
				transactions.GET("/:id", h.Transaction.Show)
				transactions.PATCH("/:id", h.Transaction.Update)
				transactions.PUT("/:id", h.Transaction.Update)
				transactions.DELETE("/:id", h.Transaction.Delete)
				transactions.POST("/:id/refund", h.Transaction.Refund)
			}

			accounts := api.Group("/bank-accounts")
			{
				accounts.GET("", h.BankAccount.Index)
				accounts.POST("", h.BankAccount.Create)
				accounts.GET("/total-balance", h.BankAccount.TotalBalance)
				accounts.GET("/:id", h.BankAccount.Show)
				accounts.POST("/:id/transfer", h.BankAccount.Transfer)
				accounts.POST("/:id/withdraw", h.BankAccount.Withdraw)
			}

			api.GET("/categories", h.Category.Index)
			api.POST("/categories", h.Category.Create)
			api.GET("/categories/tree", h.Category.Tree)
			api.GET("/cash-registers", h.Reference.CashRegisters)
			api.POST("/cash-registers", h.Reference.CreateCashRegister)
			api.GET("/cost-centers", h.Reference.CostCenters)
			api.POST("/cost-centers", h.Reference.CreateCostCenter)
			api.POST("/contacts", h.Reference.CreateContact)

			registerObligations(api.Group("/bills"), h.Bill)
			registerObligations(api.Group("/incomes"), h.Income)
			registerRecurring(api.Group("/recurring-bills"), h.RecurringBill)
			registerRecurring(api.Group("/recurring-incomes"), h.RecurringIncome)
			api.POST("/recurring-bill-payments/:id/record-payment", h.RecurringBill.RecordInstancePayment)
			api.POST("/recurring-income-receipts/:id/record-payment", h.RecurringIncome.RecordInstancePayment)

			api.GET("/dashboard/month", h.Dashboard.Month)
			api.GET("/audit-logs", h.Audit.Index)
		}

		// Jobs are global, not company-scoped
		authed.GET("/jobs/status", h.Job.Status)
		authed.POST("/jobs/recurring-sweep", h.Job.RecurringSweep)
	}

	return router
}

func registerObligations(group *gin.RouterGroup, h *handlers.ObligationHandler) {
	group.GET("", h.Index)
	group.POST("", h.Create)
	group.GET("/:id", h.Show)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/record-payment", h.RecordPayment)
}

func registerRecurring(group *gin.RouterGroup, h *handlers.RecurringHandler) {
	group.GET("", h.Index)
	group.POST("", h.Create)
	group.GET("/:id", h.Show)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/preview", h.Preview)
	group.GET("/:id/instances", h.Instances)
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Materialize due recurring bills and incomes
	worker.ScheduleEveryImmediate(services.RecurringSweepJob, cfg.SchedulerInterval, func(ctx context.Context) error {
		logger.Info("[Job] Running recurring sweep...", "target", cfg.SchedulerSweepTarget)
		return svcs.Job.SweepJob()(ctx)
	})

	logger.Info("Scheduled recurring jobs", "interval", cfg.SchedulerInterval)

	// Rebuild stored balances from the ledger and report drift
	if cfg.BalanceCheckInterval > 0 {
		worker.ScheduleEvery(services.BalanceCheckJob, cfg.BalanceCheckInterval, svcs.Job.BalanceCheckJob())
		logger.Info("Scheduled balance check", "interval", cfg.BalanceCheckInterval)
	}
}
