package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/config"
	"github.com/fintelis/fintelis-api/internal/database"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/google/uuid"
)

// recalculate-balances rebuilds current_balance of every bank account from
// its initial balance and ledger entries, and reports each drift it fixed
func main() {
	companyFlag := flag.String("company", "", "only this company (UUID); all companies when empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Production: cfg.IsProduction()})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		redis, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redis.Close()
		store = redis
	}

	repos := repository.NewRepositories(db, repository.WithLockTimeout(cfg.LockTimeout))
	svcs := services.NewServices(repos, nil, cache.NewVersioner(store, cfg.CacheTTL), cfg)

	if *companyFlag == "" {
		fixed, err := svcs.Job.RecalculateAll(ctx)
		if err != nil {
			logger.Error("Recalculation finished with failures", "accounts_fixed", fixed, "error", err)
			os.Exit(1)
		}
		return
	}

	companyID, err := uuid.Parse(*companyFlag)
	if err != nil {
		log.Fatalf("Invalid -company: %v", err)
	}
	drifts, err := svcs.BankAccount.Recalculate(ctx, companyID)
	if err != nil {
		logger.Error("Recalculation failed", "company_id", companyID, "error", err)
		os.Exit(1)
	}
	for _, d := range drifts {
		logger.Warn("Balance corrected", "company_id", companyID, "bank_account_id", d.BankAccountID,
			"name", d.Name, "stored", d.Stored, "expected", d.Expected)
	}
	logger.Info("Recalculation finished", "company_id", companyID, "accounts_fixed", len(drifts))
}
