package main

import (
	"flag"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fintelis/fintelis-api/internal/database"
	"github.com/fintelis/fintelis-api/pkg/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration instead of applying pending ones")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	logger.Setup(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))

	if *down {
		if err := database.MigrateDown(databaseURL); err != nil {
			logger.Error("Rollback failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Rolled back one migration")
		return
	}

	if err := database.MigrateUp(databaseURL); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Database schema is up to date")
}
