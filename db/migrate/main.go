package main

import (
	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/pkg/database"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

func main() {
	cfg := environments.Load()
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	logger.Infof("Migrations completed successfully")
}
