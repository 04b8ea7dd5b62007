package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/pageturn/bookmarket-backend/pkg/config"
	"github.com/pageturn/bookmarket-backend/pkg/db"
	"github.com/pageturn/bookmarket-backend/pkg/logger"
	"github.com/pageturn/bookmarket-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cmd := flag.String("cmd", "up", "migration command: up, down, status, version, to, create, validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (for to)")
	flag.Parse()

	ctx := context.Background()

	// create and validate never touch the database.
	switch *cmd {
	case "create":
		requireValue(ctx, logg, "name", *name)
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "failed to create migration", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "migrations directory invalid", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrations directory valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to unwrap sql.DB", err)
		os.Exit(1)
	}

	switch *cmd {
	case "up", "down", "status", "version":
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd); err != nil {
			logg.Error(ctx, "migration command failed", err)
			os.Exit(1)
		}
	case "to":
		requireValue(ctx, logg, "version", *version)
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			logg.Error(ctx, "migration to version failed", err)
			os.Exit(1)
		}
	default:
		logg.Error(logg.WithField(ctx, "cmd", *cmd), "unknown migration command", nil)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "cmd", *cmd), "migration command complete")
}

func requireValue(ctx context.Context, logg *logger.Logger, flagName, value string) {
	if value == "" {
		logg.Error(logg.WithField(ctx, "flag", flagName), "required flag missing", nil)
		os.Exit(1)
	}
}
