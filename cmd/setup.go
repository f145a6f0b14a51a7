package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/qbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a configuration template to the --config path unless a file already exists there.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil {
		r.logger.Info("config file exists", "path", path)
		r.writePlain("Configuration file already exists: %s\n", path)
		return nil
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("Configuration file created: %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in credentials.qobuz (app_id, email, password) in %s\n", path)
	r.writePlain("2. Run 'qbx playlists --no-tracks' to check the login\n")
	return nil
}

// SetupDatabase creates the run history database and applies migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if cfg.Path == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("Rolled back latest migration: %s\n", cfg.Path)
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", cfg.Path)
	r.writePlain("Database ready: %s\n", cfg.Path)
	return nil
}
