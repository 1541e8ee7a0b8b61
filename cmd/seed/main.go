// seed loads departments, priorities, categories, SLAs and profiles into the
// helpdesk database. Without --file the built-in demo dataset is used.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		filePath string
		dryRun   bool
		migrate  bool
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "", "YAML dataset to load (default: built-in demo data)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the dataset and apply it to an in-memory store only")
	flagSet.BoolVar(&migrate, "migrate", true, "run database migrations before seeding")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ds, err := seed.Load(filePath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var store repository.Store
	if dryRun {
		store = memory.NewStore()
	} else {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if !pg.Enabled() {
			return errors.New("POSTGRES_DSN is required unless --dry-run is set")
		}
		if migrate {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	}

	summary, err := seed.Apply(ctx, store, ds)
	if err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	logger.Info("seed applied",
		zap.Bool("dry_run", dryRun),
		zap.Int("departments", summary.Departments),
		zap.Int("priorities", summary.Priorities),
		zap.Int("categories", summary.Categories),
		zap.Int("slas", summary.SLAs),
		zap.Int("profiles", summary.Profiles))
	return nil
}
