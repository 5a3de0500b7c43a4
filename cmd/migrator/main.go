package main

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/strimboom/boombucks/internal/infra/logging"
	"github.com/strimboom/boombucks/pkg/envconf"
)

//go:embed migrations/*.sql
var baseFS embed.FS

//go:embed test_data/*.sql
var devFS embed.FS

// Seeds are versioned independently from the schema, so they keep their own
// bookkeeping table.
const seedMigrationsTable = "schema_seed_migrations"

type migratorConfig struct {
	DSN      string     `env:"PG_DSN"`
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"INFO"`
	AppEnv   string     `env:"APP_ENV" default:"PROD"`
}

var rootCmd = &cobra.Command{
	Use:           "migrator",
	Short:         "Apply boombucks ledger schema migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending schema migrations (and dev seeds when APP_ENV=DEV)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		withSeed, _ := cmd.Flags().GetBool("seed")

		return migrateAll(withSeed)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply dev seed data only",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, db, err := openFromEnv()
		if err != nil {
			return err
		}
		//nolint:errcheck
		defer db.Close()

		return applySeeds(db)
	},
}

func init() {
	upCmd.Flags().Bool("seed", false, "Apply dev seed data regardless of APP_ENV")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func openFromEnv() (*migratorConfig, *sql.DB, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("no .env file found, relying on process environment")
	}

	cfg := new(migratorConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	err = db.Ping()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	return cfg, db, nil
}

func migrateAll(withSeed bool) error {
	cfg, db, err := openFromEnv()
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	err = runMigrations(driver, baseFS, "migrations")
	if err != nil {
		return fmt.Errorf("base migrations failed: %w", err)
	}

	slog.Info("base migrations applied")

	if cfg.AppEnv == "DEV" || withSeed {
		err = applySeeds(db)
		if err != nil {
			return err
		}
	}

	return nil
}

func applySeeds(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: seedMigrationsTable})
	if err != nil {
		return fmt.Errorf("init seed driver: %w", err)
	}

	err = runMigrations(driver, devFS, "test_data")
	if err != nil {
		return fmt.Errorf("dev seed migrations failed: %w", err)
	}

	slog.Info("dev seed migrations applied")

	return nil
}

func runMigrations(driver database.Driver, fsys embed.FS, dir string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}

	return nil
}
