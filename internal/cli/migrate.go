package cli

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-round/internal/config"
	pgmigrations "quiz-round/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			if rollback {
				return rollbackMigrations(cmd.Context(), cfg, logger)
			}
			return runMigrationsWithConfig(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last migration group")
	return cmd
}

func openMigrator(cfg config.Config) (*migrate.Migrator, *bun.DB, error) {
	if cfg.Postgres.URL == "" {
		return nil, nil, errPostgresRequired
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return migrate.NewMigrator(db, pgmigrations.Migrations), db, nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	migrator, db, err := openMigrator(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info().Msg("no new migrations")
		return nil
	}
	logger.Info().Str("group", group.String()).Msg("migrations applied")
	return nil
}

func rollbackMigrations(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	migrator, db, err := openMigrator(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Rollback(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("group", group.String()).Msg("migrations rolled back")
	return nil
}
