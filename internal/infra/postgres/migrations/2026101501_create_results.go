package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_results.sql
var createResultsSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createResultsSQL); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_results_rank ON results (score DESC, quiz_date ASC)`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS results`)
			return err
		},
	)
}
