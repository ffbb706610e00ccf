package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the settle store.
var Migrations = migrate.NewGroup("settle")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_settle_snapshots",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// value stays TEXT rather than JSONB so an unparseable
				// snapshot can still be stored and read back.
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS settle_snapshots (
    snapshot_key TEXT PRIMARY KEY,
    value        TEXT NOT NULL DEFAULT '[]',
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_settle_snapshots_updated ON settle_snapshots (updated_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS settle_snapshots`)
				return err
			},
		},
	)
}
