package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the boxrate store (SQLite).
var Migrations = migrate.NewGroup("boxrate")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_boxrate_rate_versions",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS boxrate_rate_versions (
    id                     TEXT PRIMARY KEY,
    start_date             TEXT NOT NULL,
    end_date               TEXT,
    base_rate_3_month      INTEGER NOT NULL DEFAULT 0,
    base_rate_6_month      INTEGER NOT NULL DEFAULT 0,
    base_rate_12_month     INTEGER NOT NULL DEFAULT 0,
    additional_adult_rates TEXT NOT NULL DEFAULT '[]',
    business_account_fee   INTEGER NOT NULL DEFAULT 0,
    minor_recipient_fee    INTEGER NOT NULL DEFAULT 0,
    key_deposit            INTEGER NOT NULL DEFAULT 0,
    currency               TEXT NOT NULL DEFAULT 'USD',
    notes                  TEXT NOT NULL DEFAULT '',
    created_at             TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at             TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_boxrate_rates_start ON boxrate_rate_versions (start_date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_boxrate_rates_one_open ON boxrate_rate_versions ((end_date IS NULL)) WHERE end_date IS NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS boxrate_rate_versions`)
				return err
			},
		},
		&migrate.Migration{
			// Inserting an open version closes the previous open version in
			// the same statement.
			Name:    "create_boxrate_rate_rotation_trigger",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TRIGGER IF NOT EXISTS trg_boxrate_rates_rotate
BEFORE INSERT ON boxrate_rate_versions
WHEN NEW.end_date IS NULL
BEGIN
    UPDATE boxrate_rate_versions
       SET end_date = date(NEW.start_date, '-1 day'),
           updated_at = NEW.created_at
     WHERE end_date IS NULL;
END
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TRIGGER IF EXISTS trg_boxrate_rates_rotate`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_boxrate_accounts",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS boxrate_accounts (
    id                   TEXT PRIMARY KEY,
    mailbox_number       TEXT NOT NULL DEFAULT '',
    name                 TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'active',
    renewal_period       TEXT NOT NULL,
    start_date           TEXT NOT NULL,
    last_renewal_date    TEXT,
    current_rate         INTEGER NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT 'USD',
    audit_flag           INTEGER NOT NULL DEFAULT 0,
    audit_flag_type      TEXT NOT NULL DEFAULT '',
    audit_note           TEXT NOT NULL DEFAULT '',
    audited_at           TEXT,
    rate_override        INTEGER NOT NULL DEFAULT 0,
    rate_override_reason TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_boxrate_accounts_status ON boxrate_accounts (status);
CREATE INDEX IF NOT EXISTS idx_boxrate_accounts_flag ON boxrate_accounts (audit_flag, audit_flag_type);
CREATE INDEX IF NOT EXISTS idx_boxrate_accounts_mailbox ON boxrate_accounts (mailbox_number);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS boxrate_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_boxrate_recipients",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS boxrate_recipients (
    id         TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES boxrate_accounts (id),
    type       TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    birthdate  TEXT,
    is_primary INTEGER NOT NULL DEFAULT 0,
    removed    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_boxrate_recipients_account ON boxrate_recipients (account_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS boxrate_recipients`)
				return err
			},
		},
	)
}
