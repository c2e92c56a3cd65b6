package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the boxrate store.
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
    start_date             DATE NOT NULL,
    end_date               DATE,
    base_rate_3_month      BIGINT NOT NULL DEFAULT 0,
    base_rate_6_month      BIGINT NOT NULL DEFAULT 0,
    base_rate_12_month     BIGINT NOT NULL DEFAULT 0,
    additional_adult_rates JSONB NOT NULL DEFAULT '[]',
    business_account_fee   BIGINT NOT NULL DEFAULT 0,
    minor_recipient_fee    BIGINT NOT NULL DEFAULT 0,
    key_deposit            BIGINT NOT NULL DEFAULT 0,
    currency               TEXT NOT NULL DEFAULT 'USD',
    notes                  TEXT NOT NULL DEFAULT '',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT chk_boxrate_rates_range CHECK (end_date IS NULL OR end_date >= start_date)
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
			Name:    "create_boxrate_accounts",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS boxrate_accounts (
    id                   TEXT PRIMARY KEY,
    mailbox_number       TEXT NOT NULL DEFAULT '',
    name                 TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'active',
    renewal_period       TEXT NOT NULL,
    start_date           DATE NOT NULL,
    last_renewal_date    DATE,
    current_rate         BIGINT NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT 'USD',
    audit_flag           BOOLEAN NOT NULL DEFAULT FALSE,
    audit_flag_type      TEXT NOT NULL DEFAULT '',
    audit_note           TEXT NOT NULL DEFAULT '',
    audited_at           TIMESTAMPTZ,
    rate_override        BOOLEAN NOT NULL DEFAULT FALSE,
    rate_override_reason TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_boxrate_accounts_status ON boxrate_accounts (status);
CREATE INDEX IF NOT EXISTS idx_boxrate_accounts_flagged ON boxrate_accounts (audit_flag_type) WHERE audit_flag;
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
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS boxrate_recipients (
    id         TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES boxrate_accounts (id) ON DELETE CASCADE,
    type       TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    birthdate  DATE,
    is_primary BOOLEAN NOT NULL DEFAULT FALSE,
    removed    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
