package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/plugin"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/store/mongo"
	"github.com/xraph/boxrate/store/postgres"
	"github.com/xraph/boxrate/store/sqlite"
)

// Option configures the boxrate Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPostgres runs the engine on a grove database opened with pgdriver.
func WithPostgres(db *grove.DB) Option {
	return WithStore(postgres.New(db))
}

// WithSQLite runs the engine on a grove database opened with sqlitedriver.
func WithSQLite(db *grove.DB) Option {
	return WithStore(sqlite.New(db))
}

// WithMongo runs the engine on a grove database opened with mongodriver.
// The deployment must support transactions.
func WithMongo(db *grove.DB) Option {
	return WithStore(mongo.New(db))
}

// WithEngineOption passes a boxrate.Option through to the underlying engine.
func WithEngineOption(opt boxrate.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a boxrate plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, boxrate.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithAuditWorkers sets the audit worker pool size.
func WithAuditWorkers(n int) Option {
	return func(e *Extension) { e.config.AuditWorkers = n }
}

// WithDiscrepancyToleranceCents sets the audit match tolerance in cents.
func WithDiscrepancyToleranceCents(cents int64) Option {
	return func(e *Extension) { e.config.DiscrepancyToleranceCents = cents }
}

// WithCurrency sets the store currency.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}
