// Package extension provides the Forge extension adapter for boxrate.
//
// It implements the forge.Extension interface to integrate the pricing and
// audit engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.boxrate" or "boxrate" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/store/memory"
	"github.com/xraph/boxrate/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "boxrate"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Mailbox rental pricing and rate audit engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts boxrate as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *boxrate.Engine
	store      store.Store
	engineOpts []boxrate.Option
}

// New creates a new boxrate Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *boxrate.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = boxrate.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*boxrate.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("boxrate: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension]. It waits for an in-flight audit run.
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("boxrate: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs boxrate.Option values from the resolved config.
// Pass-through options are applied last and win.
func (e *Extension) buildEngineOpts() []boxrate.Option {
	opts := make([]boxrate.Option, 0, len(e.engineOpts)+3)

	opts = append(opts,
		boxrate.WithCurrency(e.config.Currency),
		boxrate.WithAuditWorkers(e.config.AuditWorkers),
		boxrate.WithDiscrepancyTolerance(types.Cents(e.config.DiscrepancyToleranceCents, e.config.Currency)),
	)

	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("boxrate: configuration is required but not found in config files; " +
				"ensure 'extensions.boxrate' or 'boxrate' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("boxrate: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("audit_workers", e.config.AuditWorkers),
		forge.F("discrepancy_tolerance_cents", e.config.DiscrepancyToleranceCents),
		forge.F("currency", e.config.Currency),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.boxrate", "boxrate"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("boxrate: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("boxrate: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.AuditWorkers <= 0 {
		cfg.AuditWorkers = defaults.AuditWorkers
	}
	if cfg.DiscrepancyToleranceCents <= 0 {
		cfg.DiscrepancyToleranceCents = defaults.DiscrepancyToleranceCents
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and a true
// programmatic bool always wins.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.AuditWorkers == 0 {
		yamlConfig.AuditWorkers = programmaticConfig.AuditWorkers
	}
	if yamlConfig.DiscrepancyToleranceCents == 0 {
		yamlConfig.DiscrepancyToleranceCents = programmaticConfig.DiscrepancyToleranceCents
	}
	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	return mergeWithDefaults(yamlConfig)
}
