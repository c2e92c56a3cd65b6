package extension

// Config holds the boxrate extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.boxrate" or "boxrate" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// AuditWorkers bounds how many accounts an audit run reconciles at once
	// (default: 8).
	AuditWorkers int `json:"audit_workers" mapstructure:"audit_workers" yaml:"audit_workers"`

	// DiscrepancyToleranceCents is the largest difference between the stored
	// and expected monthly rate that still counts as a match (default: 1).
	DiscrepancyToleranceCents int64 `json:"discrepancy_tolerance_cents" mapstructure:"discrepancy_tolerance_cents" yaml:"discrepancy_tolerance_cents"`

	// Currency is the ISO 4217 code of every amount in the store (default: USD).
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuditWorkers:              8,
		DiscrepancyToleranceCents: 1,
		Currency:                  "USD",
	}
}
