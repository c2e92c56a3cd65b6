// Package plugin provides an extensible plugin system for the boxrate engine.
// Plugins implement any subset of the hook interfaces below and are
// notified after the corresponding operation commits.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *boxrate.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Rate table hooks
// ──────────────────────────────────────────────────

// OnRateVersionCreated is called after a new version is opened. closed is the
// previously open version with its new end date, or nil.
type OnRateVersionCreated interface {
	Plugin
	OnRateVersionCreated(ctx context.Context, v *rate.Version, closed *rate.Version) error
}

// OnRateVersionUpdated is called after a future version is corrected.
type OnRateVersionUpdated interface {
	Plugin
	OnRateVersionUpdated(ctx context.Context, oldVersion, newVersion *rate.Version) error
}

// ──────────────────────────────────────────────────
// Audit hooks
// ──────────────────────────────────────────────────

// OnAuditStarted is called before any account of a run is reconciled.
type OnAuditStarted interface {
	Plugin
	OnAuditStarted(ctx context.Context, runID id.AuditRunID, accounts int) error
}

// OnAccountAudited is called for every reconciled account.
type OnAccountAudited interface {
	Plugin
	OnAccountAudited(ctx context.Context, runID id.AuditRunID, result *audit.Result) error
}

// OnAccountFlagged is called for every account a run flags.
type OnAccountFlagged interface {
	Plugin
	OnAccountFlagged(ctx context.Context, runID id.AuditRunID, result *audit.Result) error
}

// OnAuditCompleted is called once a run has written every result.
type OnAuditCompleted interface {
	Plugin
	OnAuditCompleted(ctx context.Context, summary *audit.Summary, elapsed time.Duration) error
}

// OnAuditFailed is called when a run aborts.
type OnAuditFailed interface {
	Plugin
	OnAuditFailed(ctx context.Context, runID id.AuditRunID, err error) error
}

// ──────────────────────────────────────────────────
// Override hooks
// ──────────────────────────────────────────────────

// OnOverrideSet is called after a manager accepts an account's rate.
type OnOverrideSet interface {
	Plugin
	OnOverrideSet(ctx context.Context, accountID id.AccountID, reason string) error
}

// OnOverrideCleared is called after an override is removed.
type OnOverrideCleared interface {
	Plugin
	OnOverrideCleared(ctx context.Context, accountID id.AccountID) error
}

// OnAuditDataCleared is called after audit fields are reset on all accounts.
type OnAuditDataCleared interface {
	Plugin
	OnAuditDataCleared(ctx context.Context, accounts int64) error
}
