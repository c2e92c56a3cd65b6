// Package audithook bridges boxrate lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import a
// trail backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/plugin"
	"github.com/xraph/boxrate/rate"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnRateVersionCreated = (*Extension)(nil)
	_ plugin.OnRateVersionUpdated = (*Extension)(nil)
	_ plugin.OnAuditStarted       = (*Extension)(nil)
	_ plugin.OnAccountAudited     = (*Extension)(nil)
	_ plugin.OnAccountFlagged     = (*Extension)(nil)
	_ plugin.OnAuditCompleted     = (*Extension)(nil)
	_ plugin.OnAuditFailed        = (*Extension)(nil)
	_ plugin.OnOverrideSet        = (*Extension)(nil)
	_ plugin.OnOverrideCleared    = (*Extension)(nil)
	_ plugin.OnAuditDataCleared   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit trail event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records rate table changes, audit runs and override decisions.
type Extension struct {
	recorder     Recorder
	enabled      map[string]bool // nil = all enabled
	everyAccount bool
	logger       *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Rate table hooks
// ──────────────────────────────────────────────────

// OnRateVersionCreated implements plugin.OnRateVersionCreated. Closing the
// previous version is recorded as its own event.
func (e *Extension) OnRateVersionCreated(ctx context.Context, v, closed *rate.Version) error {
	if closed != nil && closed.EndDate != nil {
		_ = e.record(ctx, ActionRateVersionClosed, SeverityInfo, OutcomeSuccess,
			ResourceRateVersion, closed.ID.String(), CategoryPricing, nil,
			"start_date", closed.StartDate.String(),
			"end_date", closed.EndDate.String(),
			"superseded_by", v.ID.String(),
		)
	}
	return e.record(ctx, ActionRateVersionCreated, SeverityInfo, OutcomeSuccess,
		ResourceRateVersion, v.ID.String(), CategoryPricing, nil,
		"start_date", v.StartDate.String(),
		"base_rate_3_month", v.BaseRate3Month.String(),
		"base_rate_6_month", v.BaseRate6Month.String(),
		"base_rate_12_month", v.BaseRate12Month.String(),
	)
}

// OnRateVersionUpdated implements plugin.OnRateVersionUpdated.
func (e *Extension) OnRateVersionUpdated(ctx context.Context, oldVersion, newVersion *rate.Version) error {
	return e.record(ctx, ActionRateVersionUpdated, SeverityInfo, OutcomeSuccess,
		ResourceRateVersion, newVersion.ID.String(), CategoryPricing, nil,
		"start_date", newVersion.StartDate.String(),
		"previous_updated_at", oldVersion.UpdatedAt.Format(time.RFC3339),
	)
}

// ──────────────────────────────────────────────────
// Audit run hooks
// ──────────────────────────────────────────────────

// OnAuditStarted implements plugin.OnAuditStarted.
func (e *Extension) OnAuditStarted(ctx context.Context, runID id.AuditRunID, accounts int) error {
	return e.record(ctx, ActionAuditStarted, SeverityInfo, OutcomeSuccess,
		ResourceAuditRun, runID.String(), CategoryReconciliation, nil,
		"accounts", accounts,
	)
}

// OnAccountAudited implements plugin.OnAccountAudited. Only unflagged
// results are recorded here, and only with WithAuditedAccounts.
func (e *Extension) OnAccountAudited(ctx context.Context, runID id.AuditRunID, res *audit.Result) error {
	if !e.everyAccount || res.Flagged() {
		return nil
	}
	return e.record(ctx, ActionAccountAudited, SeverityInfo, OutcomeSuccess,
		ResourceAccount, res.AccountID.String(), CategoryReconciliation, nil,
		"run_id", runID.String(),
		"state", string(res.State),
		"current_rate", res.CurrentRate.String(),
		"expected_rate", res.ExpectedRate.String(),
	)
}

// OnAccountFlagged implements plugin.OnAccountFlagged.
func (e *Extension) OnAccountFlagged(ctx context.Context, runID id.AuditRunID, res *audit.Result) error {
	return e.record(ctx, ActionAccountFlagged, SeverityWarning, OutcomeSuccess,
		ResourceAccount, res.AccountID.String(), CategoryReconciliation, nil,
		"run_id", runID.String(),
		"flag_type", string(res.FlagType),
		"current_rate", res.CurrentRate.String(),
		"expected_rate", res.ExpectedRate.String(),
		"discrepancy", res.Discrepancy.String(),
		"note", res.Note,
	)
}

// OnAuditCompleted implements plugin.OnAuditCompleted.
func (e *Extension) OnAuditCompleted(ctx context.Context, s *audit.Summary, elapsed time.Duration) error {
	outcome := OutcomeSuccess
	if s.Flagged > 0 {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionAuditCompleted, SeverityInfo, outcome,
		ResourceAuditRun, s.RunID.String(), CategoryReconciliation, nil,
		"as_of", s.AsOf.String(),
		"total", s.Total,
		"ok", s.OK,
		"flagged", s.Flagged,
		"override_accepted", s.OverrideAccepted,
		"missing_rates", s.MissingRates,
		"total_discrepancy", s.TotalDiscrepancy.String(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnAuditFailed implements plugin.OnAuditFailed.
func (e *Extension) OnAuditFailed(ctx context.Context, runID id.AuditRunID, err error) error {
	return e.record(ctx, ActionAuditFailed, SeverityCritical, OutcomeFailure,
		ResourceAuditRun, runID.String(), CategoryReconciliation, err,
	)
}

// OnAuditDataCleared implements plugin.OnAuditDataCleared.
func (e *Extension) OnAuditDataCleared(ctx context.Context, accounts int64) error {
	return e.record(ctx, ActionAuditCleared, SeverityWarning, OutcomeSuccess,
		ResourceAuditRun, "", CategoryReconciliation, nil,
		"accounts", accounts,
	)
}

// ──────────────────────────────────────────────────
// Override hooks
// ──────────────────────────────────────────────────

// OnOverrideSet implements plugin.OnOverrideSet.
func (e *Extension) OnOverrideSet(ctx context.Context, accountID id.AccountID, reason string) error {
	return e.record(ctx, ActionOverrideSet, SeverityWarning, OutcomeSuccess,
		ResourceAccount, accountID.String(), CategoryAccount, nil,
		"override_reason", reason,
	)
}

// OnOverrideCleared implements plugin.OnOverrideCleared.
func (e *Extension) OnOverrideCleared(ctx context.Context, accountID id.AccountID) error {
	return e.record(ctx, ActionOverrideCleared, SeverityInfo, OutcomeSuccess,
		ResourceAccount, accountID.String(), CategoryAccount, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled. Recorder
// failures are logged, never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
