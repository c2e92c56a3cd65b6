// Package observability provides a metrics extension for boxrate that records
// rate table and reconciliation counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/plugin"
	"github.com/xraph/boxrate/rate"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnRateVersionCreated = (*MetricsExtension)(nil)
	_ plugin.OnRateVersionUpdated = (*MetricsExtension)(nil)
	_ plugin.OnAuditStarted       = (*MetricsExtension)(nil)
	_ plugin.OnAccountAudited     = (*MetricsExtension)(nil)
	_ plugin.OnAuditCompleted     = (*MetricsExtension)(nil)
	_ plugin.OnAuditFailed        = (*MetricsExtension)(nil)
	_ plugin.OnOverrideSet        = (*MetricsExtension)(nil)
	_ plugin.OnOverrideCleared    = (*MetricsExtension)(nil)
	_ plugin.OnAuditDataCleared   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide pricing and audit metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Rate table metrics
	RateVersionCreated Counter
	RateVersionClosed  Counter
	RateVersionUpdated Counter

	// Audit run metrics
	AuditRuns        Counter
	AuditFailures    Counter
	AuditLatency     Histogram
	AuditBatchSize   Histogram
	AccountsAudited  Counter
	AccountsOK       Counter
	AccountsFlagged  Counter
	OverrideAccepted Counter
	MissingRates     Counter
	Discrepancy      Histogram

	// Flag type metrics
	FlagUndercharged      Counter
	FlagOvercharged       Counter
	FlagRecipientOverflow Counter

	// Override metrics
	OverrideSet     Counter
	OverrideCleared Counter
	AuditCleared    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		RateVersionCreated: factory.Counter("boxrate.rate_version.created"),
		RateVersionClosed:  factory.Counter("boxrate.rate_version.closed"),
		RateVersionUpdated: factory.Counter("boxrate.rate_version.updated"),

		AuditRuns:        factory.Counter("boxrate.audit.runs"),
		AuditFailures:    factory.Counter("boxrate.audit.failures"),
		AuditLatency:     factory.Histogram("boxrate.audit.latency_ms"),
		AuditBatchSize:   factory.Histogram("boxrate.audit.batch.size"),
		AccountsAudited:  factory.Counter("boxrate.audit.accounts"),
		AccountsOK:       factory.Counter("boxrate.audit.accounts.ok"),
		AccountsFlagged:  factory.Counter("boxrate.audit.accounts.flagged"),
		OverrideAccepted: factory.Counter("boxrate.audit.accounts.override_accepted"),
		MissingRates:     factory.Counter("boxrate.audit.missing_rates"),
		Discrepancy:      factory.Histogram("boxrate.audit.discrepancy_cents"),

		FlagUndercharged:      factory.Counter("boxrate.flag.undercharged"),
		FlagOvercharged:       factory.Counter("boxrate.flag.overcharged"),
		FlagRecipientOverflow: factory.Counter("boxrate.flag.recipient_overflow"),

		OverrideSet:     factory.Counter("boxrate.override.set"),
		OverrideCleared: factory.Counter("boxrate.override.cleared"),
		AuditCleared:    factory.Counter("boxrate.audit.cleared"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Rate table hooks
// ──────────────────────────────────────────────────

// OnRateVersionCreated implements plugin.OnRateVersionCreated.
func (m *MetricsExtension) OnRateVersionCreated(_ context.Context, _, closed *rate.Version) error {
	m.RateVersionCreated.Inc()
	if closed != nil {
		m.RateVersionClosed.Inc()
	}
	return nil
}

// OnRateVersionUpdated implements plugin.OnRateVersionUpdated.
func (m *MetricsExtension) OnRateVersionUpdated(_ context.Context, _, _ *rate.Version) error {
	m.RateVersionUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Audit run hooks
// ──────────────────────────────────────────────────

// OnAuditStarted implements plugin.OnAuditStarted.
func (m *MetricsExtension) OnAuditStarted(_ context.Context, _ id.AuditRunID, accounts int) error {
	m.AuditRuns.Inc()
	m.AuditBatchSize.Observe(float64(accounts))
	return nil
}

// OnAccountAudited implements plugin.OnAccountAudited.
func (m *MetricsExtension) OnAccountAudited(_ context.Context, _ id.AuditRunID, res *audit.Result) error {
	m.AccountsAudited.Inc()
	if res.MissingRate {
		m.MissingRates.Inc()
	}

	switch res.State {
	case audit.StateOK:
		m.AccountsOK.Inc()
		return nil
	case audit.StateOverrideAccepted:
		m.OverrideAccepted.Inc()
		return nil
	}

	m.AccountsFlagged.Inc()
	m.Discrepancy.Observe(float64(res.Discrepancy.Abs().Amount))
	switch res.FlagType {
	case account.FlagUndercharged:
		m.FlagUndercharged.Inc()
	case account.FlagOvercharged:
		m.FlagOvercharged.Inc()
	case account.FlagRecipientOverflow:
		m.FlagRecipientOverflow.Inc()
	}
	return nil
}

// OnAuditCompleted implements plugin.OnAuditCompleted.
func (m *MetricsExtension) OnAuditCompleted(_ context.Context, _ *audit.Summary, elapsed time.Duration) error {
	m.AuditLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnAuditFailed implements plugin.OnAuditFailed.
func (m *MetricsExtension) OnAuditFailed(_ context.Context, _ id.AuditRunID, _ error) error {
	m.AuditFailures.Inc()
	return nil
}

// OnAuditDataCleared implements plugin.OnAuditDataCleared.
func (m *MetricsExtension) OnAuditDataCleared(_ context.Context, _ int64) error {
	m.AuditCleared.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Override hooks
// ──────────────────────────────────────────────────

// OnOverrideSet implements plugin.OnOverrideSet.
func (m *MetricsExtension) OnOverrideSet(_ context.Context, _ id.AccountID, _ string) error {
	m.OverrideSet.Inc()
	return nil
}

// OnOverrideCleared implements plugin.OnOverrideCleared.
func (m *MetricsExtension) OnOverrideCleared(_ context.Context, _ id.AccountID) error {
	m.OverrideCleared.Inc()
	return nil
}
