package audithook

// Action constants for audit events.
const (
	// Rate table actions
	ActionRateVersionCreated = "rate_version.created"
	ActionRateVersionClosed  = "rate_version.closed"
	ActionRateVersionUpdated = "rate_version.updated"

	// Audit run actions
	ActionAuditStarted   = "audit.started"
	ActionAuditCompleted = "audit.completed"
	ActionAuditFailed    = "audit.failed"
	ActionAuditCleared   = "audit.cleared"

	// Account actions
	ActionAccountAudited  = "account.audited"
	ActionAccountFlagged  = "account.flagged"
	ActionOverrideSet     = "override.set"
	ActionOverrideCleared = "override.cleared"
)

// Resource constants for audit events.
const (
	ResourceRateVersion = "rate_version"
	ResourceAuditRun    = "audit_run"
	ResourceAccount     = "account"
)

// Category constants for audit events.
const (
	CategoryPricing        = "pricing"
	CategoryReconciliation = "reconciliation"
	CategoryAccount        = "account"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
