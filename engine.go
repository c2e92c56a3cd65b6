package boxrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/plugin"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/types"
)

// DefaultAuditWorkers is the default audit worker pool size.
const DefaultAuditWorkers = 8

// Engine is the pricing and audit engine for a single mailbox store.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// rateMu serializes rate table writes against lookups.
	rateMu sync.RWMutex
	// auditMu allows one audit run at a time.
	auditMu sync.Mutex

	// Configuration
	auditWorkers int
	tolerance    types.Money
	currency     string
}

// New creates a new Engine on s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		clock:        time.Now,
		auditWorkers: DefaultAuditWorkers,
		currency:     types.DefaultCurrency,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.tolerance = types.Cents(e.tolerance.Amount, e.currency)
	if e.tolerance.IsZero() {
		e.tolerance = types.Cents(audit.DefaultTolerance.Amount, e.currency)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock replaces the wall clock. "Today" for rate creation and age
// math is the calendar day of clock() in its own location.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithAuditWorkers bounds the number of accounts reconciled concurrently.
func WithAuditWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.auditWorkers = n
		}
	}
}

// WithDiscrepancyTolerance sets the largest discrepancy treated as a match.
// A zero tolerance falls back to one cent.
func WithDiscrepancyTolerance(m types.Money) Option {
	return func(e *Engine) {
		e.tolerance = m
	}
}

// WithCurrency sets the store currency used for new rate versions.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		e.currency = types.Zero(currency).Currency
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("boxrate started",
		"audit_workers", e.auditWorkers,
		"tolerance", e.tolerance.String(),
		"currency", e.currency,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	// Wait for an in-flight audit run.
	e.auditMu.Lock()
	defer e.auditMu.Unlock()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	e.logger.Info("boxrate stopped")
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

func (e *Engine) now() time.Time { return e.clock() }

func (e *Engine) today() types.Date { return types.DateOf(e.clock()) }

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

// CreateAccount stores a new account. The stored rate defaults to zero in
// the store currency; a rate in any other currency is rejected.
func (e *Engine) CreateAccount(ctx context.Context, a *account.Account) error {
	if !a.RenewalPeriod.Valid() {
		return ValidationError{Field: "renewal_period", Message: fmt.Sprintf("unknown period %q", a.RenewalPeriod)}
	}
	if a.StartDate.IsZero() {
		return ValidationError{Field: "start_date", Message: "required"}
	}
	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	if a.Status == "" {
		a.Status = account.StatusActive
	}
	if a.CurrentRate.Currency == "" {
		a.CurrentRate.Currency = e.currency
	}
	if c := types.Zero(a.CurrentRate.Currency).Currency; c != e.currency {
		return ValidationError{Field: "current_rate", Message: fmt.Sprintf("currency %q does not match store currency %q", c, e.currency)}
	}
	a.CurrentRate.Currency = e.currency
	a.Entity = types.NewEntity(e.now())

	return e.store.CreateAccount(ctx, a)
}

// GetAccount retrieves an account by ID.
func (e *Engine) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// ListAccounts lists accounts.
func (e *Engine) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	return e.store.ListAccounts(ctx, opts)
}

// AddRecipient stores a new recipient on an existing account.
func (e *Engine) AddRecipient(ctx context.Context, r *recipient.Recipient) error {
	if r.AccountID.IsNil() {
		return ValidationError{Field: "account_id", Message: "required"}
	}
	switch r.Type {
	case recipient.TypePerson, recipient.TypeBusiness:
	default:
		return ValidationError{Field: "type", Message: fmt.Sprintf("unknown recipient type %q", r.Type)}
	}
	if r.ID.IsNil() {
		r.ID = id.NewRecipientID()
	}
	r.Entity = types.NewEntity(e.now())

	return e.store.CreateRecipient(ctx, r)
}

// RemoveRecipient marks a recipient removed. Removed recipients no longer
// take part in pricing.
func (e *Engine) RemoveRecipient(ctx context.Context, r *recipient.Recipient) error {
	r.Removed = true
	r.Touch(e.now())
	return e.store.UpdateRecipient(ctx, r)
}

// Recipients lists every recipient of an account, removed ones included.
func (e *Engine) Recipients(ctx context.Context, accountID id.AccountID) ([]*recipient.Recipient, error) {
	return e.store.ListRecipients(ctx, accountID)
}
