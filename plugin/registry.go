package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches events to them.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit               []OnInit
	onShutdown           []OnShutdown
	onRateVersionCreated []OnRateVersionCreated
	onRateVersionUpdated []OnRateVersionUpdated
	onAuditStarted       []OnAuditStarted
	onAccountAudited     []OnAccountAudited
	onAccountFlagged     []OnAccountFlagged
	onAuditCompleted     []OnAuditCompleted
	onAuditFailed        []OnAuditFailed
	onOverrideSet        []OnOverrideSet
	onOverrideCleared    []OnOverrideCleared
	onAuditDataCleared   []OnAuditDataCleared
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnRateVersionCreated); ok {
		r.onRateVersionCreated = append(r.onRateVersionCreated, v)
		hooks = append(hooks, "OnRateVersionCreated")
	}
	if v, ok := p.(OnRateVersionUpdated); ok {
		r.onRateVersionUpdated = append(r.onRateVersionUpdated, v)
		hooks = append(hooks, "OnRateVersionUpdated")
	}
	if v, ok := p.(OnAuditStarted); ok {
		r.onAuditStarted = append(r.onAuditStarted, v)
		hooks = append(hooks, "OnAuditStarted")
	}
	if v, ok := p.(OnAccountAudited); ok {
		r.onAccountAudited = append(r.onAccountAudited, v)
		hooks = append(hooks, "OnAccountAudited")
	}
	if v, ok := p.(OnAccountFlagged); ok {
		r.onAccountFlagged = append(r.onAccountFlagged, v)
		hooks = append(hooks, "OnAccountFlagged")
	}
	if v, ok := p.(OnAuditCompleted); ok {
		r.onAuditCompleted = append(r.onAuditCompleted, v)
		hooks = append(hooks, "OnAuditCompleted")
	}
	if v, ok := p.(OnAuditFailed); ok {
		r.onAuditFailed = append(r.onAuditFailed, v)
		hooks = append(hooks, "OnAuditFailed")
	}
	if v, ok := p.(OnOverrideSet); ok {
		r.onOverrideSet = append(r.onOverrideSet, v)
		hooks = append(hooks, "OnOverrideSet")
	}
	if v, ok := p.(OnOverrideCleared); ok {
		r.onOverrideCleared = append(r.onOverrideCleared, v)
		hooks = append(hooks, "OnOverrideCleared")
	}
	if v, ok := p.(OnAuditDataCleared); ok {
		r.onAuditDataCleared = append(r.onAuditDataCleared, v)
		hooks = append(hooks, "OnAuditDataCleared")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every plugin in the snapshot. Failures are logged and
// never returned.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, snapshot func() []T, fn func(T) error) {
	r.mu.RLock()
	plugins := snapshot()
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", func() []OnInit { return r.onInit }, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func() []OnShutdown { return r.onShutdown }, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitRateVersionCreated emits a rate version created event.
func (r *Registry) EmitRateVersionCreated(ctx context.Context, v, closed *rate.Version) {
	emit(ctx, r, "OnRateVersionCreated", func() []OnRateVersionCreated { return r.onRateVersionCreated }, func(p OnRateVersionCreated) error {
		return p.OnRateVersionCreated(ctx, v, closed)
	})
}

// EmitRateVersionUpdated emits a rate version updated event.
func (r *Registry) EmitRateVersionUpdated(ctx context.Context, oldVersion, newVersion *rate.Version) {
	emit(ctx, r, "OnRateVersionUpdated", func() []OnRateVersionUpdated { return r.onRateVersionUpdated }, func(p OnRateVersionUpdated) error {
		return p.OnRateVersionUpdated(ctx, oldVersion, newVersion)
	})
}

// EmitAuditStarted emits an audit started event.
func (r *Registry) EmitAuditStarted(ctx context.Context, runID id.AuditRunID, accounts int) {
	emit(ctx, r, "OnAuditStarted", func() []OnAuditStarted { return r.onAuditStarted }, func(p OnAuditStarted) error {
		return p.OnAuditStarted(ctx, runID, accounts)
	})
}

// EmitAccountAudited emits an account audited event, followed by an account
// flagged event when the result is flagged.
func (r *Registry) EmitAccountAudited(ctx context.Context, runID id.AuditRunID, result *audit.Result) {
	emit(ctx, r, "OnAccountAudited", func() []OnAccountAudited { return r.onAccountAudited }, func(p OnAccountAudited) error {
		return p.OnAccountAudited(ctx, runID, result)
	})
	if !result.Flagged() {
		return
	}
	emit(ctx, r, "OnAccountFlagged", func() []OnAccountFlagged { return r.onAccountFlagged }, func(p OnAccountFlagged) error {
		return p.OnAccountFlagged(ctx, runID, result)
	})
}

// EmitAuditCompleted emits an audit completed event.
func (r *Registry) EmitAuditCompleted(ctx context.Context, summary *audit.Summary, elapsed time.Duration) {
	emit(ctx, r, "OnAuditCompleted", func() []OnAuditCompleted { return r.onAuditCompleted }, func(p OnAuditCompleted) error {
		return p.OnAuditCompleted(ctx, summary, elapsed)
	})
}

// EmitAuditFailed emits an audit failed event.
func (r *Registry) EmitAuditFailed(ctx context.Context, runID id.AuditRunID, err error) {
	emit(ctx, r, "OnAuditFailed", func() []OnAuditFailed { return r.onAuditFailed }, func(p OnAuditFailed) error {
		return p.OnAuditFailed(ctx, runID, err)
	})
}

// EmitOverrideSet emits an override set event.
func (r *Registry) EmitOverrideSet(ctx context.Context, accountID id.AccountID, reason string) {
	emit(ctx, r, "OnOverrideSet", func() []OnOverrideSet { return r.onOverrideSet }, func(p OnOverrideSet) error {
		return p.OnOverrideSet(ctx, accountID, reason)
	})
}

// EmitOverrideCleared emits an override cleared event.
func (r *Registry) EmitOverrideCleared(ctx context.Context, accountID id.AccountID) {
	emit(ctx, r, "OnOverrideCleared", func() []OnOverrideCleared { return r.onOverrideCleared }, func(p OnOverrideCleared) error {
		return p.OnOverrideCleared(ctx, accountID)
	})
}

// EmitAuditDataCleared emits an audit data cleared event.
func (r *Registry) EmitAuditDataCleared(ctx context.Context, accounts int64) {
	emit(ctx, r, "OnAuditDataCleared", func() []OnAuditDataCleared { return r.onAuditDataCleared }, func(p OnAuditDataCleared) error {
		return p.OnAuditDataCleared(ctx, accounts)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block the engine for longer than the registry timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
