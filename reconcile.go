package boxrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/types"
)

// ──────────────────────────────────────────────────
// Audit reconciliation
// ──────────────────────────────────────────────────

// RunAudit reconciles accounts against the rate version effective on each
// account's pricing date and writes the resulting flag and note back to the
// store. Accounts are reconciled concurrently by a bounded worker pool.
//
// A rate lookup miss flags the account and the run continues. Any store
// failure aborts the whole run with an error matching
// ErrRepositoryUnavailable; a not-found error, such as an account deleted
// mid-run, aborts it unwrapped. An account with an invalid renewal period
// aborts the run before anything is written.
func (e *Engine) RunAudit(ctx context.Context, accounts []*account.Account) (*audit.Summary, error) {
	e.auditMu.Lock()
	defer e.auditMu.Unlock()

	runID := id.NewAuditRunID()
	startedAt := e.now()
	asOf := types.DateOf(startedAt)

	e.logger.Info("audit started",
		"run_id", runID.String(),
		"accounts", len(accounts),
		"workers", e.auditWorkers,
	)
	e.plugins.EmitAuditStarted(ctx, runID, len(accounts))

	versions, err := e.rateVersions(ctx)
	if err != nil {
		return nil, e.auditFailed(ctx, runID, err)
	}

	for _, a := range accounts {
		if a != nil && !a.RenewalPeriod.Valid() {
			err := fmt.Errorf("%w: account %s has renewal period %q", ErrInvalidPeriod, a.ID, a.RenewalPeriod)
			return nil, e.auditFailed(ctx, runID, err)
		}
	}

	results := make([]audit.Result, len(accounts))
	done := make([]bool, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.auditWorkers)
	for i, a := range accounts {
		if a == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.reconcile(gctx, a, versions, asOf, startedAt)
			if err != nil {
				return err
			}
			results[i] = res
			done[i] = true
			e.plugins.EmitAccountAudited(gctx, runID, &results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.auditFailed(ctx, runID, err)
	}

	summary := audit.NewSummary(runID, asOf, startedAt, e.currency)
	for i := range results {
		if done[i] {
			summary.Add(results[i])
		}
	}
	summary.CompletedAt = e.now()
	elapsed := summary.CompletedAt.Sub(startedAt)

	e.logger.Info("audit completed",
		"run_id", runID.String(),
		"total", summary.Total,
		"ok", summary.OK,
		"flagged", summary.Flagged,
		"override_accepted", summary.OverrideAccepted,
		"missing_rates", summary.MissingRates,
		"elapsed", elapsed,
	)
	e.plugins.EmitAuditCompleted(ctx, summary, elapsed)

	return summary, nil
}

// RunAll loads accounts matching opts and audits them.
func (e *Engine) RunAll(ctx context.Context, opts account.ListOpts) (*audit.Summary, error) {
	accounts, err := e.store.ListAccounts(ctx, opts)
	if err != nil {
		return nil, unavailable("list accounts", err)
	}
	return e.RunAudit(ctx, accounts)
}

func (e *Engine) reconcile(ctx context.Context, a *account.Account, versions []*rate.Version, asOf types.Date, at time.Time) (audit.Result, error) {
	recipients, err := e.store.ListRecipients(ctx, a.ID)
	if err != nil {
		return audit.Result{}, unavailable("list recipients", err)
	}

	on := a.PricingDate()
	v, ok := rate.EffectiveOn(versions, on)
	if !ok {
		e.logger.Warn("no rate version effective",
			"account_id", a.ID.String(),
			"pricing_date", on.String(),
		)
	}

	res := audit.Evaluate(audit.Input{
		Account:    a,
		Recipients: recipients,
		Rates:      v,
		AsOf:       asOf,
		Tolerance:  e.tolerance,
	})

	if err := e.store.UpdateAudit(ctx, a.ID, res.Update(at)); err != nil {
		return audit.Result{}, unavailable("update audit", err)
	}
	return res, nil
}

func (e *Engine) auditFailed(ctx context.Context, runID id.AuditRunID, err error) error {
	e.logger.Error("audit aborted",
		"run_id", runID.String(),
		"error", err,
	)
	e.plugins.EmitAuditFailed(ctx, runID, err)
	return err
}

// SetOverride accepts the account's current rate. The audit flag is cleared
// and a note records the reason; pricing is not recomputed.
func (e *Engine) SetOverride(ctx context.Context, accountID id.AccountID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ValidationError{Field: "reason", Message: "required"}
	}

	now := e.now()
	u := account.AuditUpdate{Note: audit.OverrideSetNote(reason), AuditedAt: &now}
	if err := e.store.SetOverride(ctx, accountID, reason, u); err != nil {
		return err
	}

	e.logger.Info("rate override set", "account_id", accountID.String())
	e.plugins.EmitOverrideSet(ctx, accountID, reason)
	return nil
}

// ClearOverride removes an override. The next audit re-flags the account if
// the discrepancy persists.
func (e *Engine) ClearOverride(ctx context.Context, accountID id.AccountID) error {
	if err := e.store.ClearOverride(ctx, accountID); err != nil {
		return err
	}

	e.logger.Info("rate override cleared", "account_id", accountID.String())
	e.plugins.EmitOverrideCleared(ctx, accountID)
	return nil
}

// ClearAllAuditData resets audit flags, notes and timestamps on every
// account. Overrides are kept.
func (e *Engine) ClearAllAuditData(ctx context.Context) (int64, error) {
	e.auditMu.Lock()
	defer e.auditMu.Unlock()

	n, err := e.store.ClearAllAudit(ctx)
	if err != nil {
		return 0, unavailable("clear audit data", err)
	}

	e.logger.Info("audit data cleared", "accounts", n)
	e.plugins.EmitAuditDataCleared(ctx, n)
	return n, nil
}

// ExpectedRate reconciles one account without writing anything.
func (e *Engine) ExpectedRate(ctx context.Context, accountID id.AccountID) (*audit.Result, error) {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !a.RenewalPeriod.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, a.RenewalPeriod)
	}
	recipients, err := e.store.ListRecipients(ctx, accountID)
	if err != nil {
		return nil, err
	}
	versions, err := e.rateVersions(ctx)
	if err != nil {
		return nil, err
	}

	v, _ := rate.EffectiveOn(versions, a.PricingDate())
	res := audit.Evaluate(audit.Input{
		Account:    a,
		Recipients: recipients,
		Rates:      v,
		AsOf:       e.today(),
		Tolerance:  e.tolerance,
	})
	return &res, nil
}

// RenewalQuote prices the account's next term of period starting on start,
// including minors who turn 18 during it.
func (e *Engine) RenewalQuote(ctx context.Context, accountID id.AccountID, period pricing.Period, start types.Date) (*pricing.RenewalBreakdown, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if start.IsZero() {
		return nil, ValidationError{Field: "start", Message: "required"}
	}
	if _, err := e.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	recipients, err := e.store.ListRecipients(ctx, accountID)
	if err != nil {
		return nil, err
	}
	v, err := e.RatesEffectiveOn(ctx, start)
	if err != nil {
		return nil, err
	}

	rb := pricing.Prorate(v, period, recipients, start)
	return &rb, nil
}
