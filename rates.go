package boxrate

import (
	"context"
	"fmt"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/types"
)

// ──────────────────────────────────────────────────
// Rate table
// ──────────────────────────────────────────────────

// CurrentRates returns the open rate version, falling back to the latest
// version started on or before today when none is open.
func (e *Engine) CurrentRates(ctx context.Context) (*rate.Version, error) {
	versions, err := e.rateVersions(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := rate.Current(versions, e.today())
	if !ok {
		return nil, ErrRateVersionNotFound
	}
	return v, nil
}

// RatesEffectiveOn returns the version covering d. A miss returns an error
// matching ErrNoRateEffective.
func (e *Engine) RatesEffectiveOn(ctx context.Context, d types.Date) (*rate.Version, error) {
	versions, err := e.rateVersions(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := rate.EffectiveOn(versions, d)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRateEffective, d)
	}
	return v, nil
}

// RateHistory returns every version ordered by start date.
func (e *Engine) RateHistory(ctx context.Context) ([]*rate.Version, error) {
	return e.rateVersions(ctx)
}

// GetRateVersion retrieves a version by ID.
func (e *Engine) GetRateVersion(ctx context.Context, versionID id.RateVersionID) (*rate.Version, error) {
	e.rateMu.RLock()
	defer e.rateMu.RUnlock()

	return e.store.GetRateVersion(ctx, versionID)
}

// CreateRateVersion opens v as the new current version and closes the
// previously open version on the day before v starts. v must start today or
// later and after the open version's start.
func (e *Engine) CreateRateVersion(ctx context.Context, v *rate.Version) error {
	if v.EndDate != nil {
		return ValidationError{Field: "end_date", Message: "a new version must be open"}
	}
	if err := e.validate(v); err != nil {
		return err
	}

	e.rateMu.Lock()
	defer e.rateMu.Unlock()

	today := e.today()
	if v.StartDate.Before(today) {
		return fmt.Errorf("%w: %s is before %s", ErrVersionInPast, v.StartDate, today)
	}

	versions, err := e.store.ListRateVersions(ctx)
	if err != nil {
		return unavailable("list rate versions", err)
	}
	for _, existing := range versions {
		if !existing.StartDate.Before(v.StartDate) {
			return fmt.Errorf("%w: version %s starts %s", ErrVersionOverlap, existing.ID, existing.StartDate)
		}
		if existing.EndDate != nil && !existing.EndDate.Before(v.StartDate) {
			return fmt.Errorf("%w: version %s ends %s", ErrVersionOverlap, existing.ID, *existing.EndDate)
		}
	}

	if v.ID.IsNil() {
		v.ID = id.NewRateVersionID()
	}
	if v.Currency == "" {
		v.Currency = e.currency
	}
	*v = *v.Normalize()
	v.Entity = types.NewEntity(e.now())

	closeEnd := v.StartDate.AddDays(-1)
	if err := e.store.RotateRateVersion(ctx, v, closeEnd); err != nil {
		return unavailable("rotate rate version", err)
	}

	var closed *rate.Version
	if open, ok := rate.Open(versions); ok {
		closed = open.Clone()
		closed.EndDate = &closeEnd
	}

	e.logger.Info("rate version created",
		"version_id", v.ID.String(),
		"start_date", v.StartDate.String(),
		"closed_version_id", closedID(closed),
	)

	e.plugins.EmitRateVersionCreated(ctx, v, closed)
	return nil
}

// UpdateRateVersion corrects the amounts or notes of a version that has not
// yet taken effect. Dates are fixed once a version exists.
func (e *Engine) UpdateRateVersion(ctx context.Context, v *rate.Version) error {
	if err := e.validate(v); err != nil {
		return err
	}

	e.rateMu.Lock()
	defer e.rateMu.Unlock()

	existing, err := e.store.GetRateVersion(ctx, v.ID)
	if err != nil {
		return err
	}
	if !existing.StartDate.After(e.today()) {
		return fmt.Errorf("%w: %s started %s", ErrVersionAlreadyEffective, existing.ID, existing.StartDate)
	}
	if v.StartDate != existing.StartDate {
		return ValidationError{Field: "start_date", Message: "cannot change the start of an existing version"}
	}
	if !sameEnd(v.EndDate, existing.EndDate) {
		return ValidationError{Field: "end_date", Message: "end dates are set by rotation"}
	}

	updated := v.Clone()
	if updated.Currency == "" {
		updated.Currency = existing.Currency
	}
	updated = updated.Normalize()
	updated.Entity = existing.Entity
	updated.Touch(e.now())

	if err := e.store.UpdateRateVersion(ctx, updated); err != nil {
		return unavailable("update rate version", err)
	}
	*v = *updated

	e.logger.Info("rate version updated", "version_id", v.ID.String())

	e.plugins.EmitRateVersionUpdated(ctx, existing, updated)
	return nil
}

func (e *Engine) rateVersions(ctx context.Context) ([]*rate.Version, error) {
	e.rateMu.RLock()
	defer e.rateMu.RUnlock()

	versions, err := e.store.ListRateVersions(ctx)
	if err != nil {
		return nil, unavailable("list rate versions", err)
	}
	return versions, nil
}

func (e *Engine) validate(v *rate.Version) error {
	var errs MultiError
	for _, issue := range rate.Check(v) {
		errs.Add(ValidationError{Field: issue.Field, Message: issue.Message})
	}
	if v.Currency != "" && types.Zero(v.Currency).Currency != e.currency {
		errs.Add(ValidationError{Field: "currency", Message: fmt.Sprintf("store currency is %s", e.currency)})
	}
	return errs.ErrOrNil()
}

func sameEnd(a, b *types.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func closedID(v *rate.Version) string {
	if v == nil {
		return ""
	}
	return v.ID.String()
}
