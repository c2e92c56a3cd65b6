// Package audit reconciles an account's stored monthly rate against the rate
// recomputed from its recipients and the rate version that priced it.
//
// Evaluate is a pure per-account state machine. Running it and persisting the
// result is the caller's job.
package audit

import (
	"fmt"
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

// State is the terminal state one account reaches in an audit pass.
type State string

const (
	StateOK               State = "ok"
	StateFlagged          State = "flagged"
	StateOverrideAccepted State = "override_accepted"
)

// DefaultTolerance is the largest discrepancy treated as a match.
var DefaultTolerance = types.USD(1)

// Input is everything needed to reconcile one account.
type Input struct {
	Account    *account.Account
	Recipients []*recipient.Recipient
	// Rates is the version effective on Account.PricingDate(); nil when
	// the lookup missed.
	Rates *rate.Version
	// AsOf is the date recipients are classified on.
	AsOf      types.Date
	Tolerance types.Money
}

// Result is the outcome of reconciling one account.
type Result struct {
	AccountID     id.AccountID     `json:"account_id"`
	RateVersionID id.RateVersionID `json:"rate_version_id,omitempty"`
	PricingDate   types.Date       `json:"pricing_date"`
	CurrentRate   types.Money      `json:"current_rate"`
	ExpectedRate  types.Money      `json:"expected_rate"`
	Discrepancy   types.Money      `json:"discrepancy"`
	HasOverride   bool             `json:"has_override"`
	AdultCount    int              `json:"adult_count"`
	MissingRate   bool             `json:"missing_rate,omitempty"`
	// CurrencyMismatch is set when the stored rate is not in the rate
	// version's currency and no discrepancy could be computed.
	CurrencyMismatch bool `json:"currency_mismatch,omitempty"`

	State    State              `json:"state"`
	FlagType account.FlagType   `json:"flag_type,omitempty"`
	Note     string             `json:"note,omitempty"`
	Expected *pricing.Breakdown `json:"expected,omitempty"`
}

// Flagged reports whether the result sets the account's audit flag.
func (r *Result) Flagged() bool { return r.State == StateFlagged }

// Update converts the result into the audit fields written to the account.
func (r *Result) Update(at time.Time) account.AuditUpdate {
	return account.AuditUpdate{
		Flag:      r.Flagged(),
		FlagType:  r.FlagType,
		Note:      r.Note,
		AuditedAt: &at,
	}
}

// Evaluate reconciles one account.
//
// A missing rate version flags the account UNDERCHARGED so it surfaces for
// review. More than rate.MaxAdults adults flags RECIPIENT_OVERFLOW regardless
// of discrepancy or override. Otherwise a discrepancy above the tolerance is
// flagged UNDERCHARGED or OVERCHARGED, unless a manager override accepts it.
// A stored rate in another currency cannot be compared and is flagged
// UNDERCHARGED for review.
//
// Evaluate panics if the account's renewal period is invalid.
func Evaluate(in Input) Result {
	a := in.Account
	res := Result{
		AccountID:   a.ID,
		PricingDate: a.PricingDate(),
		CurrentRate: a.CurrentRate,
		HasOverride: a.RateOverride,
	}

	if in.Rates == nil {
		res.MissingRate = true
		res.State = StateFlagged
		res.FlagType = account.FlagUndercharged
		res.Note = missingRateNote(res.PricingDate)
		return res
	}

	v := in.Rates.Normalize()
	currency := v.Currency
	if res.CurrentRate.Currency == "" {
		res.CurrentRate.Currency = currency
	} else {
		res.CurrentRate.Currency = types.Zero(res.CurrentRate.Currency).Currency
	}
	tolerance := in.Tolerance
	if tolerance == (types.Money{}) {
		tolerance = DefaultTolerance
	}
	tolerance.Currency = currency

	c := recipient.Classify(in.Recipients, in.AsOf)
	b := pricing.Calculate(v, c, a.RenewalPeriod)

	res.RateVersionID = v.ID
	res.AdultCount = c.AdultCount
	res.Expected = &b
	res.ExpectedRate = b.TotalMonthly

	if c.AdultCount > rate.MaxAdults {
		res.State = StateFlagged
		res.FlagType = account.FlagRecipientOverflow
		res.Note = overflowNote(c.AdultCount)
		if res.CurrentRate.Currency == currency {
			res.Discrepancy = res.CurrentRate.Subtract(res.ExpectedRate).Abs()
		}
		return res
	}

	if res.CurrentRate.Currency != currency {
		res.CurrencyMismatch = true
		res.State = StateFlagged
		res.FlagType = account.FlagUndercharged
		res.Note = currencyMismatchNote(res.CurrentRate, currency)
		return res
	}

	res.Discrepancy = res.CurrentRate.Subtract(res.ExpectedRate).Abs()

	switch {
	case !res.Discrepancy.GreaterThan(tolerance):
		res.State = StateOK
	case res.HasOverride:
		res.State = StateOverrideAccepted
		res.Note = overrideNote(a.RateOverrideReason, res.CurrentRate, res.ExpectedRate)
	case res.CurrentRate.LessThan(res.ExpectedRate):
		res.State = StateFlagged
		res.FlagType = account.FlagUndercharged
		res.Note = discrepancyNote("Undercharged", res.CurrentRate, res.ExpectedRate, res.Discrepancy)
	default:
		res.State = StateFlagged
		res.FlagType = account.FlagOvercharged
		res.Note = discrepancyNote("Overcharged", res.CurrentRate, res.ExpectedRate, res.Discrepancy)
	}
	return res
}

func missingRateNote(on types.Date) string {
	return fmt.Sprintf("No rate version is effective on %s; expected rate could not be determined. Check rate history.", on)
}

func currencyMismatchNote(current types.Money, currency string) string {
	return fmt.Sprintf("Current rate %s is in %s but rates are priced in %s; expected rate could not be compared. Check the account rate.",
		current.FormatMajor(), current.Currency, currency)
}

func overflowNote(adults int) string {
	return fmt.Sprintf("Account has %d adult recipients; the maximum is %d.", adults, rate.MaxAdults)
}

func discrepancyNote(kind string, current, expected, diff types.Money) string {
	return fmt.Sprintf("%s: current rate %s/mo, expected %s/mo (difference %s).", kind, current, expected, diff)
}

func overrideNote(reason string, current, expected types.Money) string {
	if reason == "" {
		return fmt.Sprintf("Rate override accepted: current %s/mo, expected %s/mo.", current, expected)
	}
	return fmt.Sprintf("Rate override accepted (%s): current %s/mo, expected %s/mo.", reason, current, expected)
}

// OverrideSetNote is the note left on an account when a manager grants an
// override.
func OverrideSetNote(reason string) string {
	return fmt.Sprintf("Rate override granted: %s", reason)
}
