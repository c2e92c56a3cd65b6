package audit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

var asOf = types.MustParseDate("2026-10-14")

func dollars(n int64) types.Money { return types.USD(n * 100) }

func rates() *rate.Version {
	return &rate.Version{
		ID:                   id.NewRateVersionID(),
		StartDate:            types.MustParseDate("2026-01-01"),
		BaseRate3Month:       dollars(153),
		BaseRate6Month:       dollars(282),
		BaseRate12Month:      dollars(520),
		AdditionalAdultRates: rate.Tiers(dollars(2), dollars(3), dollars(4), dollars(5)),
		BusinessAccountFee:   dollars(10),
		MinorRecipientFee:    dollars(1),
		Currency:             types.DefaultCurrency,
	}
}

func people(n int) []*recipient.Recipient {
	out := make([]*recipient.Recipient, n)
	for i := range out {
		b := types.MustParseDate("1975-01-01")
		out[i] = &recipient.Recipient{ID: id.NewRecipientID(), Type: recipient.TypePerson, Birthdate: &b}
	}
	return out
}

func acct(current types.Money, override bool) *account.Account {
	return &account.Account{
		ID:            id.NewAccountID(),
		RenewalPeriod: pricing.PeriodThreeMonth,
		StartDate:     types.MustParseDate("2026-02-01"),
		CurrentRate:   current,
		RateOverride:  override,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		account    *account.Account
		recipients []*recipient.Recipient
		rates      *rate.Version
		state      audit.State
		flag       account.FlagType
		noteHas    string
	}{
		{
			name:       "exact match",
			account:    acct(dollars(51), false),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateOK,
		},
		{
			name:       "one cent within tolerance",
			account:    acct(types.USD(5101), false),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateOK,
		},
		{
			name:       "undercharged",
			account:    acct(dollars(45), false),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagUndercharged,
			noteHas:    "expected $51.00/mo",
		},
		{
			name:       "overcharged by two cents",
			account:    acct(types.USD(5102), false),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagOvercharged,
		},
		{
			name:       "override accepts discrepancy",
			account:    acct(dollars(40), true),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateOverrideAccepted,
			noteHas:    "override accepted",
		},
		{
			name:       "overflow outranks override",
			account:    acct(dollars(40), true),
			recipients: people(8),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagRecipientOverflow,
			noteHas:    "8 adult recipients",
		},
		{
			name:       "overflow with matching rate",
			account:    acct(dollars(51+14), false),
			recipients: people(8),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagRecipientOverflow,
		},
		{
			name:       "missing rate flags undercharged",
			account:    acct(dollars(51), false),
			recipients: people(1),
			rates:      nil,
			state:      audit.StateFlagged,
			flag:       account.FlagUndercharged,
			noteHas:    "No rate version is effective on 2026-02-01",
		},
		{
			name:       "foreign currency flags for review",
			account:    acct(types.Cents(5100, "eur"), false),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagUndercharged,
			noteHas:    "priced in usd",
		},
		{
			name:       "foreign currency with override still flagged",
			account:    acct(types.Cents(4000, "EUR"), true),
			recipients: people(1),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagUndercharged,
			noteHas:    "in eur",
		},
		{
			name:       "overflow outranks foreign currency",
			account:    acct(types.Cents(6500, "eur"), false),
			recipients: people(8),
			rates:      rates(),
			state:      audit.StateFlagged,
			flag:       account.FlagRecipientOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := audit.Input{Account: tt.account, Recipients: tt.recipients, Rates: tt.rates, AsOf: asOf}
			got := audit.Evaluate(in)
			if got.State != tt.state {
				t.Errorf("State = %s, want %s", got.State, tt.state)
			}
			if got.FlagType != tt.flag {
				t.Errorf("FlagType = %q, want %q", got.FlagType, tt.flag)
			}
			if tt.noteHas != "" && !strings.Contains(got.Note, tt.noteHas) {
				t.Errorf("Note = %q, want it to contain %q", got.Note, tt.noteHas)
			}
			if tt.state == audit.StateOK && got.Note != "" {
				t.Errorf("ok result carries note %q", got.Note)
			}
			if again := audit.Evaluate(in); again.State != got.State || again.FlagType != got.FlagType || again.Note != got.Note {
				t.Error("Evaluate is not deterministic")
			}
		})
	}
}

func TestEvaluateMissingRateMarked(t *testing.T) {
	got := audit.Evaluate(audit.Input{Account: acct(dollars(1), false), AsOf: asOf})
	if !got.MissingRate || got.Expected != nil {
		t.Errorf("got %+v", got)
	}
}

func TestEvaluateCurrencyMismatchMarked(t *testing.T) {
	got := audit.Evaluate(audit.Input{
		Account:    acct(types.Cents(5100, "eur"), false),
		Recipients: people(1),
		Rates:      rates(),
		AsOf:       asOf,
	})
	if !got.CurrencyMismatch || got.MissingRate {
		t.Errorf("got %+v", got)
	}
	if got.Discrepancy != (types.Money{}) {
		t.Errorf("Discrepancy = %+v, want unset", got.Discrepancy)
	}
	if !got.ExpectedRate.Equal(dollars(51)) {
		t.Errorf("ExpectedRate = %s, want $51.00", got.ExpectedRate)
	}
}

func TestEvaluateUsesLastRenewalDate(t *testing.T) {
	a := acct(dollars(51), false)
	renewed := types.MustParseDate("2026-08-01")
	a.LastRenewalDate = &renewed
	got := audit.Evaluate(audit.Input{Account: a, AsOf: asOf})
	if got.PricingDate != renewed {
		t.Errorf("PricingDate = %s, want %s", got.PricingDate, renewed)
	}
}

func TestEvaluateCustomTolerance(t *testing.T) {
	in := audit.Input{
		Account:    acct(dollars(50), false),
		Recipients: people(1),
		Rates:      rates(),
		AsOf:       asOf,
		Tolerance:  dollars(2),
	}
	if got := audit.Evaluate(in); got.State != audit.StateOK {
		t.Errorf("State = %s, want ok within $2 tolerance", got.State)
	}
}

func TestResultUpdate(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	flagged := audit.Evaluate(audit.Input{Account: acct(dollars(10), false), Recipients: people(1), Rates: rates(), AsOf: asOf})
	u := flagged.Update(now)
	if !u.Flag || u.FlagType != account.FlagUndercharged || u.AuditedAt == nil || !u.AuditedAt.Equal(now) {
		t.Errorf("flagged update = %+v", u)
	}

	overridden := audit.Evaluate(audit.Input{Account: acct(dollars(10), true), Recipients: people(1), Rates: rates(), AsOf: asOf})
	if u := overridden.Update(now); u.Flag || u.FlagType != account.FlagNone || u.Note == "" {
		t.Errorf("override update = %+v", u)
	}
}

func TestSummary(t *testing.T) {
	started := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s := audit.NewSummary(id.NewAuditRunID(), asOf, started, types.DefaultCurrency)

	inputs := []audit.Input{
		{Account: acct(dollars(51), false), Recipients: people(1), Rates: rates(), AsOf: asOf},
		{Account: acct(dollars(50), false), Recipients: people(1), Rates: rates(), AsOf: asOf},
		{Account: acct(dollars(53), false), Recipients: people(1), Rates: rates(), AsOf: asOf},
		{Account: acct(dollars(40), true), Recipients: people(1), Rates: rates(), AsOf: asOf},
		{Account: acct(dollars(40), false), Recipients: people(9), Rates: rates(), AsOf: asOf},
		{Account: acct(dollars(40), false), AsOf: asOf},
	}
	for _, in := range inputs {
		s.Add(audit.Evaluate(in))
	}

	if s.Total != 6 || s.OK != 1 || s.Flagged != 4 || s.OverrideAccepted != 1 {
		t.Errorf("state counts = %+v", s)
	}
	if s.Undercharged != 2 || s.Overcharged != 1 || s.Overflow != 1 || s.MissingRates != 1 {
		t.Errorf("flag counts = %+v", s)
	}
	// 1 + 2 + 11 + (65 - 40)
	if !s.TotalDiscrepancy.Equal(dollars(39)) {
		t.Errorf("TotalDiscrepancy = %s, want $39.00", s.TotalDiscrepancy)
	}
	if len(s.Results) != 6 {
		t.Errorf("got %d results", len(s.Results))
	}
}
