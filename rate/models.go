// Package rate models effective-dated pricing configurations and answers
// which configuration applied on a given calendar day.
package rate

import (
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/types"
)

const (
	// IncludedAdults is the number of adult recipients covered by the base rate.
	IncludedAdults = 3

	// MaxAdults is the hard ceiling of priced adult recipients per account.
	MaxAdults = 7
)

// Version is one effective-dated pricing configuration, valid over
// [StartDate, EndDate]. A nil EndDate means the version is still open.
type Version struct {
	types.Entity
	ID        id.RateVersionID `json:"id"`
	StartDate types.Date       `json:"start_date"`
	EndDate   *types.Date      `json:"end_date,omitempty"`

	// Base rates are whole-term figures, not monthly.
	BaseRate3Month  types.Money `json:"base_rate_3_month"`
	BaseRate6Month  types.Money `json:"base_rate_6_month"`
	BaseRate12Month types.Money `json:"base_rate_12_month"`

	AdditionalAdultRates []AdultTier `json:"additional_adult_rates"`
	BusinessAccountFee   types.Money `json:"business_account_fee"`
	MinorRecipientFee    types.Money `json:"minor_recipient_fee"`
	KeyDeposit           types.Money `json:"key_deposit"`
	Currency             string      `json:"currency"`
	Notes                string      `json:"notes,omitempty"`
}

// AdultTier is the monthly surcharge for the adult at position Threshold
// (4th through 7th).
type AdultTier struct {
	Threshold int         `json:"threshold"`
	Monthly   types.Money `json:"monthly"`
}

// Tiers builds an ordered tier list for the 4th..7th adult from monthly rates.
func Tiers(monthly ...types.Money) []AdultTier {
	tiers := make([]AdultTier, 0, len(monthly))
	for i, m := range monthly {
		tiers = append(tiers, AdultTier{Threshold: IncludedAdults + 1 + i, Monthly: m})
	}
	return tiers
}

// IsOpen reports whether the version has no end date.
func (v *Version) IsOpen() bool { return v.EndDate == nil }

// Covers reports whether d falls inside the version's inclusive range.
func (v *Version) Covers(d types.Date) bool {
	if d.Before(v.StartDate) {
		return false
	}
	return v.EndDate == nil || !d.After(*v.EndDate)
}

// AdultTierRate returns the monthly rate for the adult at the given
// position (1-based). Positions inside the included count or past
// MaxAdults have no tier.
func (v *Version) AdultTierRate(position int) (types.Money, bool) {
	if position <= IncludedAdults || position > MaxAdults {
		return types.Money{}, false
	}
	for _, t := range v.AdditionalAdultRates {
		if t.Threshold == position {
			return t.Monthly, true
		}
	}
	return types.Money{}, false
}

// Zero returns a zero amount in the version's currency.
func (v *Version) Zero() types.Money { return types.Zero(v.Currency) }

// Clone returns a deep copy of the version.
func (v *Version) Clone() *Version {
	c := *v
	if v.EndDate != nil {
		end := *v.EndDate
		c.EndDate = &end
	}
	c.AdditionalAdultRates = append([]AdultTier(nil), v.AdditionalAdultRates...)
	return &c
}

// Normalize returns a copy of v with Currency defaulted and every amount
// carrying that currency, so unset amounts compose safely.
func (v *Version) Normalize() *Version {
	c := v.Clone()
	c.Currency = types.Zero(c.Currency).Currency
	fix := func(m *types.Money) {
		if m.Currency == "" {
			m.Currency = c.Currency
		}
	}
	for _, m := range []*types.Money{
		&c.BaseRate3Month, &c.BaseRate6Month, &c.BaseRate12Month,
		&c.BusinessAccountFee, &c.MinorRecipientFee, &c.KeyDeposit,
	} {
		fix(m)
	}
	for i := range c.AdditionalAdultRates {
		fix(&c.AdditionalAdultRates[i].Monthly)
	}
	return c
}
