package pricing

import (
	"fmt"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

// Breakdown is the price of one full billing term.
// TotalForPeriod == BaseRate + BusinessFee + AdditionalRecipientFees + MinorFees.
type Breakdown struct {
	Period                  Period           `json:"period"`
	PeriodMonths            int64            `json:"period_months"`
	RateVersionID           id.RateVersionID `json:"rate_version_id"`
	BaseRate                types.Money      `json:"base_rate"`
	BusinessFee             types.Money      `json:"business_fee"`
	AdditionalRecipientFees types.Money      `json:"additional_recipient_fees"`
	MinorFees               types.Money      `json:"minor_fees"`
	TotalForPeriod          types.Money      `json:"total_for_period"`
	TotalMonthly            types.Money      `json:"total_monthly"`

	// AdultCharges itemizes AdditionalRecipientFees per priced adult.
	AdultCharges []AdultCharge `json:"adult_charges,omitempty"`
	// UnpricedAdults counts adults past rate.MaxAdults.
	UnpricedAdults int `json:"unpriced_adults,omitempty"`
	// KeyDeposit is informational and not part of any total.
	KeyDeposit types.Money `json:"key_deposit"`
}

// AdultCharge is the additional-adult fee for one adult position.
type AdultCharge struct {
	Position int         `json:"position"`
	Monthly  types.Money `json:"monthly"`
	Months   int64       `json:"months"`
	Amount   types.Money `json:"amount"`
}

// BaseRateFor returns the whole-term base rate of v for p.
func BaseRateFor(v *rate.Version, p Period) types.Money {
	switch p {
	case PeriodThreeMonth:
		return v.BaseRate3Month
	case PeriodSixMonth:
		return v.BaseRate6Month
	case PeriodTwelveMonth:
		return v.BaseRate12Month
	default:
		panic(fmt.Sprintf("pricing: invalid renewal period %q", string(p)))
	}
}

// Calculate prices one full term of p for an account classified as c under
// rates v. Adults past rate.MaxAdults are not priced; the audit reports them
// as recipient overflow.
func Calculate(v *rate.Version, c recipient.Classification, p Period) Breakdown {
	months := p.Months()
	v = v.Normalize()
	zero := v.Zero()

	b := Breakdown{
		Period:                  p,
		PeriodMonths:            months,
		RateVersionID:           v.ID,
		BaseRate:                BaseRateFor(v, p),
		BusinessFee:             zero,
		AdditionalRecipientFees: zero,
		MinorFees:               v.MinorRecipientFee.Multiply(int64(c.MinorCount) * months),
		KeyDeposit:              v.KeyDeposit,
	}

	if c.HasBusinessRecipient {
		b.BusinessFee = v.BusinessAccountFee.Multiply(months)
	}

	for position := rate.IncludedAdults + 1; position <= c.AdultCount; position++ {
		if position > rate.MaxAdults {
			b.UnpricedAdults = c.AdultCount - rate.MaxAdults
			break
		}
		monthly, ok := v.AdultTierRate(position)
		if !ok {
			continue
		}
		charge := AdultCharge{Position: position, Monthly: monthly, Months: months, Amount: monthly.Multiply(months)}
		b.AdultCharges = append(b.AdultCharges, charge)
		b.AdditionalRecipientFees = b.AdditionalRecipientFees.Add(charge.Amount)
	}

	b.total()
	return b
}

func (b *Breakdown) total() {
	b.TotalForPeriod = b.BaseRate.Add(b.BusinessFee).Add(b.AdditionalRecipientFees).Add(b.MinorFees)
	b.TotalMonthly = b.TotalForPeriod.Divide(b.PeriodMonths)
}
