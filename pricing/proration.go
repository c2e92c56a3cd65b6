package pricing

import (
	"fmt"
	"sort"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

// MinorTransition records a minor who turns 18 inside a renewal term.
type MinorTransition struct {
	RecipientID    id.RecipientID `json:"recipient_id"`
	TurnsAdultDate types.Date     `json:"turns_adult_date"`
	MonthsAsMinor  int64          `json:"months_as_minor"`
	MonthsAsAdult  int64          `json:"months_as_adult"`
	// AdultPosition is the account's adult count right after this transition.
	AdultPosition int         `json:"adult_position"`
	TierMonthly   types.Money `json:"tier_monthly"`
	// AdditionalAdultFee covers only the adult portion of the term.
	AdditionalAdultFee types.Money `json:"additional_adult_fee"`
	// Unpriced is set when AdultPosition is past rate.MaxAdults.
	Unpriced bool `json:"unpriced,omitempty"`
}

// RenewalBreakdown is a Breakdown for a term in which minors may age into
// adults. TotalMonthly is AdjustedTotalForPeriod spread over the term.
type RenewalBreakdown struct {
	Breakdown
	StartDate              types.Date        `json:"start_date"`
	StartingAdults         int               `json:"starting_adults"`
	MinorTransitions       []MinorTransition `json:"minor_transitions"`
	TransitionFees         types.Money       `json:"transition_fees"`
	AdjustedTotalForPeriod types.Money       `json:"adjusted_total_for_period"`
}

// Prorate prices a renewal term of p starting on start. Recipients are
// classified as of start. Each minor whose 18th birthday falls inside the
// term pays the minor fee for the months before it and, once the account has
// more than rate.IncludedAdults adults, the next additional-adult tier for the
// months after it.
//
// Transitions are priced in birthday order: the earliest to turn 18 takes the
// lowest tier. Months are whole calendar months by year/month subtraction.
func Prorate(v *rate.Version, p Period, recipients []*recipient.Recipient, start types.Date) RenewalBreakdown {
	months := p.Months()
	v = v.Normalize()

	c := recipient.Classify(recipients, start)

	var transitions []MinorTransition
	for _, r := range recipient.Minors(recipients, start) {
		adultOn, ok := r.TurnsAdultOn()
		if !ok {
			continue
		}
		until := int64(start.MonthsUntil(adultOn))
		if until < 0 {
			until = 0
		}
		if until >= months {
			continue
		}
		transitions = append(transitions, MinorTransition{
			RecipientID:    r.ID,
			TurnsAdultDate: adultOn,
			MonthsAsMinor:  until,
			MonthsAsAdult:  months - until,
		})
	}

	sort.SliceStable(transitions, func(i, j int) bool {
		a, b := transitions[i], transitions[j]
		if cmp := a.TurnsAdultDate.Compare(b.TurnsAdultDate); cmp != 0 {
			return cmp < 0
		}
		return a.RecipientID.String() < b.RecipientID.String()
	})

	base := c
	base.MinorCount -= len(transitions)
	base.TotalCount = base.AdultCount + base.MinorCount

	rb := RenewalBreakdown{
		Breakdown:        Calculate(v, base, p),
		StartDate:        start,
		StartingAdults:   c.AdultCount,
		MinorTransitions: transitions,
		TransitionFees:   v.Zero(),
	}

	for i := range rb.MinorTransitions {
		t := &rb.MinorTransitions[i]

		rb.MinorFees = rb.MinorFees.Add(v.MinorRecipientFee.Multiply(t.MonthsAsMinor))

		t.AdultPosition = c.AdultCount + i + 1
		t.TierMonthly = v.Zero()
		t.AdditionalAdultFee = v.Zero()
		if t.AdultPosition <= rate.IncludedAdults {
			continue
		}
		if t.AdultPosition > rate.MaxAdults {
			t.Unpriced = true
			rb.UnpricedAdults++
			continue
		}
		if monthly, ok := v.AdultTierRate(t.AdultPosition); ok {
			t.TierMonthly = monthly
			t.AdditionalAdultFee = monthly.Multiply(t.MonthsAsAdult)
			rb.TransitionFees = rb.TransitionFees.Add(t.AdditionalAdultFee)
		}
	}

	rb.TotalForPeriod = rb.BaseRate.Add(rb.BusinessFee).Add(rb.AdditionalRecipientFees).Add(rb.MinorFees)
	rb.AdjustedTotalForPeriod = rb.TotalForPeriod.Add(rb.TransitionFees)
	rb.TotalMonthly = rb.AdjustedTotalForPeriod.Divide(months)
	return rb
}

// ProrateShortWindow prices an ad-hoc window of daysRemaining days at the
// given monthly rate, approximating a month as 30 days. This is a lower
// precision path for windows that do not line up with a renewal term and is
// never used for minor transitions.
func ProrateShortWindow(monthly types.Money, daysRemaining int) (types.Money, error) {
	if daysRemaining < 0 {
		return types.Money{}, fmt.Errorf("pricing: negative days remaining %d", daysRemaining)
	}
	return monthly.Multiply(int64(daysRemaining)).Divide(30), nil
}
