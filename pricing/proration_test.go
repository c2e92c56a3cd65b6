package pricing_test

import (
	"testing"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

var termStart = types.MustParseDate("2026-01-01")

func adults(n int) []*recipient.Recipient {
	out := make([]*recipient.Recipient, 0, n)
	for i := 0; i < n; i++ {
		b := types.MustParseDate("1980-06-15")
		out = append(out, &recipient.Recipient{ID: id.NewRecipientID(), Type: recipient.TypePerson, Birthdate: &b})
	}
	return out
}

func minor(birth string) *recipient.Recipient {
	b := types.MustParseDate(birth)
	return &recipient.Recipient{ID: id.NewRecipientID(), Type: recipient.TypePerson, Birthdate: &b}
}

func TestProrateMinorBecomesFourthAdult(t *testing.T) {
	m := minor("2008-03-01")
	rs := append(adults(3), m)

	rb := pricing.Prorate(testRates(), pricing.PeriodSixMonth, rs, termStart)
	checkSum(t, rb.Breakdown)

	if len(rb.MinorTransitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(rb.MinorTransitions))
	}
	tr := rb.MinorTransitions[0]
	if tr.RecipientID != m.ID {
		t.Errorf("RecipientID = %s, want %s", tr.RecipientID, m.ID)
	}
	if tr.TurnsAdultDate.String() != "2026-03-01" {
		t.Errorf("TurnsAdultDate = %s", tr.TurnsAdultDate)
	}
	if tr.MonthsAsMinor != 2 || tr.MonthsAsAdult != 4 {
		t.Errorf("months minor/adult = %d/%d, want 2/4", tr.MonthsAsMinor, tr.MonthsAsAdult)
	}
	if tr.AdultPosition != 4 {
		t.Errorf("AdultPosition = %d, want 4", tr.AdultPosition)
	}
	if !tr.AdditionalAdultFee.Equal(dollars(8)) {
		t.Errorf("AdditionalAdultFee = %s, want $8.00", tr.AdditionalAdultFee)
	}
	if !rb.MinorFees.Equal(dollars(2)) {
		t.Errorf("MinorFees = %s, want $2.00", rb.MinorFees)
	}
	if !rb.TransitionFees.Equal(dollars(8)) {
		t.Errorf("TransitionFees = %s, want $8.00", rb.TransitionFees)
	}
	if !rb.TotalForPeriod.Equal(dollars(284)) {
		t.Errorf("TotalForPeriod = %s, want $284.00", rb.TotalForPeriod)
	}
	if !rb.AdjustedTotalForPeriod.Equal(dollars(292)) {
		t.Errorf("AdjustedTotalForPeriod = %s, want $292.00", rb.AdjustedTotalForPeriod)
	}
	if !rb.TotalMonthly.Equal(types.USD(4867)) {
		t.Errorf("TotalMonthly = %s, want $48.67", rb.TotalMonthly)
	}
}

func TestProrateNoTransitions(t *testing.T) {
	tests := []struct {
		name       string
		recipients []*recipient.Recipient
		p          pricing.Period
	}{
		{"adults only", adults(2), pricing.PeriodThreeMonth},
		{"minor turns 18 after term", append(adults(1), minor("2010-01-01")), pricing.PeriodTwelveMonth},
		{"minor turns 18 on the day the term ends", append(adults(1), minor("2008-04-01")), pricing.PeriodThreeMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := pricing.Prorate(testRates(), tt.p, tt.recipients, termStart)
			if len(rb.MinorTransitions) != 0 {
				t.Fatalf("got %d transitions, want 0", len(rb.MinorTransitions))
			}
			plain := pricing.Calculate(testRates(), recipient.Classify(tt.recipients, termStart), tt.p)
			if !rb.AdjustedTotalForPeriod.Equal(plain.TotalForPeriod) {
				t.Errorf("adjusted %s, plain %s", rb.AdjustedTotalForPeriod, plain.TotalForPeriod)
			}
			if !rb.TotalMonthly.Equal(plain.TotalMonthly) {
				t.Errorf("monthly %s, plain %s", rb.TotalMonthly, plain.TotalMonthly)
			}
		})
	}
}

func TestProrateIncludedPositionFree(t *testing.T) {
	rs := append(adults(1), minor("2008-02-15"))
	rb := pricing.Prorate(testRates(), pricing.PeriodSixMonth, rs, termStart)
	if len(rb.MinorTransitions) != 1 {
		t.Fatalf("got %d transitions", len(rb.MinorTransitions))
	}
	tr := rb.MinorTransitions[0]
	if tr.AdultPosition != 2 || !tr.AdditionalAdultFee.IsZero() {
		t.Errorf("position %d fee %s, want 2 and zero", tr.AdultPosition, tr.AdditionalAdultFee)
	}
	// one month as a minor
	if !rb.MinorFees.Equal(dollars(1)) {
		t.Errorf("MinorFees = %s, want $1.00", rb.MinorFees)
	}
}

func TestProrateTransitionOrdering(t *testing.T) {
	early, late := "2008-02-10", "2008-04-20"

	price := func(aBirth, bBirth string) (a, b *recipient.Recipient, rb pricing.RenewalBreakdown) {
		a, b = minor(aBirth), minor(bBirth)
		rs := append(adults(3), b, a)
		return a, b, pricing.Prorate(testRates(), pricing.PeriodSixMonth, rs, termStart)
	}
	feeFor := func(rb pricing.RenewalBreakdown, r *recipient.Recipient) pricing.MinorTransition {
		for _, tr := range rb.MinorTransitions {
			if tr.RecipientID == r.ID {
				return tr
			}
		}
		t.Fatalf("no transition for %s", r.ID)
		return pricing.MinorTransition{}
	}

	a, b, rb := price(early, late)
	if rb.MinorTransitions[0].RecipientID != a.ID {
		t.Error("earliest transition should be priced first")
	}
	if got := feeFor(rb, a); got.AdultPosition != 4 || !got.AdditionalAdultFee.Equal(dollars(2*5)) {
		t.Errorf("early minor: position %d fee %s", got.AdultPosition, got.AdditionalAdultFee)
	}
	if got := feeFor(rb, b); got.AdultPosition != 5 || !got.AdditionalAdultFee.Equal(dollars(3*3)) {
		t.Errorf("late minor: position %d fee %s", got.AdultPosition, got.AdditionalAdultFee)
	}

	a, b, rb = price(late, early)
	if got := feeFor(rb, a); got.AdultPosition != 5 || !got.AdditionalAdultFee.Equal(dollars(3*3)) {
		t.Errorf("swapped a: position %d fee %s", got.AdultPosition, got.AdditionalAdultFee)
	}
	if got := feeFor(rb, b); got.AdultPosition != 4 || !got.AdditionalAdultFee.Equal(dollars(2*5)) {
		t.Errorf("swapped b: position %d fee %s", got.AdultPosition, got.AdditionalAdultFee)
	}
}

func TestProrateOverflowTransition(t *testing.T) {
	rs := append(adults(7), minor("2008-02-01"))
	rb := pricing.Prorate(testRates(), pricing.PeriodThreeMonth, rs, termStart)
	if len(rb.MinorTransitions) != 1 {
		t.Fatalf("got %d transitions", len(rb.MinorTransitions))
	}
	tr := rb.MinorTransitions[0]
	if !tr.Unpriced || tr.AdultPosition != 8 {
		t.Errorf("got %+v, want unpriced 8th adult", tr)
	}
	if rb.UnpricedAdults != 1 {
		t.Errorf("UnpricedAdults = %d, want 1", rb.UnpricedAdults)
	}
	if !rb.TransitionFees.IsZero() {
		t.Errorf("TransitionFees = %s, want zero", rb.TransitionFees)
	}
}
