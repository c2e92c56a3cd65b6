// Package pricing computes what an account should be charged for a billing
// term. Every function here is pure: no I/O, no clock.
package pricing

import "fmt"

// Period is a renewal plan length.
type Period string

const (
	PeriodThreeMonth  Period = "THREE_MONTH"
	PeriodSixMonth    Period = "SIX_MONTH"
	PeriodTwelveMonth Period = "TWELVE_MONTH"
)

// Periods lists every valid period.
var Periods = []Period{PeriodThreeMonth, PeriodSixMonth, PeriodTwelveMonth}

// ParsePeriod validates s as a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("pricing: unknown renewal period %q", s)
	}
	return p, nil
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodThreeMonth, PeriodSixMonth, PeriodTwelveMonth:
		return true
	default:
		return false
	}
}

// Months returns the number of months the term is priced over. The twelve
// month plan includes one bonus month and is priced over 13.
// It panics on an unknown period: that is corrupted input, not a business state.
func (p Period) Months() int64 {
	switch p {
	case PeriodThreeMonth:
		return 3
	case PeriodSixMonth:
		return 6
	case PeriodTwelveMonth:
		return 13
	default:
		panic(fmt.Sprintf("pricing: invalid renewal period %q", string(p)))
	}
}

// MarketedMonths returns the advertised term length (3, 6 or 12).
func (p Period) MarketedMonths() int {
	switch p {
	case PeriodThreeMonth:
		return 3
	case PeriodSixMonth:
		return 6
	case PeriodTwelveMonth:
		return 12
	default:
		panic(fmt.Sprintf("pricing: invalid renewal period %q", string(p)))
	}
}

func (p Period) String() string { return string(p) }
