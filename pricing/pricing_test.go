package pricing_test

import (
	"testing"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

func dollars(n int64) types.Money { return types.USD(n * 100) }

func testRates() *rate.Version {
	return &rate.Version{
		ID:                   id.NewRateVersionID(),
		StartDate:            types.MustParseDate("2026-01-01"),
		BaseRate3Month:       dollars(153),
		BaseRate6Month:       dollars(282),
		BaseRate12Month:      dollars(520),
		AdditionalAdultRates: rate.Tiers(dollars(2), dollars(3), dollars(4), dollars(5)),
		BusinessAccountFee:   dollars(10),
		MinorRecipientFee:    dollars(1),
		KeyDeposit:           dollars(20),
		Currency:             types.DefaultCurrency,
	}
}

func checkSum(t *testing.T, b pricing.Breakdown) {
	t.Helper()
	sum := b.BaseRate.Add(b.BusinessFee).Add(b.AdditionalRecipientFees).Add(b.MinorFees)
	if !sum.Equal(b.TotalForPeriod) {
		t.Errorf("components sum to %s, total is %s", sum, b.TotalForPeriod)
	}
}

func TestPeriodMonths(t *testing.T) {
	tests := []struct {
		p        pricing.Period
		months   int64
		marketed int
	}{
		{pricing.PeriodThreeMonth, 3, 3},
		{pricing.PeriodSixMonth, 6, 6},
		{pricing.PeriodTwelveMonth, 13, 12},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.Months(); got != tt.months {
				t.Errorf("Months() = %d, want %d", got, tt.months)
			}
			if got := tt.p.MarketedMonths(); got != tt.marketed {
				t.Errorf("MarketedMonths() = %d, want %d", got, tt.marketed)
			}
		})
	}

	if _, err := pricing.ParsePeriod("WEEKLY"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestInvalidPeriodPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	pricing.Calculate(testRates(), recipient.Classification{AdultCount: 1}, pricing.Period("MONTHLY"))
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		c           recipient.Classification
		p           pricing.Period
		wantTotal   types.Money
		wantMonthly types.Money
		wantExtra   types.Money
		wantMinor   types.Money
		wantBiz     types.Money
		unpriced    int
	}{
		{
			name:        "single adult three months",
			c:           recipient.Classification{AdultCount: 1, TotalCount: 1},
			p:           pricing.PeriodThreeMonth,
			wantTotal:   dollars(153),
			wantMonthly: dollars(51),
			wantExtra:   dollars(0),
			wantMinor:   dollars(0),
			wantBiz:     dollars(0),
		},
		{
			name:        "fourth adult on twelve month plan",
			c:           recipient.Classification{AdultCount: 4, TotalCount: 4},
			p:           pricing.PeriodTwelveMonth,
			wantTotal:   dollars(520 + 26),
			wantMonthly: dollars(42),
			wantExtra:   dollars(26),
			wantMinor:   dollars(0),
			wantBiz:     dollars(0),
		},
		{
			name:        "business and minors",
			c:           recipient.Classification{AdultCount: 2, MinorCount: 2, TotalCount: 4, HasBusinessRecipient: true, BusinessCount: 1},
			p:           pricing.PeriodSixMonth,
			wantTotal:   dollars(282 + 60 + 12),
			wantMonthly: dollars(59),
			wantExtra:   dollars(0),
			wantMinor:   dollars(12),
			wantBiz:     dollars(60),
		},
		{
			name:        "overflow adults unpriced",
			c:           recipient.Classification{AdultCount: 9, TotalCount: 9},
			p:           pricing.PeriodThreeMonth,
			wantTotal:   dollars(153 + (2+3+4+5)*3),
			wantMonthly: dollars(65),
			wantExtra:   dollars((2 + 3 + 4 + 5) * 3),
			wantMinor:   dollars(0),
			wantBiz:     dollars(0),
			unpriced:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pricing.Calculate(testRates(), tt.c, tt.p)
			checkSum(t, b)
			if !b.TotalForPeriod.Equal(tt.wantTotal) {
				t.Errorf("TotalForPeriod = %s, want %s", b.TotalForPeriod, tt.wantTotal)
			}
			if !b.TotalMonthly.Equal(tt.wantMonthly) {
				t.Errorf("TotalMonthly = %s, want %s", b.TotalMonthly, tt.wantMonthly)
			}
			if !b.AdditionalRecipientFees.Equal(tt.wantExtra) {
				t.Errorf("AdditionalRecipientFees = %s, want %s", b.AdditionalRecipientFees, tt.wantExtra)
			}
			if !b.MinorFees.Equal(tt.wantMinor) {
				t.Errorf("MinorFees = %s, want %s", b.MinorFees, tt.wantMinor)
			}
			if !b.BusinessFee.Equal(tt.wantBiz) {
				t.Errorf("BusinessFee = %s, want %s", b.BusinessFee, tt.wantBiz)
			}
			if b.UnpricedAdults != tt.unpriced {
				t.Errorf("UnpricedAdults = %d, want %d", b.UnpricedAdults, tt.unpriced)
			}
			if !b.KeyDeposit.Equal(dollars(20)) {
				t.Errorf("KeyDeposit = %s", b.KeyDeposit)
			}
		})
	}
}

func TestCalculateMonotonic(t *testing.T) {
	v := testRates()
	tiers := []int64{2, 3, 4, 5}
	for _, p := range pricing.Periods {
		prev := pricing.Calculate(v, recipient.Classification{AdultCount: 3, TotalCount: 3}, p)
		for adults := 4; adults <= 9; adults++ {
			cur := pricing.Calculate(v, recipient.Classification{AdultCount: adults, TotalCount: adults}, p)
			diff := cur.AdditionalRecipientFees.Subtract(prev.AdditionalRecipientFees)

			want := types.USD(0)
			if adults <= rate.MaxAdults {
				want = dollars(tiers[adults-4]).Multiply(p.Months())
			}
			if !diff.Equal(want) {
				t.Errorf("%s adults=%d: fee increased by %s, want %s", p, adults, diff, want)
			}
			prev = cur
		}
	}
}

func TestCalculateUnsetCurrency(t *testing.T) {
	v := &rate.Version{
		BaseRate3Month:       types.Money{Amount: 9000},
		AdditionalAdultRates: rate.Tiers(types.Money{Amount: 100}),
	}
	b := pricing.Calculate(v, recipient.Classification{AdultCount: 4, TotalCount: 4, HasBusinessRecipient: true}, pricing.PeriodThreeMonth)
	if b.TotalForPeriod.Amount != 9300 || b.TotalForPeriod.Currency != types.DefaultCurrency {
		t.Errorf("got %+v", b.TotalForPeriod)
	}
}

func TestProrateShortWindow(t *testing.T) {
	got, err := pricing.ProrateShortWindow(dollars(60), 15)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(dollars(30)) {
		t.Errorf("got %s, want $30.00", got)
	}
	if _, err := pricing.ProrateShortWindow(dollars(60), -1); err == nil {
		t.Error("expected error for negative days")
	}
}
