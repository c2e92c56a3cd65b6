package rate_test

import (
	"testing"

	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/types"
)

func date(s string) types.Date { return types.MustParseDate(s) }

func datep(s string) *types.Date {
	d := date(s)
	return &d
}

func timeline() []*rate.Version {
	return []*rate.Version{
		{StartDate: date("2024-01-01"), EndDate: datep("2024-12-31"), Notes: "2024"},
		{StartDate: date("2025-01-01"), EndDate: datep("2025-06-30"), Notes: "2025H1"},
		// gap: 2025-07-01 .. 2025-07-31
		{StartDate: date("2025-08-01"), Notes: "open"},
	}
}

func TestEffectiveOn(t *testing.T) {
	tests := []struct {
		on    string
		notes string
		found bool
	}{
		{"2023-12-31", "", false},
		{"2024-01-01", "2024", true},
		{"2024-12-31", "2024", true},
		{"2025-01-01", "2025H1", true},
		{"2025-06-30", "2025H1", true},
		{"2025-07-15", "", false},
		{"2025-08-01", "open", true},
		{"2030-01-01", "open", true},
	}

	versions := timeline()
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			v, ok := rate.EffectiveOn(versions, date(tt.on))
			if ok != tt.found {
				t.Fatalf("found: got %v, want %v", ok, tt.found)
			}
			if ok && v.Notes != tt.notes {
				t.Errorf("version: got %q, want %q", v.Notes, tt.notes)
			}
		})
	}
}

func TestEffectiveOnOverlapPrefersLatestStart(t *testing.T) {
	versions := []*rate.Version{
		{StartDate: date("2025-01-01"), Notes: "older open"},
		{StartDate: date("2025-03-01"), EndDate: datep("2025-12-31"), Notes: "newer"},
	}
	v, ok := rate.EffectiveOn(versions, date("2025-04-01"))
	if !ok || v.Notes != "newer" {
		t.Fatalf("got %v, %v", v, ok)
	}
	if !rate.Overlaps(versions) {
		t.Error("expected Overlaps to detect the overlap")
	}
	if rate.Overlaps(timeline()) {
		t.Error("gap-tolerant timeline reported as overlapping")
	}
}

func TestCurrent(t *testing.T) {
	v, ok := rate.Current(timeline(), date("2026-10-14"))
	if !ok || v.Notes != "open" {
		t.Fatalf("open version: got %v, %v", v, ok)
	}

	closed := []*rate.Version{
		{StartDate: date("2024-01-01"), EndDate: datep("2024-12-31"), Notes: "2024"},
		{StartDate: date("2025-01-01"), EndDate: datep("2025-12-31"), Notes: "2025"},
		{StartDate: date("2027-01-01"), EndDate: datep("2027-12-31"), Notes: "future"},
	}
	v, ok = rate.Current(closed, date("2026-10-14"))
	if !ok || v.Notes != "2025" {
		t.Fatalf("fallback: got %v, %v", v, ok)
	}

	if _, ok := rate.Current(nil, date("2026-10-14")); ok {
		t.Error("expected no current version for empty table")
	}
}

func TestAdultTierRate(t *testing.T) {
	v := &rate.Version{AdditionalAdultRates: rate.Tiers(types.USD(200), types.USD(300), types.USD(400), types.USD(500))}

	tests := []struct {
		position int
		want     int64
		ok       bool
	}{
		{3, 0, false},
		{4, 200, true},
		{5, 300, true},
		{7, 500, true},
		{8, 0, false},
	}
	for _, tt := range tests {
		got, ok := v.AdultTierRate(tt.position)
		if ok != tt.ok || got.Amount != tt.want {
			t.Errorf("position %d: got %v/%v, want %d/%v", tt.position, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheck(t *testing.T) {
	valid := &rate.Version{
		StartDate:            date("2026-11-01"),
		BaseRate3Month:       types.USD(15300),
		AdditionalAdultRates: rate.Tiers(types.USD(200), types.USD(300)),
	}
	if issues := rate.Check(valid); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}

	bad := &rate.Version{
		StartDate:         date("2026-11-01"),
		EndDate:           datep("2026-10-01"),
		MinorRecipientFee: types.USD(-1),
		AdditionalAdultRates: []rate.AdultTier{
			{Threshold: 5, Monthly: types.USD(100)},
			{Threshold: 4, Monthly: types.USD(100)},
			{Threshold: 9, Monthly: types.USD(100)},
		},
	}
	issues := rate.Check(bad)
	fields := map[string]bool{}
	for _, is := range issues {
		fields[is.Field] = true
	}
	for _, want := range []string{"end_date", "minor_recipient_fee", "additional_adult_rates[1]", "additional_adult_rates[2]"} {
		if !fields[want] {
			t.Errorf("missing issue for %s in %+v", want, issues)
		}
	}
}
