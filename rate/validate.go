package rate

import "fmt"

// Issue is a single validation failure on a Version.
type Issue struct {
	Field   string
	Message string
}

// Check returns every validation issue on v, or nil if v is well formed.
func Check(v *Version) []Issue {
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if v.StartDate.IsZero() {
		add("start_date", "is required")
	}
	if v.EndDate != nil && v.EndDate.Before(v.StartDate) {
		add("end_date", "%s is before start_date %s", v.EndDate, v.StartDate)
	}

	amounts := map[string]int64{
		"base_rate_3_month":    v.BaseRate3Month.Amount,
		"base_rate_6_month":    v.BaseRate6Month.Amount,
		"base_rate_12_month":   v.BaseRate12Month.Amount,
		"business_account_fee": v.BusinessAccountFee.Amount,
		"minor_recipient_fee":  v.MinorRecipientFee.Amount,
		"key_deposit":          v.KeyDeposit.Amount,
	}
	for _, field := range []string{
		"base_rate_3_month", "base_rate_6_month", "base_rate_12_month",
		"business_account_fee", "minor_recipient_fee", "key_deposit",
	} {
		if amounts[field] < 0 {
			add(field, "must not be negative")
		}
	}

	last := IncludedAdults
	for i, t := range v.AdditionalAdultRates {
		field := fmt.Sprintf("additional_adult_rates[%d]", i)
		switch {
		case t.Threshold <= IncludedAdults || t.Threshold > MaxAdults:
			add(field, "threshold %d outside %d..%d", t.Threshold, IncludedAdults+1, MaxAdults)
		case t.Threshold <= last:
			add(field, "threshold %d not ascending", t.Threshold)
		}
		if t.Monthly.IsNegative() {
			add(field, "monthly rate must not be negative")
		}
		last = t.Threshold
	}

	return issues
}
