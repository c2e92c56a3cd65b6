package recipient

import "github.com/xraph/boxrate/types"

// Classification is the pricing view of an account's recipient list.
// AdultCount + MinorCount == TotalCount. The first business recipient only
// sets HasBusinessRecipient and is not part of TotalCount; later business
// recipients are counted as adults.
type Classification struct {
	AdultCount           int  `json:"adult_count"`
	MinorCount           int  `json:"minor_count"`
	HasBusinessRecipient bool `json:"has_business_recipient"`
	TotalCount           int  `json:"total_count"`
	BusinessCount        int  `json:"business_count"`
}

// Classify counts the non-removed recipients as of asOf.
func Classify(recipients []*Recipient, asOf types.Date) Classification {
	var c Classification
	for _, r := range Active(recipients) {
		switch r.Type {
		case TypeBusiness:
			c.BusinessCount++
			if c.BusinessCount == 1 {
				c.HasBusinessRecipient = true
				continue
			}
			c.AdultCount++
		default:
			if r.IsMinorOn(asOf) {
				c.MinorCount++
			} else {
				c.AdultCount++
			}
		}
	}
	c.TotalCount = c.AdultCount + c.MinorCount
	return c
}

// Minors returns the non-removed persons who are minors on asOf.
func Minors(recipients []*Recipient, asOf types.Date) []*Recipient {
	var out []*Recipient
	for _, r := range Active(recipients) {
		if r.IsMinorOn(asOf) {
			out = append(out, r)
		}
	}
	return out
}
