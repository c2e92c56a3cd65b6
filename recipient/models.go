// Package recipient models the people and businesses that receive mail at a
// rented mailbox and classifies them for pricing.
package recipient

import (
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/types"
)

// Type distinguishes a natural person from a business recipient.
type Type string

const (
	TypePerson   Type = "PERSON"
	TypeBusiness Type = "BUSINESS"
)

// AdultAge is the age in whole years at which a person stops being a minor.
const AdultAge = 18

// Recipient is a mail recipient on an account. Recipient records are owned by
// the account store; pricing only reads them.
type Recipient struct {
	types.Entity
	ID        id.RecipientID `json:"id"`
	AccountID id.AccountID   `json:"account_id"`
	Type      Type           `json:"type"`
	Name      string         `json:"name"`
	Birthdate *types.Date    `json:"birthdate,omitempty"`
	IsPrimary bool           `json:"is_primary"`
	Removed   bool           `json:"removed"`
}

// AgeOn returns the recipient's age in whole years on asOf. ok is false for
// businesses and for persons without a birthdate.
func (r *Recipient) AgeOn(asOf types.Date) (age int, ok bool) {
	if r.Type != TypePerson || r.Birthdate == nil {
		return 0, false
	}
	return r.Birthdate.YearsUntil(asOf), true
}

// IsMinorOn reports whether the recipient is a person under AdultAge on asOf.
// A person without a birthdate is assumed to be an adult.
func (r *Recipient) IsMinorOn(asOf types.Date) bool {
	age, ok := r.AgeOn(asOf)
	return ok && age < AdultAge
}

// TurnsAdultOn returns the date of the recipient's 18th birthday.
func (r *Recipient) TurnsAdultOn() (types.Date, bool) {
	if r.Type != TypePerson || r.Birthdate == nil {
		return types.Date{}, false
	}
	return r.Birthdate.AddYears(AdultAge), true
}

// Active filters out removed recipients.
func Active(recipients []*Recipient) []*Recipient {
	out := make([]*Recipient, 0, len(recipients))
	for _, r := range recipients {
		if r != nil && !r.Removed {
			out = append(out, r)
		}
	}
	return out
}
