// Package account holds the mailbox rental account record and the audit and
// override fields the reconciler writes back to it.
package account

import (
	"time"

	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/types"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// FlagType classifies a flagged audit result.
type FlagType string

const (
	FlagNone              FlagType = ""
	FlagUndercharged      FlagType = "UNDERCHARGED"
	FlagOvercharged       FlagType = "OVERCHARGED"
	FlagRecipientOverflow FlagType = "RECIPIENT_OVERFLOW"
)

// Valid reports whether f is a known flag type. FlagNone is valid.
func (f FlagType) Valid() bool {
	switch f {
	case FlagNone, FlagUndercharged, FlagOvercharged, FlagRecipientOverflow:
		return true
	default:
		return false
	}
}

type Account struct {
	types.Entity
	ID              id.AccountID   `json:"id"`
	MailboxNumber   string         `json:"mailbox_number"`
	Name            string         `json:"name"`
	Status          Status         `json:"status"`
	RenewalPeriod   pricing.Period `json:"renewal_period"`
	StartDate       types.Date     `json:"start_date"`
	LastRenewalDate *types.Date    `json:"last_renewal_date,omitempty"`
	// CurrentRate is the stored monthly rate the account is billed at.
	CurrentRate types.Money `json:"current_rate"`

	AuditFlag     bool       `json:"audit_flag"`
	AuditFlagType FlagType   `json:"audit_flag_type,omitempty"`
	AuditNote     string     `json:"audit_note,omitempty"`
	AuditedAt     *time.Time `json:"audited_at,omitempty"`

	RateOverride       bool   `json:"rate_override"`
	RateOverrideReason string `json:"rate_override_reason,omitempty"`
}

// PricingDate is the date whose rate version prices the account: the last
// renewal, or the start date when the account has never renewed.
func (a *Account) PricingDate() types.Date {
	if a.LastRenewalDate != nil && !a.LastRenewalDate.IsZero() {
		return *a.LastRenewalDate
	}
	return a.StartDate
}

// AuditUpdate is the set of audit fields written after reconciling one
// account. A zero AuditUpdate clears them.
type AuditUpdate struct {
	Flag      bool       `json:"flag"`
	FlagType  FlagType   `json:"flag_type,omitempty"`
	Note      string     `json:"note,omitempty"`
	AuditedAt *time.Time `json:"audited_at,omitempty"`
}

// Apply copies u onto the account's audit fields.
func (u AuditUpdate) Apply(a *Account) {
	a.AuditFlag = u.Flag
	a.AuditFlagType = u.FlagType
	a.AuditNote = u.Note
	a.AuditedAt = u.AuditedAt
}

type ListOpts struct {
	Status Status
	// FlaggedOnly restricts the result to accounts with AuditFlag set.
	FlaggedOnly bool
	Limit       int
	Offset      int
}
