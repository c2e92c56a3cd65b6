package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/pricing"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/types"
)

// Dates are stored as YYYY-MM-DD strings so they sort and compare as
// calendar days. An empty string is an unset date.

// ==================== Rate version models ====================

type rateVersionModel struct {
	grove.BaseModel `grove:"table:boxrate_rate_versions"`

	ID                   string      `grove:"id,pk"                  bson:"_id"`
	StartDate            string      `grove:"start_date"             bson:"start_date"`
	EndDate              string      `grove:"end_date"               bson:"end_date"`
	BaseRate3Month       int64       `grove:"base_rate_3_month"      bson:"base_rate_3_month"`
	BaseRate6Month       int64       `grove:"base_rate_6_month"      bson:"base_rate_6_month"`
	BaseRate12Month      int64       `grove:"base_rate_12_month"     bson:"base_rate_12_month"`
	AdditionalAdultRates []tierModel `grove:"additional_adult_rates" bson:"additional_adult_rates"`
	BusinessAccountFee   int64       `grove:"business_account_fee"   bson:"business_account_fee"`
	MinorRecipientFee    int64       `grove:"minor_recipient_fee"    bson:"minor_recipient_fee"`
	KeyDeposit           int64       `grove:"key_deposit"            bson:"key_deposit"`
	Currency             string      `grove:"currency"               bson:"currency"`
	Notes                string      `grove:"notes"                  bson:"notes"`
	CreatedAt            time.Time   `grove:"created_at"             bson:"created_at"`
	UpdatedAt            time.Time   `grove:"updated_at"             bson:"updated_at"`
}

type tierModel struct {
	Threshold int   `bson:"threshold"`
	Monthly   int64 `bson:"monthly"`
}

func toRateVersionModel(v *rate.Version) *rateVersionModel {
	tiers := make([]tierModel, len(v.AdditionalAdultRates))
	for i, t := range v.AdditionalAdultRates {
		tiers[i] = tierModel{Threshold: t.Threshold, Monthly: t.Monthly.Amount}
	}
	return &rateVersionModel{
		ID:                   v.ID.String(),
		StartDate:            v.StartDate.String(),
		EndDate:              dateString(v.EndDate),
		BaseRate3Month:       v.BaseRate3Month.Amount,
		BaseRate6Month:       v.BaseRate6Month.Amount,
		BaseRate12Month:      v.BaseRate12Month.Amount,
		AdditionalAdultRates: tiers,
		BusinessAccountFee:   v.BusinessAccountFee.Amount,
		MinorRecipientFee:    v.MinorRecipientFee.Amount,
		KeyDeposit:           v.KeyDeposit.Amount,
		Currency:             v.Currency,
		Notes:                v.Notes,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func fromRateVersionModel(m *rateVersionModel) (*rate.Version, error) {
	versionID, err := id.ParseRateVersionID(m.ID)
	if err != nil {
		return nil, err
	}
	start, err := types.ParseDate(m.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rate version %s start: %w", m.ID, err)
	}
	end, err := parseOptionalDate(m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("rate version %s end: %w", m.ID, err)
	}

	money := func(amount int64) types.Money { return types.Cents(amount, m.Currency) }
	v := &rate.Version{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 versionID,
		StartDate:          start,
		EndDate:            end,
		BaseRate3Month:     money(m.BaseRate3Month),
		BaseRate6Month:     money(m.BaseRate6Month),
		BaseRate12Month:    money(m.BaseRate12Month),
		BusinessAccountFee: money(m.BusinessAccountFee),
		MinorRecipientFee:  money(m.MinorRecipientFee),
		KeyDeposit:         money(m.KeyDeposit),
		Currency:           m.Currency,
		Notes:              m.Notes,
	}
	for _, t := range m.AdditionalAdultRates {
		v.AdditionalAdultRates = append(v.AdditionalAdultRates, rate.AdultTier{Threshold: t.Threshold, Monthly: money(t.Monthly)})
	}
	return v, nil
}

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:boxrate_accounts"`

	ID                 string     `grove:"id,pk"                bson:"_id"`
	MailboxNumber      string     `grove:"mailbox_number"       bson:"mailbox_number"`
	Name               string     `grove:"name"                 bson:"name"`
	Status             string     `grove:"status"               bson:"status"`
	RenewalPeriod      string     `grove:"renewal_period"       bson:"renewal_period"`
	StartDate          string     `grove:"start_date"           bson:"start_date"`
	LastRenewalDate    string     `grove:"last_renewal_date"    bson:"last_renewal_date,omitempty"`
	CurrentRate        int64      `grove:"current_rate"         bson:"current_rate"`
	Currency           string     `grove:"currency"             bson:"currency"`
	AuditFlag          bool       `grove:"audit_flag"           bson:"audit_flag"`
	AuditFlagType      string     `grove:"audit_flag_type"      bson:"audit_flag_type"`
	AuditNote          string     `grove:"audit_note"           bson:"audit_note"`
	AuditedAt          *time.Time `grove:"audited_at"           bson:"audited_at,omitempty"`
	RateOverride       bool       `grove:"rate_override"        bson:"rate_override"`
	RateOverrideReason string     `grove:"rate_override_reason" bson:"rate_override_reason"`
	CreatedAt          time.Time  `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at"           bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:                 a.ID.String(),
		MailboxNumber:      a.MailboxNumber,
		Name:               a.Name,
		Status:             string(a.Status),
		RenewalPeriod:      string(a.RenewalPeriod),
		StartDate:          a.StartDate.String(),
		LastRenewalDate:    dateString(a.LastRenewalDate),
		CurrentRate:        a.CurrentRate.Amount,
		Currency:           a.CurrentRate.Currency,
		AuditFlag:          a.AuditFlag,
		AuditFlagType:      string(a.AuditFlagType),
		AuditNote:          a.AuditNote,
		AuditedAt:          a.AuditedAt,
		RateOverride:       a.RateOverride,
		RateOverrideReason: a.RateOverrideReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	start, err := types.ParseDate(m.StartDate)
	if err != nil {
		return nil, fmt.Errorf("account %s start: %w", m.ID, err)
	}
	renewed, err := parseOptionalDate(m.LastRenewalDate)
	if err != nil {
		return nil, fmt.Errorf("account %s last renewal: %w", m.ID, err)
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 accountID,
		MailboxNumber:      m.MailboxNumber,
		Name:               m.Name,
		Status:             account.Status(m.Status),
		RenewalPeriod:      pricing.Period(m.RenewalPeriod),
		StartDate:          start,
		LastRenewalDate:    renewed,
		CurrentRate:        types.Cents(m.CurrentRate, m.Currency),
		AuditFlag:          m.AuditFlag,
		AuditFlagType:      account.FlagType(m.AuditFlagType),
		AuditNote:          m.AuditNote,
		AuditedAt:          m.AuditedAt,
		RateOverride:       m.RateOverride,
		RateOverrideReason: m.RateOverrideReason,
	}, nil
}

// ==================== Recipient models ====================

type recipientModel struct {
	grove.BaseModel `grove:"table:boxrate_recipients"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	AccountID string    `grove:"account_id" bson:"account_id"`
	Type      string    `grove:"type"       bson:"type"`
	Name      string    `grove:"name"       bson:"name"`
	Birthdate string    `grove:"birthdate"  bson:"birthdate,omitempty"`
	IsPrimary bool      `grove:"is_primary" bson:"is_primary"`
	Removed   bool      `grove:"removed"    bson:"removed"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toRecipientModel(r *recipient.Recipient) *recipientModel {
	return &recipientModel{
		ID:        r.ID.String(),
		AccountID: r.AccountID.String(),
		Type:      string(r.Type),
		Name:      r.Name,
		Birthdate: dateString(r.Birthdate),
		IsPrimary: r.IsPrimary,
		Removed:   r.Removed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromRecipientModel(m *recipientModel) (*recipient.Recipient, error) {
	recipientID, err := id.ParseRecipientID(m.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	birthdate, err := parseOptionalDate(m.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("recipient %s birthdate: %w", m.ID, err)
	}

	return &recipient.Recipient{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        recipientID,
		AccountID: accountID,
		Type:      recipient.Type(m.Type),
		Name:      m.Name,
		Birthdate: birthdate,
		IsPrimary: m.IsPrimary,
		Removed:   m.Removed,
	}, nil
}

func dateString(d *types.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.String()
}

func parseOptionalDate(s string) (*types.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
