package postgres

import (
	"encoding/json"
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

// ==================== Rate version models ====================

type rateVersionModel struct {
	grove.BaseModel `grove:"table:boxrate_rate_versions"`

	ID                   string          `grove:"id,pk"`
	StartDate            types.Date      `grove:"start_date"`
	EndDate              types.Date      `grove:"end_date"`
	BaseRate3Month       int64           `grove:"base_rate_3_month"`
	BaseRate6Month       int64           `grove:"base_rate_6_month"`
	BaseRate12Month      int64           `grove:"base_rate_12_month"`
	AdditionalAdultRates json.RawMessage `grove:"additional_adult_rates,type:jsonb"`
	BusinessAccountFee   int64           `grove:"business_account_fee"`
	MinorRecipientFee    int64           `grove:"minor_recipient_fee"`
	KeyDeposit           int64           `grove:"key_deposit"`
	Currency             string          `grove:"currency"`
	Notes                string          `grove:"notes"`
	CreatedAt            time.Time       `grove:"created_at"`
	UpdatedAt            time.Time       `grove:"updated_at"`
}

// tierModel is the stored form of one rate.AdultTier.
type tierModel struct {
	Threshold int   `json:"threshold"`
	Monthly   int64 `json:"monthly"`
}

func toRateVersionModel(v *rate.Version) (*rateVersionModel, error) {
	tiers := make([]tierModel, len(v.AdditionalAdultRates))
	for i, t := range v.AdditionalAdultRates {
		tiers[i] = tierModel{Threshold: t.Threshold, Monthly: t.Monthly.Amount}
	}
	raw, err := json.Marshal(tiers)
	if err != nil {
		return nil, fmt.Errorf("encode adult tiers: %w", err)
	}

	m := &rateVersionModel{
		ID:                   v.ID.String(),
		StartDate:            v.StartDate,
		BaseRate3Month:       v.BaseRate3Month.Amount,
		BaseRate6Month:       v.BaseRate6Month.Amount,
		BaseRate12Month:      v.BaseRate12Month.Amount,
		AdditionalAdultRates: raw,
		BusinessAccountFee:   v.BusinessAccountFee.Amount,
		MinorRecipientFee:    v.MinorRecipientFee.Amount,
		KeyDeposit:           v.KeyDeposit.Amount,
		Currency:             v.Currency,
		Notes:                v.Notes,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
	if v.EndDate != nil {
		m.EndDate = *v.EndDate
	}
	return m, nil
}

func fromRateVersionModel(m *rateVersionModel) (*rate.Version, error) {
	versionID, err := id.ParseRateVersionID(m.ID)
	if err != nil {
		return nil, err
	}

	var tiers []tierModel
	if len(m.AdditionalAdultRates) > 0 {
		if err := json.Unmarshal(m.AdditionalAdultRates, &tiers); err != nil {
			return nil, fmt.Errorf("decode adult tiers of %s: %w", m.ID, err)
		}
	}

	money := func(amount int64) types.Money { return types.Cents(amount, m.Currency) }
	v := &rate.Version{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 versionID,
		StartDate:          m.StartDate,
		BaseRate3Month:     money(m.BaseRate3Month),
		BaseRate6Month:     money(m.BaseRate6Month),
		BaseRate12Month:    money(m.BaseRate12Month),
		BusinessAccountFee: money(m.BusinessAccountFee),
		MinorRecipientFee:  money(m.MinorRecipientFee),
		KeyDeposit:         money(m.KeyDeposit),
		Currency:           m.Currency,
		Notes:              m.Notes,
	}
	for _, t := range tiers {
		v.AdditionalAdultRates = append(v.AdditionalAdultRates, rate.AdultTier{Threshold: t.Threshold, Monthly: money(t.Monthly)})
	}
	if !m.EndDate.IsZero() {
		end := m.EndDate
		v.EndDate = &end
	}
	return v, nil
}

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:boxrate_accounts"`

	ID                 string     `grove:"id,pk"`
	MailboxNumber      string     `grove:"mailbox_number"`
	Name               string     `grove:"name"`
	Status             string     `grove:"status"`
	RenewalPeriod      string     `grove:"renewal_period"`
	StartDate          types.Date `grove:"start_date"`
	LastRenewalDate    types.Date `grove:"last_renewal_date"`
	CurrentRate        int64      `grove:"current_rate"`
	Currency           string     `grove:"currency"`
	AuditFlag          bool       `grove:"audit_flag"`
	AuditFlagType      string     `grove:"audit_flag_type"`
	AuditNote          string     `grove:"audit_note"`
	AuditedAt          *time.Time `grove:"audited_at"`
	RateOverride       bool       `grove:"rate_override"`
	RateOverrideReason string     `grove:"rate_override_reason"`
	CreatedAt          time.Time  `grove:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	m := &accountModel{
		ID:                 a.ID.String(),
		MailboxNumber:      a.MailboxNumber,
		Name:               a.Name,
		Status:             string(a.Status),
		RenewalPeriod:      string(a.RenewalPeriod),
		StartDate:          a.StartDate,
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
	if a.LastRenewalDate != nil {
		m.LastRenewalDate = *a.LastRenewalDate
	}
	return m
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}

	a := &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 accountID,
		MailboxNumber:      m.MailboxNumber,
		Name:               m.Name,
		Status:             account.Status(m.Status),
		RenewalPeriod:      pricing.Period(m.RenewalPeriod),
		StartDate:          m.StartDate,
		CurrentRate:        types.Cents(m.CurrentRate, m.Currency),
		AuditFlag:          m.AuditFlag,
		AuditFlagType:      account.FlagType(m.AuditFlagType),
		AuditNote:          m.AuditNote,
		AuditedAt:          m.AuditedAt,
		RateOverride:       m.RateOverride,
		RateOverrideReason: m.RateOverrideReason,
	}
	if !m.LastRenewalDate.IsZero() {
		d := m.LastRenewalDate
		a.LastRenewalDate = &d
	}
	return a, nil
}

// ==================== Recipient models ====================

type recipientModel struct {
	grove.BaseModel `grove:"table:boxrate_recipients"`

	ID        string     `grove:"id,pk"`
	AccountID string     `grove:"account_id"`
	Type      string     `grove:"type"`
	Name      string     `grove:"name"`
	Birthdate types.Date `grove:"birthdate"`
	IsPrimary bool       `grove:"is_primary"`
	Removed   bool       `grove:"removed"`
	CreatedAt time.Time  `grove:"created_at"`
	UpdatedAt time.Time  `grove:"updated_at"`
}

func toRecipientModel(r *recipient.Recipient) *recipientModel {
	m := &recipientModel{
		ID:        r.ID.String(),
		AccountID: r.AccountID.String(),
		Type:      string(r.Type),
		Name:      r.Name,
		IsPrimary: r.IsPrimary,
		Removed:   r.Removed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Birthdate != nil {
		m.Birthdate = *r.Birthdate
	}
	return m
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

	r := &recipient.Recipient{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        recipientID,
		AccountID: accountID,
		Type:      recipient.Type(m.Type),
		Name:      m.Name,
		IsPrimary: m.IsPrimary,
		Removed:   m.Removed,
	}
	if !m.Birthdate.IsZero() {
		b := m.Birthdate
		r.Birthdate = &b
	}
	return r, nil
}
