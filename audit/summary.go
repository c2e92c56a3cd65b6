package audit

import (
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/types"
)

// Summary aggregates the results of one audit run.
type Summary struct {
	RunID       id.AuditRunID `json:"run_id"`
	AsOf        types.Date    `json:"as_of"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`

	Total            int `json:"total"`
	OK               int `json:"ok"`
	Flagged          int `json:"flagged"`
	OverrideAccepted int `json:"override_accepted"`
	Undercharged     int `json:"undercharged"`
	Overcharged      int `json:"overcharged"`
	Overflow         int `json:"recipient_overflow"`
	MissingRates     int `json:"missing_rates"`

	// TotalDiscrepancy sums the discrepancy of flagged and overridden accounts.
	TotalDiscrepancy types.Money `json:"total_discrepancy"`

	Results []Result `json:"results,omitempty"`
}

// NewSummary starts an empty summary in currency.
func NewSummary(runID id.AuditRunID, asOf types.Date, startedAt time.Time, currency string) *Summary {
	return &Summary{
		RunID:            runID,
		AsOf:             asOf,
		StartedAt:        startedAt,
		TotalDiscrepancy: types.Zero(currency),
	}
}

// Add counts r. Add is not safe for concurrent use.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.State {
	case StateOK:
		s.OK++
	case StateOverrideAccepted:
		s.OverrideAccepted++
	case StateFlagged:
		s.Flagged++
	}

	switch r.FlagType {
	case account.FlagUndercharged:
		s.Undercharged++
	case account.FlagOvercharged:
		s.Overcharged++
	case account.FlagRecipientOverflow:
		s.Overflow++
	}

	if r.MissingRate {
		s.MissingRates++
	}
	if r.State != StateOK && !r.MissingRate && r.Discrepancy.Currency == s.TotalDiscrepancy.Currency {
		s.TotalDiscrepancy = s.TotalDiscrepancy.Add(r.Discrepancy)
	}
	s.Results = append(s.Results, r)
}
