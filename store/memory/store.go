// Package memory is an in-process store.Store. It is safe for concurrent use
// and hands out copies, so callers never share records with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/store"
	"github.com/xraph/boxrate/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Rate versions, in insertion order
	versions []*rate.Version

	// Account storage
	accounts map[string]*account.Account

	// Recipients keyed by account ID
	recipients map[string][]*recipient.Recipient
}

func New() *Store {
	return &Store{
		accounts:   make(map[string]*account.Account),
		recipients: make(map[string][]*recipient.Recipient),
	}
}

// ──────────────────────────────────────────────────
// Rate versions
// ──────────────────────────────────────────────────

func (s *Store) ListRateVersions(_ context.Context) ([]*rate.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, boxrate.ErrStoreClosed
	}
	out := make([]*rate.Version, 0, len(s.versions))
	for _, v := range s.versions {
		out = append(out, v.Clone())
	}
	rate.Sort(out)
	return out, nil
}

func (s *Store) GetRateVersion(_ context.Context, versionID id.RateVersionID) (*rate.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, boxrate.ErrStoreClosed
	}
	if v := s.findVersion(versionID); v != nil {
		return v.Clone(), nil
	}
	return nil, boxrate.ErrRateVersionNotFound
}

// RotateRateVersion closes the open version and appends v under one lock.
func (s *Store) RotateRateVersion(_ context.Context, v *rate.Version, closeEnd types.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	if s.findVersion(v.ID) != nil {
		return boxrate.ErrAlreadyExists
	}
	for _, existing := range s.versions {
		if existing.IsOpen() {
			end := closeEnd
			existing.EndDate = &end
			existing.UpdatedAt = v.CreatedAt
		}
	}
	s.versions = append(s.versions, v.Clone())
	return nil
}

func (s *Store) UpdateRateVersion(_ context.Context, v *rate.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	for i, existing := range s.versions {
		if existing.ID == v.ID {
			s.versions[i] = v.Clone()
			return nil
		}
	}
	return boxrate.ErrRateVersionNotFound
}

func (s *Store) findVersion(versionID id.RateVersionID) *rate.Version {
	for _, v := range s.versions {
		if v.ID == versionID {
			return v
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	if _, exists := s.accounts[a.ID.String()]; exists {
		return boxrate.ErrAlreadyExists
	}
	s.accounts[a.ID.String()] = cloneAccount(a)
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, boxrate.ErrStoreClosed
	}
	if a, ok := s.accounts[accountID.String()]; ok {
		return cloneAccount(a), nil
	}
	return nil, boxrate.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, boxrate.ErrStoreClosed
	}
	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		if opts.FlaggedOnly && !a.AuditFlag {
			continue
		}
		result = append(result, cloneAccount(a))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) UpdateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	if _, exists := s.accounts[a.ID.String()]; !exists {
		return boxrate.ErrAccountNotFound
	}
	s.accounts[a.ID.String()] = cloneAccount(a)
	return nil
}

// ──────────────────────────────────────────────────
// Recipients
// ──────────────────────────────────────────────────

func (s *Store) CreateRecipient(_ context.Context, r *recipient.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	if _, exists := s.accounts[r.AccountID.String()]; !exists {
		return boxrate.ErrAccountNotFound
	}
	key := r.AccountID.String()
	for _, existing := range s.recipients[key] {
		if existing.ID == r.ID {
			return boxrate.ErrAlreadyExists
		}
	}
	s.recipients[key] = append(s.recipients[key], cloneRecipient(r))
	return nil
}

func (s *Store) ListRecipients(_ context.Context, accountID id.AccountID) ([]*recipient.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, boxrate.ErrStoreClosed
	}
	if _, exists := s.accounts[accountID.String()]; !exists {
		return nil, boxrate.ErrAccountNotFound
	}
	list := s.recipients[accountID.String()]
	out := make([]*recipient.Recipient, 0, len(list))
	for _, r := range list {
		out = append(out, cloneRecipient(r))
	}
	return out, nil
}

func (s *Store) UpdateRecipient(_ context.Context, r *recipient.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	list := s.recipients[r.AccountID.String()]
	for i, existing := range list {
		if existing.ID == r.ID {
			list[i] = cloneRecipient(r)
			return nil
		}
	}
	return boxrate.ErrRecipientNotFound
}

// ──────────────────────────────────────────────────
// Audit fields
// ──────────────────────────────────────────────────

func (s *Store) UpdateAudit(_ context.Context, accountID id.AccountID, u account.AuditUpdate) error {
	return s.withAccount(accountID, func(a *account.Account) {
		u.Apply(a)
	})
}

func (s *Store) SetOverride(_ context.Context, accountID id.AccountID, reason string, u account.AuditUpdate) error {
	return s.withAccount(accountID, func(a *account.Account) {
		a.RateOverride = true
		a.RateOverrideReason = reason
		u.Apply(a)
	})
}

func (s *Store) ClearOverride(_ context.Context, accountID id.AccountID) error {
	return s.withAccount(accountID, func(a *account.Account) {
		a.RateOverride = false
		a.RateOverrideReason = ""
	})
}

func (s *Store) ClearAllAudit(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, boxrate.ErrStoreClosed
	}
	now := time.Now().UTC()
	for _, a := range s.accounts {
		account.AuditUpdate{}.Apply(a)
		a.UpdatedAt = now
	}
	return int64(len(s.accounts)), nil
}

func (s *Store) withAccount(accountID id.AccountID, fn func(*account.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	a, ok := s.accounts[accountID.String()]
	if !ok {
		return boxrate.ErrAccountNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return boxrate.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func cloneAccount(a *account.Account) *account.Account {
	c := *a
	if a.LastRenewalDate != nil {
		d := *a.LastRenewalDate
		c.LastRenewalDate = &d
	}
	if a.AuditedAt != nil {
		t := *a.AuditedAt
		c.AuditedAt = &t
	}
	return &c
}

func cloneRecipient(r *recipient.Recipient) *recipient.Recipient {
	c := *r
	if r.Birthdate != nil {
		d := *r.Birthdate
		c.Birthdate = &d
	}
	return &c
}
