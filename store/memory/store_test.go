package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/boxrate"
	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/recipient"
	"github.com/xraph/boxrate/store/memory"
	"github.com/xraph/boxrate/types"
)

func version(start string) *rate.Version {
	return &rate.Version{
		ID:             id.NewRateVersionID(),
		StartDate:      types.MustParseDate(start),
		BaseRate3Month: types.USD(15300),
	}
}

func TestRotateRateVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := version("2025-01-01")
	if err := s.RotateRateVersion(ctx, first, types.Date{}); err != nil {
		t.Fatal(err)
	}
	second := version("2026-01-01")
	if err := s.RotateRateVersion(ctx, second, types.MustParseDate("2025-12-31")); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListRateVersions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d versions", len(got))
	}
	if got[0].ID != first.ID || got[0].EndDate == nil || got[0].EndDate.String() != "2025-12-31" {
		t.Errorf("first version not closed: %+v", got[0])
	}
	if !got[1].IsOpen() {
		t.Error("second version should be open")
	}
	if rate.Overlaps(got) {
		t.Error("timeline overlaps")
	}

	if err := s.RotateRateVersion(ctx, second, types.MustParseDate("2025-12-31")); !errors.Is(err, boxrate.ErrAlreadyExists) {
		t.Errorf("duplicate rotate err = %v", err)
	}
}

func TestRateVersionCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	v := version("2026-01-01")
	if err := s.RotateRateVersion(ctx, v, types.Date{}); err != nil {
		t.Fatal(err)
	}
	v.Notes = "mutated after insert"

	got, err := s.GetRateVersion(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != "" {
		t.Error("store shares memory with caller")
	}

	if _, err := s.GetRateVersion(ctx, id.NewRateVersionID()); !errors.Is(err, boxrate.ErrRateVersionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestAccountAuditFields(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &account.Account{ID: id.NewAccountID(), Status: account.StatusActive, StartDate: types.MustParseDate("2026-01-01")}
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatal(err)
	}

	u := account.AuditUpdate{Flag: true, FlagType: account.FlagUndercharged, Note: "low"}
	if err := s.UpdateAudit(ctx, a.ID, u); err != nil {
		t.Fatal(err)
	}
	flagged, err := s.ListAccounts(ctx, account.ListOpts{FlaggedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(flagged) != 1 {
		t.Fatalf("got %d flagged", len(flagged))
	}

	if err := s.SetOverride(ctx, a.ID, "loyal customer", account.AuditUpdate{Note: "granted"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetAccount(ctx, a.ID)
	if !got.RateOverride || got.RateOverrideReason != "loyal customer" || got.AuditFlag || got.AuditNote != "granted" {
		t.Errorf("after override: %+v", got)
	}

	if err := s.UpdateAudit(ctx, a.ID, u); err != nil {
		t.Fatal(err)
	}
	n, err := s.ClearAllAudit(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearAllAudit = %d, %v", n, err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if got.AuditFlag || got.AuditNote != "" || got.AuditedAt != nil {
		t.Errorf("audit fields not cleared: %+v", got)
	}
	if !got.RateOverride {
		t.Error("ClearAllAudit touched the override")
	}

	if err := s.ClearOverride(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if got.RateOverride || got.RateOverrideReason != "" {
		t.Errorf("override not cleared: %+v", got)
	}

	if err := s.UpdateAudit(ctx, id.NewAccountID(), u); !errors.Is(err, boxrate.ErrAccountNotFound) {
		t.Errorf("unknown account err = %v", err)
	}
}

func TestRecipients(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	a := &account.Account{ID: id.NewAccountID()}
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatal(err)
	}
	r := &recipient.Recipient{ID: id.NewRecipientID(), AccountID: a.ID, Type: recipient.TypePerson, Name: "Ada"}
	if err := s.CreateRecipient(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Removed = true
	if err := s.UpdateRecipient(ctx, r); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListRecipients(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Removed {
		t.Errorf("got %+v", list)
	}

	orphan := &recipient.Recipient{ID: id.NewRecipientID(), AccountID: id.NewAccountID()}
	if err := s.CreateRecipient(ctx, orphan); !errors.Is(err, boxrate.ErrAccountNotFound) {
		t.Errorf("orphan err = %v", err)
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); !errors.Is(err, boxrate.ErrStoreClosed) {
		t.Errorf("Ping err = %v", err)
	}
	if _, err := s.ListAccounts(ctx, account.ListOpts{}); !errors.Is(err, boxrate.ErrStoreClosed) {
		t.Errorf("ListAccounts err = %v", err)
	}
}
