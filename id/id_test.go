package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/boxrate/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
		prefix  string
	}{
		{"RateVersionID", id.NewRateVersionID, id.ParseRateVersionID, "rate_"},
		{"AccountID", id.NewAccountID, id.ParseAccountID, "acct_"},
		{"RecipientID", id.NewRecipientID, id.ParseRecipientID, "rcpt_"},
		{"AuditRunID", id.NewAuditRunID, id.ParseAuditRunID, "arun_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			if !strings.HasPrefix(original.String(), tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, original.String())
			}
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseAccountID(id.NewRecipientID().String()); err == nil {
		t.Error("ParseAccountID accepted a recipient id")
	}
	if _, err := id.ParseRateVersionID(id.NewAccountID().String()); err == nil {
		t.Error("ParseRateVersionID accepted an account id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty string and prefix, got %q / %q", i.String(), i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewAccountID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var nilID id.ID
	data, _ = nilID.MarshalText()
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil || !restored2.IsNil() {
		t.Errorf("nil round-trip: %v, nil=%v", err, restored2.IsNil())
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewRateVersionID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil || !scanned2.IsNil() {
		t.Errorf("Scan(nil): %v, nil=%v", err, scanned2.IsNil())
	}
}
