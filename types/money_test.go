package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD(15300).Add(USD(200)) }, USD(15500)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Multiply", func() Money { return USD(200).Multiply(13) }, USD(2600)},
		{"Divide exact", func() Money { return USD(15300).Divide(3) }, USD(5100)},
		{"Divide rounds down", func() Money { return USD(56001).Divide(13) }, USD(4308)},
		{"Divide rounds half up", func() Money { return USD(5).Divide(2) }, USD(3)},
		{"Divide negative rounds away", func() Money { return USD(-5).Divide(2) }, USD(-3)},
		{"Divide negative truncated", func() Money { return USD(-4).Divide(3) }, USD(-1)},
		{"Abs negative", func() Money { return USD(-100).Abs() }, USD(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = USD(100).Add(Cents(100, "eur"))
}

func TestMoneyDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero")
		}
	}()

	_ = USD(100).Divide(0)
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"51", USD(5100), false},
		{"$153.00", USD(15300), false},
		{"2.5", USD(250), false},
		{"-2.05", USD(-205), false},
		{"0.01", USD(1), false},
		{"1.234", Money{}, true},
		{"", Money{}, true},
		{"abc", Money{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMajor(tt.in, "usd")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{USD(5100), "$51.00"},
		{USD(1), "$0.01"},
		{USD(0), "$0.00"},
		{USD(-205), "$-2.05"},
		{Cents(9999, "EUR"), "EUR 99.99"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.String(); got != tt.expected {
				t.Errorf("String: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(USD(5100))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":5100,"currency":"usd","display":"$51.00"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !back.Equal(USD(5100)) {
		t.Errorf("Unmarshaled: got %v", back)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", nil, Zero("usd")},
		{"Single", []Money{USD(100)}, USD(100)},
		{"Multiple", []Money{USD(15300), USD(2600), USD(0)}, USD(17900)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum("usd", tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}
