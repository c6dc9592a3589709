package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0.01", 1, false},
		{".50", 50, false},
		{"12.345", 1234, false}, // third decimal rounds down
		{"12.346", 1235, false}, // third decimal rounds up
		{" 7.5 ", 750, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"12x", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDecimalToCents(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseDecimalToCents(%q) err = %v, want ErrInvalidAmount", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalToCents(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	if got := (Money{Cents: 15050}).Decimal(); got != 150.50 {
		t.Fatalf("Decimal() = %v, want 150.50", got)
	}
	if got := (Money{}).Decimal(); got != 0 {
		t.Fatalf("Decimal() = %v, want 0", got)
	}
}

func TestSummaryBalanco(t *testing.T) {
	s := Summary{TotalEntradas: Money{Cents: 10000}, TotalSaidas: Money{Cents: 5000}}
	if got := s.Balanco().Cents; got != 5000 {
		t.Fatalf("Balanco() = %d, want 5000", got)
	}

	var empty Summary
	if got := empty.Balanco().Cents; got != 0 {
		t.Fatalf("empty Balanco() = %d, want 0", got)
	}
}
