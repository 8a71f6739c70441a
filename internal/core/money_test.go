package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		err   error
	}{
		{"1", 100, nil},
		{"1.0", 100, nil},
		{"1.23", 123, nil},
		{"1,23", 123, nil},
		{"0.01", 1, nil},
		{"0", 0, nil},
		{"0.00", 0, nil},
		{"-0", 0, nil},
		{"1.005", 101, nil}, // half-up rounding
		{"12,345", 1235, nil},
		{"12.344", 1234, nil},
		{" 2.50 ", 250, nil},
		{"500", 50000, nil},
		{"-1", 0, ErrNegativeAmount},
		{"-0.01", 0, ErrNegativeAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
		{"1,234.50", 0, ErrInvalidAmount},
		{"1e3", 0, ErrInvalidAmount},
		{"+5", 0, ErrInvalidAmount},
		{".", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"99999999999999", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got.Cents != tc.cents {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		cents  int64
		plain  string
		symbol string
		shown  string
	}{
		{15000, "150.00", "", "150.00"},
		{10050, "100.50", "$", "$100.50"},
		{0, "0.00", "$", "$0.00"},
		{123456750, "1234567.50", "$", "$1,234,567.50"},
		{99, "0.99", "€", "€0.99"},
	}
	for _, tc := range cases {
		m := Money{Cents: tc.cents}
		if got := m.String(); got != tc.plain {
			t.Errorf("String(%d) = %q, want %q", tc.cents, got, tc.plain)
		}
		if got := m.Format(tc.symbol); got != tc.shown {
			t.Errorf("Format(%d) = %q, want %q", tc.cents, got, tc.shown)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(FixedCost{ID: 1, CostName: "Rent", MonthlyCost: Money{Cents: 50000}})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["monthlyCost"] != "500.00" {
		t.Fatalf("monthlyCost encoded as %v", raw["monthlyCost"])
	}

	var m Money
	if err := json.Unmarshal([]byte(`30.5`), &m); err != nil || m.Cents != 3050 {
		t.Fatalf("number decode: %d %v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"-3"`), &m); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
}
