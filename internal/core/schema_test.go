package core

import (
	"errors"
	"testing"
)

func TestValidateBulkUpdate(t *testing.T) {
	tests := []struct {
		name       string
		rows       []FixedCostInput
		wantFields []string
		wantLen    int
	}{
		{
			name: "valid batch",
			rows: []FixedCostInput{
				{ID: "1", CostName: "Rent", MonthlyCost: "500.00"},
				{ID: "2", CostName: " Internet ", MonthlyCost: "30"},
			},
			wantLen: 2,
		},
		{
			name: "empty name on second row",
			rows: []FixedCostInput{
				{ID: "1", CostName: "Rent", MonthlyCost: "500.00"},
				{ID: "2", CostName: "", MonthlyCost: "30"},
			},
			wantFields: []string{"fixedCosts[1].costName"},
		},
		{
			name: "every field wrong",
			rows: []FixedCostInput{
				{ID: "x", CostName: "   ", MonthlyCost: "-4"},
			},
			wantFields: []string{"fixedCosts[0].id", "fixedCosts[0].costName", "fixedCosts[0].monthlyCost"},
		},
		{
			name: "duplicate id",
			rows: []FixedCostInput{
				{ID: "3", CostName: "Gym", MonthlyCost: "20"},
				{ID: "3", CostName: "Gym", MonthlyCost: "25"},
			},
			wantFields: []string{"fixedCosts[1].id"},
		},
		{
			name: "submitted indexes name the path",
			rows: []FixedCostInput{
				{Index: 0, ID: "1", CostName: "Rent", MonthlyCost: "500"},
				{Index: 3, ID: "2", CostName: "", MonthlyCost: "30"},
			},
			wantFields: []string{"fixedCosts[3].costName"},
		},
		{
			name:       "empty batch",
			rows:       nil,
			wantFields: []string{"fixedCosts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, errs := ValidateBulkUpdate(tt.rows)
			if len(tt.wantFields) == 0 {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				if len(updates) != tt.wantLen {
					t.Fatalf("got %d updates, want %d", len(updates), tt.wantLen)
				}
				return
			}
			if updates != nil {
				t.Fatalf("expected no updates on failure, got %v", updates)
			}
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%v), want %d", len(errs), errs, len(tt.wantFields))
			}
			for _, f := range tt.wantFields {
				if !errs.Has(f) {
					t.Errorf("missing error for %s in %v", f, errs.Map())
				}
			}
		})
	}
}

func TestValidateBulkUpdateNormalizes(t *testing.T) {
	updates, errs := ValidateBulkUpdate([]FixedCostInput{{ID: " 7 ", CostName: "  Luz ", MonthlyCost: "12,5"}})
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	got := updates[0]
	if got.ID != 7 || got.CostName != "Luz" || got.MonthlyCost.Cents != 1250 {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestFieldErrorsIsSentinel(t *testing.T) {
	_, errs := ValidateBulkUpdate([]FixedCostInput{{ID: "1", CostName: "", MonthlyCost: "1"}})
	var err error = errs
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected errors.Is to find ErrEmptyName in %v", err)
	}
	if got := errs.Map()["fixedCosts[0].costName"]; got != "El concepto es obligatorio" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidateNewFixedCost(t *testing.T) {
	nfc, errs := ValidateNewFixedCost("Seguro", "45.10")
	if len(errs) != 0 || nfc.CostName != "Seguro" || nfc.MonthlyCost.Cents != 4510 {
		t.Fatalf("unexpected result %+v %v", nfc, errs)
	}

	_, errs = ValidateNewFixedCost("", "abc")
	if !errs.Has(CostNameKey) || !errs.Has(MonthlyCostKey) {
		t.Fatalf("expected both fields to fail, got %v", errs.Map())
	}
}

func TestTotal(t *testing.T) {
	costs := []FixedCost{
		{ID: 1, MonthlyCost: Money{Cents: 10050}},
		{ID: 2, MonthlyCost: Money{Cents: 4950}},
	}
	total := Total(costs)
	if total.String() != "150.00" {
		t.Fatalf("total = %s, want 150.00", total)
	}
	if Total(nil).Cents != 0 {
		t.Fatal("empty total should be zero")
	}
}
