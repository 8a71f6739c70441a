package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Keys shared by the bulk form, its JSON variant and the response body.
const (
	ChangedFixedCostsKey = "fixedCosts"
	CostIDKey            = "id"
	CostNameKey          = "costName"
	MonthlyCostKey       = "monthlyCost"
	LastSavedDateKey     = "lastSavedDate"
)

// FixedCostInput is one submitted row before validation. All values are the
// raw strings the client sent. Index is the row's number in the submitted
// form (fixedCosts[Index]); when no row of a batch sets it, rows are numbered
// by position.
type FixedCostInput struct {
	Index       int    `json:"-"`
	ID          string `json:"id"`
	CostName    string `json:"costName"`
	MonthlyCost string `json:"monthlyCost"`
}

// RowIndexes returns the path index of every row of a batch.
func RowIndexes(rows []FixedCostInput) []int {
	out := make([]int, len(rows))
	indexed := false
	for i, row := range rows {
		out[i] = row.Index
		indexed = indexed || row.Index != 0
	}
	if !indexed {
		for i := range out {
			out[i] = i
		}
	}
	return out
}

// FieldPath names a field of the i-th submitted row, e.g. "fixedCosts[1].costName".
func FieldPath(index int, key string) string {
	return fmt.Sprintf("%s[%d].%s", ChangedFixedCostsKey, index, key)
}

// FieldError is a validation failure tied to one form field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// FieldErrors is the full set of validation failures of a request, in
// submission order.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Err.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying sentinel errors to errors.Is.
func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(fe))
	for _, e := range fe {
		errs = append(errs, e.Err)
	}
	return errs
}

// Map returns field path -> user-facing message.
func (fe FieldErrors) Map() map[string]string {
	m := make(map[string]string, len(fe))
	for _, e := range fe {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// Has reports whether the given field path failed validation.
func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (fe *FieldErrors) add(field string, err error) {
	*fe = append(*fe, FieldError{Field: field, Message: FieldMessage(err), Err: err})
}

// FieldMessage maps a validation error to the text shown next to the input.
func FieldMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyName):
		return "El concepto es obligatorio"
	case errors.Is(err, ErrNameTooLong):
		return fmt.Sprintf("El concepto no puede superar %d caracteres", MaxCostNameLength)
	case errors.Is(err, ErrNegativeAmount):
		return "El costo mensual no puede ser negativo"
	case errors.Is(err, ErrInvalidAmount):
		return "El costo mensual debe ser un número"
	case errors.Is(err, ErrInvalidID):
		return "Identificador inválido"
	case errors.Is(err, ErrDuplicateID):
		return "Este costo aparece más de una vez"
	case errors.Is(err, ErrEmptyBatch):
		return "No hay costos para guardar"
	default:
		return "Valor inválido"
	}
}

// ValidateBulkUpdate checks every submitted row and returns either the typed
// updates or the complete set of field errors. It never returns both.
func ValidateBulkUpdate(rows []FixedCostInput) ([]FixedCostUpdate, FieldErrors) {
	var errs FieldErrors
	if len(rows) == 0 {
		errs.add(ChangedFixedCostsKey, ErrEmptyBatch)
		return nil, errs
	}

	updates := make([]FixedCostUpdate, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	indexes := RowIndexes(rows)
	for n, row := range rows {
		var u FixedCostUpdate
		i := indexes[n]

		id, err := ParseID(row.ID)
		if err != nil {
			errs.add(FieldPath(i, CostIDKey), err)
		} else if seen[id] {
			errs.add(FieldPath(i, CostIDKey), ErrDuplicateID)
		} else {
			seen[id] = true
			u.ID = id
		}

		name, err := NormalizeCostName(row.CostName)
		if err != nil {
			errs.add(FieldPath(i, CostNameKey), err)
		}
		u.CostName = name

		amount, err := ParseAmount(row.MonthlyCost)
		if err != nil {
			errs.add(FieldPath(i, MonthlyCostKey), err)
		}
		u.MonthlyCost = amount

		updates = append(updates, u)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return updates, nil
}

// ValidateNewFixedCost checks the add form. Field paths are the bare keys.
func ValidateNewFixedCost(name, amount string) (NewFixedCost, FieldErrors) {
	var errs FieldErrors

	n, err := NormalizeCostName(name)
	if err != nil {
		errs.add(CostNameKey, err)
	}
	m, err := ParseAmount(amount)
	if err != nil {
		errs.add(MonthlyCostKey, err)
	}

	if len(errs) > 0 {
		return NewFixedCost{}, errs
	}
	return NewFixedCost{CostName: n, MonthlyCost: m}, nil
}

// ParseID parses a positive record identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
