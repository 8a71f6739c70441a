package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxCostNameLength bounds the display label stored for a fixed cost.
	MaxCostNameLength = 120
)

var (
	ErrNotFound       = errors.New("fixed cost not found")
	ErrInvalidID      = errors.New("invalid fixed cost id")
	ErrEmptyName      = errors.New("cost name is required")
	ErrNameTooLong    = errors.New("cost name is too long")
	ErrInvalidAmount  = errors.New("monthly cost must be a number")
	ErrNegativeAmount = errors.New("monthly cost cannot be negative")
	ErrDuplicateID    = errors.New("fixed cost listed more than once")
	ErrEmptyBatch     = errors.New("no fixed costs submitted")
)

type (
	// FixedCost is a recurring monthly expense line.
	FixedCost struct {
		ID          int64     `json:"id"`
		CostName    string    `json:"costName"`
		MonthlyCost Money     `json:"monthlyCost"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// FixedCostUpdate is one validated row of a bulk update.
	FixedCostUpdate struct {
		ID          int64
		CostName    string
		MonthlyCost Money
	}

	// NewFixedCost is a validated creation request.
	NewFixedCost struct {
		CostName    string
		MonthlyCost Money
	}
)

// NormalizeCostName trims surrounding whitespace and checks the name rules.
func NormalizeCostName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxCostNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Validate checks a fixed cost before it is written.
func (f FixedCost) Validate() error {
	if f.ID <= 0 {
		return ErrInvalidID
	}
	if _, err := NormalizeCostName(f.CostName); err != nil {
		return err
	}
	return f.MonthlyCost.Validate()
}

// Validate checks a single update row.
func (u FixedCostUpdate) Validate() error {
	if u.ID <= 0 {
		return ErrInvalidID
	}
	if _, err := NormalizeCostName(u.CostName); err != nil {
		return err
	}
	return u.MonthlyCost.Validate()
}
