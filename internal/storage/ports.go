package storage

import (
	"context"

	"costeapp/internal/core"
)

// FixedCostReader reads the canonical record set.
type FixedCostReader interface {
	ListFixedCosts(ctx context.Context) ([]core.FixedCost, error)
	// TotalMonthly sums monthly costs over live records at call time.
	TotalMonthly(ctx context.Context) (core.Money, error)
	GetFixedCost(ctx context.Context, id int64) (core.FixedCost, error)
}

// FixedCostWriter mutates the record set. Missing ids surface as
// core.ErrNotFound.
type FixedCostWriter interface {
	CreateFixedCost(ctx context.Context, in core.NewFixedCost) (core.FixedCost, error)
	// BulkUpdateFixedCosts applies every update or none of them and returns
	// the stored records in the order given.
	BulkUpdateFixedCosts(ctx context.Context, updates []core.FixedCostUpdate) ([]core.FixedCost, error)
	DeleteFixedCost(ctx context.Context, id int64) error
}

// FixedCostRepository is what the backends provide.
type FixedCostRepository interface {
	FixedCostReader
	FixedCostWriter
	Ping(ctx context.Context) error
	Close() error
}
