package sheets

import (
	"context"
	"time"

	"costeapp/internal/core"
)

// Snapshot is the whole fixed cost table at one point in time.
type Snapshot struct {
	FixedCosts []core.FixedCost
	Total      core.Money
	TakenAt    time.Time
}

// NewSnapshot builds a snapshot from a loaded overview.
func NewSnapshot(ov core.Overview, takenAt time.Time) Snapshot {
	return Snapshot{FixedCosts: ov.FixedCosts, Total: ov.Total, TakenAt: takenAt}
}

// Ports for outbound adapters.
type (
	// SnapshotWriter replaces the mirrored copy with the given snapshot.
	// Writers must be idempotent: the same snapshot may be written twice.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, snap Snapshot) error
	}
)
