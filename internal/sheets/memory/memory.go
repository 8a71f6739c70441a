// Package memory is a SnapshotWriter that keeps snapshots in process. The
// worker uses it for dry runs when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"costeapp/internal/core"
	"costeapp/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	last   sheets.Snapshot
	writes int
	err    error
}

var _ sheets.SnapshotWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// FailWith makes every following write return err; nil restores success.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *Writer) WriteSnapshot(_ context.Context, snap sheets.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	snap.FixedCosts = append([]core.FixedCost(nil), snap.FixedCosts...)
	w.last = snap
	w.writes++
	return nil
}

// Last returns the most recent snapshot and how many were written.
func (w *Writer) Last() (sheets.Snapshot, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.writes
}
