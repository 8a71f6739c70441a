// Package worker keeps the spreadsheet mirror in step with storage.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"costeapp/internal/amqp"
	"costeapp/internal/core"
	"costeapp/internal/log"
	"costeapp/internal/sheets"
)

const syncKey = "snapshot"

// Source loads the current table. *services.FixedCostService implements it.
type Source interface {
	Load(ctx context.Context) (core.Overview, error)
}

// Consumer delivers change events until ctx is done.
type Consumer interface {
	ConsumeWithReconnect(ctx context.Context, handler amqp.EventHandler) error
}

// MirrorWorker writes full snapshots to a SnapshotWriter. Triggers that
// arrive while a sync is running join it, and the running sync loads once
// more before returning so their changes are included.
type MirrorWorker struct {
	source Source
	writer sheets.SnapshotWriter
	logger *log.Logger
	now    func() time.Time

	group   singleflight.Group
	pending atomic.Bool

	syncs    atomic.Int64
	failures atomic.Int64
}

func NewMirrorWorker(source Source, writer sheets.SnapshotWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		source: source,
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// Sync mirrors the current table. Concurrent callers share one run, and a
// trigger that lands while a run is finishing gets a run of its own.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.pending.Store(true)
	for {
		_, err, shared := w.group.Do(syncKey, func() (interface{}, error) {
			for w.pending.Swap(false) {
				if err := w.syncOnce(ctx); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if shared {
			w.logger.DebugContext(ctx, "Joined running sync", log.FieldOperation, log.OpSync)
		}
		if err != nil || !w.pending.Load() {
			return err
		}
	}
}

func (w *MirrorWorker) syncOnce(ctx context.Context) error {
	start := w.now()
	ov, err := w.source.Load(ctx)
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("load fixed costs: %w", err)
	}
	if err := w.writer.WriteSnapshot(ctx, sheets.NewSnapshot(ov, start.UTC())); err != nil {
		w.failures.Add(1)
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.syncs.Add(1)
	w.logger.InfoContext(ctx, "Mirror synced",
		log.FieldOperation, log.OpSync,
		log.FieldBatchSize, len(ov.FixedCosts),
		log.FieldDuration, w.now().Sub(start).Milliseconds())
	return nil
}

// HandleEvent is the amqp.EventHandler of the worker. Any change kind
// triggers a full sync; a failed sync requeues the event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.FixedCostEvent) error {
	w.logger.InfoContext(ctx, "Fixed cost event received",
		log.FieldEventKind, event.Kind,
		"ids", event.IDs,
		"occurred_at", event.OccurredAt.Format(time.RFC3339))
	return w.Sync(ctx)
}

// Syncs and Failures count completed and failed sync attempts.
func (w *MirrorWorker) Syncs() int64    { return w.syncs.Load() }
func (w *MirrorWorker) Failures() int64 { return w.failures.Load() }

// Run syncs once, then keeps syncing on the cron schedule and on every
// consumed event until ctx is cancelled. consumer may be nil.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer, schedule string) error {
	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sync failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	scheduler, err := w.scheduler(ctx, schedule)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if scheduler != nil {
		scheduler.Start()
		w.logger.InfoContext(ctx, "Periodic resync scheduled", "schedule", schedule)
	}
	g.Go(func() error {
		<-gctx.Done()
		if scheduler != nil {
			// Wait for a scheduled sync that is already running.
			<-scheduler.Stop().Done()
		}
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeWithReconnect(gctx, w.HandleEvent)
		})
	} else {
		w.logger.InfoContext(ctx, "No event consumer configured, relying on the schedule")
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// scheduler returns nil when schedule is empty.
func (w *MirrorWorker) scheduler(ctx context.Context, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := w.Sync(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled sync failed", log.FieldOperation, log.OpSync, log.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return c, nil
}
