package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"costeapp/internal/amqp"
	"costeapp/internal/core"
	"costeapp/internal/log"
	"costeapp/internal/storage"
)

// EventPublisher announces committed changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishFixedCostEvent(ctx context.Context, event *amqp.FixedCostEvent) error
}

// SaveResult is the outcome of a committed bulk update.
type SaveResult struct {
	Updated []core.FixedCost
	// LastSavedAt is the updatedAt of the last submitted row. It stands in
	// for the whole batch.
	LastSavedAt time.Time
}

// FixedCostService holds the fixed cost use cases on top of a repository.
type FixedCostService struct {
	repo      storage.FixedCostRepository
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewFixedCostService wires a repository with an optional publisher; pass
// nil to run without events.
func NewFixedCostService(repo storage.FixedCostRepository, publisher EventPublisher, logger *log.Logger) *FixedCostService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentFixedCost)
	return &FixedCostService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// Load returns every live record and the total, both read fresh.
func (s *FixedCostService) Load(ctx context.Context) (core.Overview, error) {
	costs, err := s.repo.ListFixedCosts(ctx)
	if err != nil {
		return core.Overview{}, fmt.Errorf("load fixed costs: %w", err)
	}
	total, err := s.repo.TotalMonthly(ctx)
	if err != nil {
		return core.Overview{}, fmt.Errorf("load total: %w", err)
	}
	if costs == nil {
		costs = []core.FixedCost{}
	}
	return core.Overview{FixedCosts: costs, Total: total}, nil
}

// BulkUpdate validates every row, then writes all of them in one unit.
// Validation failures come back as core.FieldErrors and nothing is written;
// an unknown id comes back wrapping core.ErrNotFound.
func (s *FixedCostService) BulkUpdate(ctx context.Context, rows []core.FixedCostInput) (SaveResult, error) {
	updates, fieldErrs := core.ValidateBulkUpdate(rows)
	if len(fieldErrs) > 0 {
		s.logger.InfoContext(ctx, "Rejected fixed costs batch",
			log.FieldOperation, log.OpValidate,
			log.FieldBatchSize, len(rows),
			log.FieldError, fieldErrs.Error())
		return SaveResult{}, fieldErrs
	}

	updated, err := s.repo.BulkUpdateFixedCosts(ctx, updates)
	if err != nil {
		return SaveResult{}, fmt.Errorf("bulk update fixed costs: %w", err)
	}

	res := SaveResult{Updated: updated}
	if len(updated) > 0 {
		res.LastSavedAt = updated[len(updated)-1].UpdatedAt
	}
	s.events.LogBulkUpdate(ctx, len(updated), res.LastSavedAt.Format(time.RFC3339))

	ids := make([]int64, 0, len(updated))
	for _, fc := range updated {
		ids = append(ids, fc.ID)
	}
	s.publish(ctx, amqp.NewFixedCostEvent(amqp.EventUpdated, ids...))
	return res, nil
}

// Create validates and stores a new record.
func (s *FixedCostService) Create(ctx context.Context, name, amount string) (core.FixedCost, error) {
	in, fieldErrs := core.ValidateNewFixedCost(name, amount)
	if len(fieldErrs) > 0 {
		return core.FixedCost{}, fieldErrs
	}

	fc, err := s.repo.CreateFixedCost(ctx, in)
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("create fixed cost: %w", err)
	}

	s.logger.InfoContext(ctx, "Fixed cost created",
		log.NewFields().WithOperation(log.OpCreate).WithFixedCost(fc.ID, fc.CostName, fc.MonthlyCost.Cents).ToSlice()...)
	s.publish(ctx, amqp.NewFixedCostEvent(amqp.EventCreated, fc.ID))
	return fc, nil
}

// Delete removes exactly one record or fails with core.ErrNotFound.
func (s *FixedCostService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return core.ErrInvalidID
	}
	if err := s.repo.DeleteFixedCost(ctx, id); err != nil {
		return fmt.Errorf("delete fixed cost: %w", err)
	}

	s.logger.InfoContext(ctx, "Fixed cost deleted", log.FieldOperation, log.OpDelete, log.FieldCostID, id)
	s.publish(ctx, amqp.NewFixedCostEvent(amqp.EventDeleted, id))
	return nil
}

// Ping checks that storage is reachable.
func (s *FixedCostService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish never fails the caller: the write is already committed.
func (s *FixedCostService) publish(ctx context.Context, event *amqp.FixedCostEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFixedCostEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish fixed cost event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventKind, event.Kind,
			log.FieldError, err)
	}
}

// Close releases the publisher (when it is closable) and the repository.
func (s *FixedCostService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close repository: %w", err))
		}
	}
	return errors.Join(errs...)
}
