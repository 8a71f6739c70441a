package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"costeapp/internal/core"
)

// PostgresRepository stores fixed costs in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ FixedCostRepository = (*PostgresRepository)(nil)

// NewPostgresRepository migrates the schema and opens a connection pool.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const pgColumns = `id, cost_name, monthly_cost_cents, updated_at`

func (r *PostgresRepository) ListFixedCosts(ctx context.Context) ([]core.FixedCost, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pgColumns+` FROM fixed_costs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	defer rows.Close()

	var costs []core.FixedCost
	for rows.Next() {
		fc, err := scanPgFixedCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed cost: %w", err)
		}
		costs = append(costs, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed costs: %w", err)
	}
	return costs, nil
}

func (r *PostgresRepository) TotalMonthly(ctx context.Context) (core.Money, error) {
	var cents int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(monthly_cost_cents), 0)::BIGINT FROM fixed_costs`).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("total fixed costs: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *PostgresRepository) GetFixedCost(ctx context.Context, id int64) (core.FixedCost, error) {
	fc, err := scanPgFixedCost(r.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM fixed_costs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.FixedCost{}, fmt.Errorf("get fixed cost %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("get fixed cost %d: %w", id, err)
	}
	return fc, nil
}

func (r *PostgresRepository) CreateFixedCost(ctx context.Context, in core.NewFixedCost) (core.FixedCost, error) {
	fc, err := scanPgFixedCost(r.pool.QueryRow(ctx,
		`INSERT INTO fixed_costs (cost_name, monthly_cost_cents) VALUES ($1, $2) RETURNING `+pgColumns,
		in.CostName, in.MonthlyCost.Cents))
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("create fixed cost: %w", err)
	}

	slog.InfoContext(ctx, "Fixed cost saved to Postgres", "id", fc.ID, "amount_cents", fc.MonthlyCost.Cents)
	return fc, nil
}

func (r *PostgresRepository) BulkUpdateFixedCosts(ctx context.Context, updates []core.FixedCostUpdate) ([]core.FixedCost, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin bulk update: %w", err)
	}
	defer tx.Rollback(ctx)

	updated := make([]core.FixedCost, 0, len(updates))
	for _, u := range updates {
		fc, err := scanPgFixedCost(tx.QueryRow(ctx,
			`UPDATE fixed_costs
			    SET cost_name = $1, monthly_cost_cents = $2, updated_at = clock_timestamp()
			  WHERE id = $3
			RETURNING `+pgColumns,
			u.CostName, u.MonthlyCost.Cents, u.ID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, core.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, err)
		}
		updated = append(updated, fc)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk update: %w", err)
	}

	slog.InfoContext(ctx, "Fixed costs updated in Postgres", "count", len(updated))
	return updated, nil
}

func (r *PostgresRepository) DeleteFixedCost(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fixed_costs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fixed cost %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete fixed cost %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Fixed cost deleted from Postgres", "id", id)
	return nil
}

func scanPgFixedCost(row pgx.Row) (core.FixedCost, error) {
	var fc core.FixedCost
	if err := row.Scan(&fc.ID, &fc.CostName, &fc.MonthlyCost.Cents, &fc.UpdatedAt); err != nil {
		return core.FixedCost{}, err
	}
	fc.UpdatedAt = fc.UpdatedAt.UTC()
	return fc, nil
}
