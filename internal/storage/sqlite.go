package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"costeapp/internal/core"
)

// SQLiteRepository stores fixed costs in a local SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ FixedCostRepository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectFixedCost = `SELECT id, cost_name, monthly_cost_cents, updated_at FROM fixed_costs`

func (r *SQLiteRepository) ListFixedCosts(ctx context.Context) ([]core.FixedCost, error) {
	rows, err := r.db.QueryContext(ctx, selectFixedCost+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	defer rows.Close()

	var costs []core.FixedCost
	for rows.Next() {
		fc, err := scanSQLiteFixedCost(rows)
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

func (r *SQLiteRepository) TotalMonthly(ctx context.Context) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(monthly_cost_cents), 0) FROM fixed_costs`).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total fixed costs: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) GetFixedCost(ctx context.Context, id int64) (core.FixedCost, error) {
	row := r.db.QueryRowContext(ctx, selectFixedCost+` WHERE id = ?`, id)
	fc, err := scanSQLiteFixedCost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedCost{}, fmt.Errorf("get fixed cost %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("get fixed cost %d: %w", id, err)
	}
	return fc, nil
}

func (r *SQLiteRepository) CreateFixedCost(ctx context.Context, in core.NewFixedCost) (core.FixedCost, error) {
	now := r.now().UTC()
	stamp := now.Format(time.RFC3339Nano)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_costs (cost_name, monthly_cost_cents, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		in.CostName, in.MonthlyCost.Cents, stamp, stamp)
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("create fixed cost: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("read new fixed cost id: %w", err)
	}

	slog.InfoContext(ctx, "Fixed cost saved to SQLite",
		"id", id,
		"cost_name", in.CostName,
		"amount_cents", in.MonthlyCost.Cents)

	return core.FixedCost{ID: id, CostName: in.CostName, MonthlyCost: in.MonthlyCost, UpdatedAt: mustParseStamp(stamp)}, nil
}

func (r *SQLiteRepository) BulkUpdateFixedCosts(ctx context.Context, updates []core.FixedCostUpdate) ([]core.FixedCost, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE fixed_costs SET cost_name = ?, monthly_cost_cents = ?, updated_at = ? WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare bulk update: %w", err)
	}
	defer stmt.Close()

	updated := make([]core.FixedCost, 0, len(updates))
	for _, u := range updates {
		stamp := r.now().UTC().Format(time.RFC3339Nano)
		res, err := stmt.ExecContext(ctx, u.CostName, u.MonthlyCost.Cents, stamp, u.ID)
		if err != nil {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("update fixed cost %d: %w", u.ID, core.ErrNotFound)
		}
		updated = append(updated, core.FixedCost{
			ID:          u.ID,
			CostName:    u.CostName,
			MonthlyCost: u.MonthlyCost,
			UpdatedAt:   mustParseStamp(stamp),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk update: %w", err)
	}

	slog.InfoContext(ctx, "Fixed costs updated in SQLite", "count", len(updated))
	return updated, nil
}

func (r *SQLiteRepository) DeleteFixedCost(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_costs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fixed cost %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fixed cost %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete fixed cost %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Fixed cost deleted from SQLite", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteFixedCost(s rowScanner) (core.FixedCost, error) {
	var (
		fc    core.FixedCost
		stamp string
	)
	if err := s.Scan(&fc.ID, &fc.CostName, &fc.MonthlyCost.Cents, &stamp); err != nil {
		return core.FixedCost{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return core.FixedCost{}, fmt.Errorf("parse updated_at %q: %w", stamp, err)
	}
	fc.UpdatedAt = t
	return fc, nil
}

// mustParseStamp parses a timestamp this package formatted itself.
func mustParseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(fmt.Sprintf("storage: bad internal timestamp %q: %v", s, err))
	}
	return t
}
