// Package postgres provides a PostgreSQL-backed salary store using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tarif/internal/config"
	"github.com/JonMunkholm/tarif/internal/core"
	"github.com/JonMunkholm/tarif/internal/storage/postgres/migrations"
)

// SQLSTATE undefined_table.
const codeUndefinedTable = "42P01"

const cellColumns = `table_name, grade, step, salary, valid_from::text, region`

// Store persists salary cells in PostgreSQL.
// Every call acquires a pooled connection and releases it before returning.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool configured from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", classify(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", classify(err))
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the salaries and imports tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, classify(err))
		}
	}
	return nil
}

// TableNames returns the distinct stored table names.
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT table_name FROM salaries ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list table names: %w", classify(err))
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list table names: %w", classify(err))
	}
	return names, nil
}

// Grades returns the distinct grades of a table in storage order.
func (s *Store) Grades(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT grade FROM salaries WHERE table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", classify(err))
	}
	grades, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", classify(err))
	}
	return grades, nil
}

// Steps returns the distinct steps of a grade.
func (s *Store) Steps(ctx context.Context, table, grade string) ([]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT step FROM salaries WHERE table_name = $1 AND grade = $2 ORDER BY step`,
		table, grade)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", classify(err))
	}
	steps, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", classify(err))
	}
	return steps, nil
}

// Cells returns the cells of a table, optionally filtered by grade and step.
func (s *Store) Cells(ctx context.Context, q core.CellQuery) ([]core.SalaryCell, error) {
	query := `SELECT ` + cellColumns + ` FROM salaries WHERE table_name = $1`
	args := []any{q.TableName}
	if q.Grade != nil {
		args = append(args, *q.Grade)
		query += fmt.Sprintf(` AND grade = $%d`, len(args))
	}
	if q.Step != nil {
		args = append(args, *q.Step)
		query += fmt.Sprintf(` AND step = $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", classify(err))
	}
	cells, err := pgx.CollectRows(rows, scanCell)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", classify(err))
	}
	return cells, nil
}

// Cell returns one cell by natural key, or core.ErrNotFound.
func (s *Store) Cell(ctx context.Context, table, grade string, step int) (core.SalaryCell, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cellColumns+` FROM salaries
		  WHERE table_name = $1 AND grade = $2 AND step = $3
		  LIMIT 1`,
		table, grade, step)
	if err != nil {
		return core.SalaryCell{}, fmt.Errorf("get cell: %w", classify(err))
	}
	cell, err := pgx.CollectOneRow(rows, scanCell)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.SalaryCell{}, core.ErrNotFound
		}
		return core.SalaryCell{}, fmt.Errorf("get cell: %w", classify(err))
	}
	return cell, nil
}

// Imports returns the recorded import batches, newest first.
func (s *Store) Imports(ctx context.Context) ([]core.ImportBatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, table_name, source, region, valid_from::text, row_count, imported_at
		   FROM imports
		  ORDER BY imported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", classify(err))
	}
	batches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ImportBatch, error) {
		var b core.ImportBatch
		err := row.Scan(&b.ID, &b.TableName, &b.Source, &b.Region, &b.ValidFrom, &b.RowCount, &b.ImportedAt)
		b.ImportedAt = b.ImportedAt.UTC()
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", classify(err))
	}
	return batches, nil
}

// ReplaceTable deletes the stored rows of batch.TableName, bulk loads cells
// with COPY and records the batch in one transaction.
func (s *Store) ReplaceTable(ctx context.Context, batch core.ImportBatch, cells []core.SalaryCell) error {
	importID, err := uuid.Parse(batch.ID)
	if err != nil {
		return fmt.Errorf("import id %q: %w", batch.ID, err)
	}
	batchValidFrom, err := time.Parse(core.DateLayout, batch.ValidFrom)
	if err != nil {
		return fmt.Errorf("import valid_from %q: %w", batch.ValidFrom, err)
	}

	rows := make([][]any, 0, len(cells))
	for _, c := range cells {
		validFrom, err := time.Parse(core.DateLayout, c.ValidFrom)
		if err != nil {
			return fmt.Errorf("valid_from %q of %s/%d: %w", c.ValidFrom, c.Grade, c.Step, err)
		}
		rows = append(rows, []any{c.TableName, c.Grade, int32(c.Step), c.Salary, validFrom, c.Region, importID})
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM salaries WHERE table_name = $1`, batch.TableName); err != nil {
			return fmt.Errorf("clear table %q: %w", batch.TableName, classify(err))
		}

		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"salaries"},
			[]string{"table_name", "grade", "step", "salary", "valid_from", "region", "import_id"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy cells: %w", classify(err))
		}
		if int(copied) != len(cells) {
			return fmt.Errorf("copy cells: copied %d of %d rows", copied, len(cells))
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO imports (id, table_name, source, region, valid_from, row_count, imported_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			importID, batch.TableName, batch.Source, batch.Region, batchValidFrom, batch.RowCount, batch.ImportedAt,
		); err != nil {
			return fmt.Errorf("record import: %w", classify(err))
		}
		return nil
	})
}

func scanCell(row pgx.CollectableRow) (core.SalaryCell, error) {
	var c core.SalaryCell
	err := row.Scan(&c.TableName, &c.Grade, &c.Step, &c.Salary, &c.ValidFrom, &c.Region)
	return c, err
}

// classify wraps a missing table or an unreachable server with
// core.ErrStorageUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == codeUndefinedTable {
			return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	if core.IsMissingTableMessage(err.Error()) {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return err
}

var _ core.Store = (*Store)(nil)
