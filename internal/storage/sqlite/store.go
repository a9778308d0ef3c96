// Package sqlite provides a SQLite-backed salary store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/tarif/internal/core"
	"github.com/JonMunkholm/tarif/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const cellColumns = `table_name, grade, step, salary, valid_from, region`

// Store persists salary cells in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite salary store. With migrate set the embedded schema is
// applied; without it a database that was never imported into reports
// core.ErrStorageUnavailable on every read.
func Open(ctx context.Context, path string, migrate bool) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", classify(err))
	}
	if migrate {
		if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// TableNames returns the distinct stored table names.
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT table_name FROM salaries ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list table names: %w", classify(err))
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Grades returns the distinct grades of a table in storage order.
func (s *Store) Grades(ctx context.Context, table string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT grade FROM salaries WHERE table_name = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", classify(err))
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Steps returns the distinct steps of a grade.
func (s *Store) Steps(ctx context.Context, table, grade string) ([]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT step FROM salaries WHERE table_name = ? AND grade = ? ORDER BY step`,
		table, grade)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", classify(err))
	}
	defer rows.Close()

	var steps []int
	for rows.Next() {
		var step int
		if err := rows.Scan(&step); err != nil {
			return nil, fmt.Errorf("list steps: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list steps: %w", classify(err))
	}
	return steps, nil
}

// Cells returns the cells of a table, optionally filtered by grade and step.
func (s *Store) Cells(ctx context.Context, q core.CellQuery) ([]core.SalaryCell, error) {
	query := `SELECT ` + cellColumns + ` FROM salaries WHERE table_name = ?`
	args := []any{q.TableName}
	if q.Grade != nil {
		query += ` AND grade = ?`
		args = append(args, *q.Grade)
	}
	if q.Step != nil {
		query += ` AND step = ?`
		args = append(args, *q.Step)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", classify(err))
	}
	defer rows.Close()

	var cells []core.SalaryCell
	for rows.Next() {
		var c core.SalaryCell
		if err := rows.Scan(&c.TableName, &c.Grade, &c.Step, &c.Salary, &c.ValidFrom, &c.Region); err != nil {
			return nil, fmt.Errorf("list cells: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cells: %w", classify(err))
	}
	return cells, nil
}

// Cell returns one cell by natural key, or core.ErrNotFound.
func (s *Store) Cell(ctx context.Context, table, grade string, step int) (core.SalaryCell, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+cellColumns+` FROM salaries
		  WHERE table_name = ? AND grade = ? AND step = ?
		  LIMIT 1`,
		table, grade, step)

	var c core.SalaryCell
	err := row.Scan(&c.TableName, &c.Grade, &c.Step, &c.Salary, &c.ValidFrom, &c.Region)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SalaryCell{}, core.ErrNotFound
		}
		return core.SalaryCell{}, fmt.Errorf("get cell: %w", classify(err))
	}
	return c, nil
}

// Imports returns the recorded import batches, newest first.
func (s *Store) Imports(ctx context.Context) ([]core.ImportBatch, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, table_name, source, region, valid_from, row_count, imported_at
		   FROM imports
		  ORDER BY imported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", classify(err))
	}
	defer rows.Close()

	var batches []core.ImportBatch
	for rows.Next() {
		var b core.ImportBatch
		var importedAt int64
		if err := rows.Scan(&b.ID, &b.TableName, &b.Source, &b.Region, &b.ValidFrom, &b.RowCount, &importedAt); err != nil {
			return nil, fmt.Errorf("list imports: %w", err)
		}
		b.ImportedAt = fromMillis(importedAt)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imports: %w", classify(err))
	}
	return batches, nil
}

// ReplaceTable deletes the stored rows of batch.TableName, inserts cells and
// records the batch in one transaction.
func (s *Store) ReplaceTable(ctx context.Context, batch core.ImportBatch, cells []core.SalaryCell) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", classify(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM salaries WHERE table_name = ?`, batch.TableName); err != nil {
		return fmt.Errorf("clear table %q: %w", batch.TableName, classify(err))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO salaries (`+cellColumns+`, import_id) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", classify(err))
	}
	defer stmt.Close()

	for _, c := range cells {
		if _, err = stmt.ExecContext(ctx, c.TableName, c.Grade, c.Step, c.Salary, c.ValidFrom, c.Region, batch.ID); err != nil {
			return fmt.Errorf("insert %s/%s/%d: %w", c.TableName, c.Grade, c.Step, classify(err))
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, table_name, source, region, valid_from, row_count, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.TableName, batch.Source, batch.Region, batch.ValidFrom, batch.RowCount, toMillis(batch.ImportedAt),
	); err != nil {
		return fmt.Errorf("record import: %w", classify(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", classify(err))
	}
	return nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return values, nil
}

// classify wraps errors that mean the salary data cannot be read at all
// with core.ErrStorageUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_NOTADB, sqlite3lib.SQLITE_CORRUPT:
			return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
	}
	if core.IsMissingTableMessage(err.Error()) {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return err
}

var _ core.Store = (*Store)(nil)
