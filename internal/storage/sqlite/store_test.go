package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tarif/internal/core"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "salaries.db")
	store, err := Open(context.Background(), path, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleCells(table string) []core.SalaryCell {
	cell := func(grade string, step int, salary float64) core.SalaryCell {
		return core.SalaryCell{TableName: table, Grade: grade, Step: step, Salary: salary, ValidFrom: "2025-02-01", Region: "ALL"}
	}
	return []core.SalaryCell{
		cell("E 1", 1, 2434.49),
		cell("E 1", 2, 2500),
		cell("E 2", 1, 2700.5),
		cell("E 2", 2, 2800),
	}
}

func sampleBatch(id, table string, rows int) core.ImportBatch {
	return core.ImportBatch{
		ID:         id,
		TableName:  table,
		Source:     table + ".csv",
		Region:     "ALL",
		ValidFrom:  "2025-02-01",
		RowCount:   rows,
		ImportedAt: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestReplaceTableRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	cells := sampleCells("TV-L")
	require.NoError(t, store.ReplaceTable(ctx, sampleBatch("b1", "TV-L", len(cells)), cells))

	tables, err := store.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TV-L"}, tables)

	grades, err := store.Grades(ctx, "TV-L")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"E 1", "E 2"}, grades)

	steps, err := store.Steps(ctx, "TV-L", "E 2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, steps)

	all, err := store.Cells(ctx, core.CellQuery{TableName: "TV-L"})
	require.NoError(t, err)
	assert.ElementsMatch(t, cells, all)

	grade, step := "E 1", 2
	filtered, err := store.Cells(ctx, core.CellQuery{TableName: "TV-L", Grade: &grade, Step: &step})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 2500.0, filtered[0].Salary)

	got, err := store.Cell(ctx, "TV-L", "E 1", 1)
	require.NoError(t, err)
	assert.Equal(t, cells[0], got)
}

func TestCellNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	cells := sampleCells("TV-L")
	require.NoError(t, store.ReplaceTable(ctx, sampleBatch("b1", "TV-L", len(cells)), cells))

	_, err := store.Cell(ctx, "TV-L", "E 15", 6)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReplaceTableReplacesOnlyThatTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.ReplaceTable(ctx, sampleBatch("b1", "TV-L", 4), sampleCells("TV-L")))
	require.NoError(t, store.ReplaceTable(ctx, sampleBatch("b2", "TVöD", 4), sampleCells("TVöD")))

	replacement := []core.SalaryCell{
		{TableName: "TV-L", Grade: "E 9a", Step: 1, Salary: 3100, ValidFrom: "2025-04-01", Region: "ALL"},
	}
	require.NoError(t, store.ReplaceTable(ctx, sampleBatch("b3", "TV-L", 1), replacement))

	tvl, err := store.Cells(ctx, core.CellQuery{TableName: "TV-L"})
	require.NoError(t, err)
	assert.Equal(t, replacement, tvl)

	tvoed, err := store.Cells(ctx, core.CellQuery{TableName: "TVöD"})
	require.NoError(t, err)
	assert.Len(t, tvoed, 4)

	batches, err := store.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	ids := []string{batches[0].ID, batches[1].ID, batches[2].ID}
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, ids)
	assert.Equal(t, time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC), batches[0].ImportedAt)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "salaries.db")
	first, err := Open(ctx, path, true)
	require.NoError(t, err)
	require.NoError(t, first.ReplaceTable(ctx, sampleBatch("b1", "TV-L", 4), sampleCells("TV-L")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, true)
	require.NoError(t, err)
	defer second.Close()

	tables, err := second.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TV-L"}, tables)
}

func TestSalaryIndexes(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	columns := func(index string) []string {
		rows, err := store.sqlDB.Query(`SELECT name FROM pragma_index_info(?) ORDER BY seqno`, index)
		require.NoError(t, err)
		defer rows.Close()
		names, err := scanStrings(rows)
		require.NoError(t, err)
		return names
	}

	assert.Equal(t, []string{"table_name", "grade", "step"}, columns("idx_salaries_table"))
	assert.Equal(t, []string{"grade", "step"}, columns("idx_salaries_grade_step"))
	assert.Equal(t, []string{"valid_from"}, columns("idx_salaries_valid_from"))
}

func TestMissingTableIsStorageUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "empty.db"), false)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.TableNames(ctx)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)

	_, err = store.Cell(ctx, "TV-L", "E 1", 1)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	assert.False(t, errors.Is(err, core.ErrNotFound))
}

func TestQueryErrorMapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := &Store{sqlDB: db}

	mock.ExpectQuery("SELECT DISTINCT table_name FROM salaries").
		WillReturnError(errors.New("SQL logic error: no such table: salaries (1)"))
	_, err = store.TableNames(context.Background())
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)

	mock.ExpectQuery("SELECT DISTINCT grade FROM salaries").
		WillReturnError(errors.New("disk I/O error"))
	_, err = store.Grades(context.Background(), "TV-L")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrStorageUnavailable))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTableRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := &Store{sqlDB: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM salaries").WithArgs("TV-L").WillReturnResult(sqlmock.NewResult(0, 4))
	prep := mock.ExpectPrepare("INSERT INTO salaries")
	prep.ExpectExec().WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = store.ReplaceTable(context.Background(), sampleBatch("b1", "TV-L", 4), sampleCells("TV-L"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
