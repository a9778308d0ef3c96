package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/tarif/internal/logging"
	"github.com/google/uuid"
)

// ImportResult contains the outcome of one import.
type ImportResult struct {
	Batch    ImportBatch
	Stats    NormalizeStats
	Duration time.Duration
}

// Importer normalizes salary tables and loads them into a store.
type Importer struct {
	loader      Loader
	invalidator Invalidator
	defaults    NormalizeOptions
	now         func() time.Time
}

// NewImporter creates an importer. invalidator may be nil when no cache is used.
func NewImporter(loader Loader, invalidator Invalidator) *Importer {
	return &Importer{
		loader:      loader,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// SetDefaults sets the options used for anything neither the caller nor the
// table profile specifies, typically the IMPORT_* configuration.
func (im *Importer) SetDefaults(defaults NormalizeOptions) {
	im.defaults = defaults
}

// ResolveOptions completes opts: the table profile first, then defaults,
// then the built-in defaults.
func ResolveOptions(opts, defaults NormalizeOptions) NormalizeOptions {
	return ApplyProfile(opts).fillFrom(defaults).withDefaults()
}

// Import normalizes src and replaces the stored rows of the table.
// source names the origin (usually a file path) for the import record.
// Nothing is written when normalization fails.
func (im *Importer) Import(ctx context.Context, src io.Reader, source string, opts NormalizeOptions) (*ImportResult, error) {
	start := im.now()
	opts = ResolveOptions(opts, im.defaults)

	logger := logging.WithFields(ctx, "table", opts.TableName, "source", source)

	cells, stats, err := Normalize(src, opts)
	if err != nil {
		logger.Warn("normalization failed", "error", err)
		return nil, fmt.Errorf("normalize %s: %w", source, err)
	}
	// Replacing with nothing would wipe the table.
	if len(cells) == 0 {
		logger.Warn("no salary cells found", "rows", stats.Rows, "dropped", stats.DroppedCells)
		return nil, fmt.Errorf("normalize %s: %w", source,
			&ValidationError{Kind: KindMalformedFile, Message: "no salary cells found"})
	}

	batch := ImportBatch{
		ID:         uuid.New().String(),
		TableName:  opts.TableName,
		Source:     source,
		Region:     opts.Region,
		ValidFrom:  opts.ValidFrom,
		RowCount:   len(cells),
		ImportedAt: start.UTC(),
	}

	if err := im.loader.ReplaceTable(ctx, batch, cells); err != nil {
		logger.Error("load failed", "error", err)
		return nil, fmt.Errorf("load %s: %w", opts.TableName, err)
	}

	if im.invalidator != nil {
		if err := im.invalidator.Invalidate(ctx); err != nil {
			logger.Warn("cache invalidation failed", "error", err)
		}
	}

	result := &ImportResult{
		Batch:    batch,
		Stats:    stats,
		Duration: im.now().Sub(start),
	}
	logger.Info("imported salary table",
		"import_id", batch.ID,
		"rows", len(cells),
		"dropped_cells", stats.DroppedCells,
		"skipped_rows", stats.SkippedRows,
		"bytes", stats.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
