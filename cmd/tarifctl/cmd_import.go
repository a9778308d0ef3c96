package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tarif/internal/cache"
	"github.com/JonMunkholm/tarif/internal/core"
)

// importFlags are the per-file normalization options shared by import and normalize.
type importFlags struct {
	table       string
	region      string
	validFrom   string
	encoding    string
	delimiter   string
	gradeColumn string
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "table name, e.g. TV-L or TVöD")
	cmd.Flags().StringVar(&f.region, "region", "", "region stored on every cell (default from profile or IMPORT_REGION)")
	cmd.Flags().StringVar(&f.validFrom, "valid-from", "", "validity date YYYY-MM-DD (default from profile or IMPORT_VALID_FROM)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "source charset: utf-8, windows-1252, iso-8859-1, iso-8859-15")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", `field separator: a character, "tab", "semicolon" or "comma"`)
	cmd.Flags().StringVar(&f.gradeColumn, "grade-column", "", "header of the Entgeltgruppe column")
}

func (f *importFlags) options() (core.NormalizeOptions, error) {
	delim, err := core.ParseDelimiter(f.delimiter)
	if err != nil {
		return core.NormalizeOptions{}, err
	}
	return core.NormalizeOptions{
		TableName:   f.table,
		GradeColumn: f.gradeColumn,
		Delimiter:   delim,
		Region:      f.region,
		ValidFrom:   f.validFrom,
		Encoding:    f.encoding,
	}, nil
}

func (a *app) importCmd() *cobra.Command {
	var flags importFlags
	var manifest string

	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Normalize a salary table and replace it in the store",
		Long: `Reads a wide CSV (one row per Entgeltgruppe, one column per Stufe),
normalizes it and replaces every stored row of the table in one transaction.

Examples:
  tarifctl import Entgelttabelle_raw/TV-L.csv --table TV-L
  tarifctl import tvoed.csv --table TVöD --valid-from 2025-04-01 --encoding windows-1252
  tarifctl import --manifest imports.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case manifest != "" && len(args) > 0:
				return errors.New("pass either FILE or --manifest, not both")
			case manifest == "" && len(args) == 0:
				return errors.New("FILE or --manifest is required")
			case manifest == "" && flags.table == "":
				return errors.New("--table is required when importing a single file")
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer store.Close()

			importer := core.NewImporter(store, a.invalidator(ctx))
			defaults, err := a.importDefaults()
			if err != nil {
				return err
			}
			importer.SetDefaults(defaults)

			var results []*core.ImportResult
			if manifest != "" {
				m, err := core.LoadManifest(manifest)
				if err != nil {
					return err
				}
				results, err = importer.ImportManifest(ctx, m)
				a.printImportResults(results)
				return err
			}

			opts, err := flags.options()
			if err != nil {
				return err
			}
			res, err := importer.ImportFile(ctx, args[0], opts)
			if err != nil {
				return err
			}
			a.printImportResults(append(results, res))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML manifest listing several files to import")
	return cmd
}

// invalidator connects the lookup cache when REDIS_URL is set so a re-import
// drops stale entries. Returns nil when no cache is configured or reachable.
func (a *app) invalidator(ctx context.Context) core.Invalidator {
	if a.cfg.Cache.RedisURL == "" {
		return nil
	}
	rdb, err := cache.Connect(ctx, a.cfg.Cache)
	if err != nil {
		slog.Warn("redis unavailable, cache not invalidated", "error", err)
		return nil
	}
	return cache.NewReader(nil, rdb, a.cfg.Cache.TTL, a.cfg.Cache.Prefix)
}

func (a *app) printImportResults(results []*core.ImportResult) {
	if a.jsonOut {
		batches := make([]core.ImportBatch, 0, len(results))
		for _, r := range results {
			batches = append(batches, r.Batch)
		}
		a.printJSON(batches)
		return
	}
	for _, r := range results {
		fmt.Fprintf(a.out, "imported %s: %d cells from %s (dropped %d, skipped rows %d) id=%s\n",
			r.Batch.TableName, r.Batch.RowCount, r.Batch.Source,
			r.Stats.DroppedCells, r.Stats.SkippedRows, r.Batch.ID)
	}
}

func (a *app) normalizeCmd() *cobra.Command {
	var flags importFlags
	var output string

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Write the long-form CSV of a salary table without touching the store",
		Long: `Normalizes FILE and writes one row per cell with the columns
Entgeltgruppe, Stufe, Salary, valid_from, region, table_name.

Example:
  tarifctl normalize TV-L.csv --table TV-L -o TV-L_long.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.table == "" {
				return errors.New("--table is required")
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			defaults, err := a.importDefaults()
			if err != nil {
				return err
			}
			opts = core.ResolveOptions(opts, defaults)

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			cells, stats, err := core.Normalize(in, opts)
			if err != nil {
				return err
			}

			out := a.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := core.WriteLongCSV(out, cells); err != nil {
				return err
			}
			slog.Info("normalized salary table",
				"table", opts.TableName,
				"cells", stats.Cells,
				"dropped_cells", stats.DroppedCells,
				"skipped_rows", stats.SkippedRows,
			)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
