// Command tarifctl imports salary tables and queries the salary store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tarif/internal/config"
	"github.com/JonMunkholm/tarif/internal/core"
	_ "github.com/JonMunkholm/tarif/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/tarif/internal/logging"
	"github.com/JonMunkholm/tarif/internal/storage"
)

// app carries state shared by every subcommand.
type app struct {
	cfg *config.Config
	out io.Writer

	// persistent flag values
	sqlitePath string
	driver     string
	logLevel   string
	jsonOut    bool
}

func main() {
	// Load .env file if it exists; real environment variables win
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing results to out and logs to logOut.
func newRootCmd(out, logOut io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "tarifctl",
		Short: "Import and query TV-L / TVöD salary tables",
		Long: `tarifctl normalizes wide salary tables (one row per Entgeltgruppe,
one column per Stufe) into the salary store and queries them.

Storage and import defaults come from the environment (see .env.example);
the flags below override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if a.sqlitePath != "" {
				cfg.Storage.SQLitePath = a.sqlitePath
			}
			if a.driver != "" {
				cfg.SetDriver(a.driver)
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			slog.SetDefault(logging.New(logOut, cfg.Logging.Level, cfg.Logging.Format))
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.sqlitePath, "db", "", "SQLite database path (overrides SQLITE_PATH)")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver: sqlite or postgres (overrides STORAGE_DRIVER)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		a.importCmd(),
		a.normalizeCmd(),
		a.tablesCmd(),
		a.groupsCmd(),
		a.stepsCmd(),
		a.lookupCmd(),
		a.gridCmd(),
		a.importsCmd(),
	)
	return root
}

// openStore opens the configured store. Imports create the schema.
func (a *app) openStore(ctx context.Context, migrate bool) (core.Store, error) {
	store, err := storage.Open(ctx, a.cfg.Storage, migrate)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Storage.Driver, err)
	}
	return store, nil
}

// withService runs fn with a lookup service over the configured store.
func (a *app) withService(ctx context.Context, fn func(*core.Service) error) error {
	store, err := a.openStore(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(core.NewService(store))
}

// importDefaults converts the IMPORT_* configuration into normalize options.
func (a *app) importDefaults() (core.NormalizeOptions, error) {
	delim, err := core.ParseDelimiter(a.cfg.Import.Delimiter)
	if err != nil {
		return core.NormalizeOptions{}, err
	}
	return core.NormalizeOptions{
		GradeColumn: a.cfg.Import.GradeColumn,
		Delimiter:   delim,
		Region:      a.cfg.Import.Region,
		ValidFrom:   a.cfg.Import.ValidFrom,
		Encoding:    a.cfg.Import.Encoding,
	}, nil
}
