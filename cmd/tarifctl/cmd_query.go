package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/tarif/internal/core"
)

// euro formats amounts the way the source tables print them, e.g. 2.434,49.
var euro = message.NewPrinter(language.German)

func formatEuro(amount float64) string {
	return euro.Sprintf("%.2f", amount)
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *app) printLines(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List stored table names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				tables, err := svc.Tables(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(tables)
					return nil
				}
				a.printLines(tables)
				return nil
			})
		},
	}
}

func (a *app) groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups TABLE",
		Short: "List the Entgeltgruppen of a table in natural order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				groups, err := svc.Groups(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(groups)
					return nil
				}
				a.printLines(groups)
				return nil
			})
		},
	}
}

func (a *app) stepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps TABLE GROUP",
		Short: "List the Stufen of an Entgeltgruppe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				steps, err := svc.Steps(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(steps)
					return nil
				}
				for _, s := range steps {
					fmt.Fprintln(a.out, s)
				}
				return nil
			})
		},
	}
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TABLE GROUP STEP",
		Short: "Print one salary",
		Long: `Prints the salary of one Entgeltgruppe and Stufe.

Example:
  tarifctl lookup TV-L "E 9a" 3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[2])
			if err != nil {
				return core.InvalidParam("step", args[2], "step must be an integer")
			}
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				cell, err := svc.Lookup(cmd.Context(), args[0], args[1], step)
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(cell)
					return nil
				}
				fmt.Fprintf(a.out, "%s %s Stufe %d: %s EUR (gültig ab %s, %s)\n",
					cell.TableName, cell.Grade, cell.Step, formatEuro(cell.Salary), cell.ValidFrom, cell.Region)
				return nil
			})
		},
	}
}

func (a *app) gridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid TABLE",
		Short: "Print a table as an Entgeltgruppe x Stufe grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				grid, err := svc.Grid(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(grid)
					return nil
				}
				return writeGrid(a, grid)
			})
		},
	}
}

func writeGrid(a *app, g core.Grid) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{core.DefaultGradeColumn}
	for _, s := range g.Steps {
		header = append(header, "Stufe "+strconv.Itoa(s))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range g.Rows {
		fields := []string{row.Grade}
		for _, amount := range row.Amounts {
			if amount == nil {
				fields = append(fields, "-")
				continue
			}
			fields = append(fields, formatEuro(*amount))
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t")+"\t")
	}
	return tw.Flush()
}

func (a *app) importsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports",
		Short: "List recorded imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *core.Service) error {
				batches, err := svc.Imports(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOut {
					a.printJSON(batches)
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "IMPORTED\tTABLE\tROWS\tVALID FROM\tREGION\tSOURCE\tID")
				for _, b := range batches {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
						b.ImportedAt.Format("2006-01-02 15:04:05"), b.TableName, b.RowCount,
						b.ValidFrom, b.Region, b.Source, b.ID)
				}
				return tw.Flush()
			})
		},
	}
}
