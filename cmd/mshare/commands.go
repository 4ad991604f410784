package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/logging"
	"github.com/JonMunkholm/marketshare/internal/sheet"
)

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <report.xlsx>",
		Short: "List the sheets of a report workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			names, err := sheet.SheetNames(f)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newUnpivotCmd(a *app) *cobra.Command {
	var sheetName, out string

	cmd := &cobra.Command{
		Use:   "unpivot <report.xlsx>",
		Short: "Unpivot a report into long records",
		Long: `Parse the producer, package, brand and holding header rows of a report
sheet and write one record per region and data column.

Header rows come from the LAYOUT_* settings.

Example: mshare unpivot laporan.xlsx --sheet "Okt 2024" -o unpivot.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithRun(cmd.Context(), uuid.NewString())

			grid, err := readGrid(args[0], sheetName)
			if err != nil {
				return err
			}
			p, err := core.NewPipeline(a.cfg.Options())
			if err != nil {
				return err
			}
			records, err := p.Unpivot(ctx, grid)
			if err != nil {
				return err
			}

			if err := writeFile(out, func(f *os.File) error { return sheet.WriteRecords(f, records) }); err != nil {
				return err
			}
			logging.FromContext(ctx).Info("unpivot complete", "records", len(records), "out", out)
			fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Report sheet (default: first sheet)")
	cmd.Flags().StringVarP(&out, "out", "o", "Unpivot.xlsx", "Output workbook")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		sheetName, database, mapping string
		out, historyOut, month       string
		year                         int
		writeBack                    bool
	)

	cmd := &cobra.Command{
		Use:   "run <report.xlsx>",
		Short: "Merge a report into history and compute market-share metrics",
		Long: `Run the full pipeline for one period: unpivot the report, enrich it,
apply the optional brand mapping, merge it into history and compute
market share, growth and lag metrics.

History is read from --database when given, otherwise from the history
store configured by STORE_DRIVER and STORE_URL. The run summary is
printed to stdout as JSON.

Example: mshare run laporan.xlsx --database db.xlsx --mapping map.xlsx --year 2024 --month Oktober`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithRun(cmd.Context(), uuid.NewString())
			logger := logging.FromContext(ctx)

			if writeBack && !a.cfg.Pipeline.ReplaceMode {
				return errors.New("--write-back requires PIPELINE_REPLACE_MODE=true")
			}

			period, err := parsePeriod(year, month)
			if err != nil {
				return err
			}
			grid, err := readGrid(args[0], sheetName)
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx, database == "" || writeBack)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			var history core.Table
			if database != "" {
				history, err = readFile(database, sheet.ReadHistory)
			} else {
				history, err = st.LoadHistory(ctx)
			}
			if err != nil {
				return err
			}

			var m *core.Mapping
			if mapping != "" {
				if m, err = readFile(mapping, sheet.ReadMapping); err != nil {
					return err
				}
			}

			p, err := core.NewPipeline(a.cfg.Options())
			if err != nil {
				return err
			}
			res, err := p.Run(ctx, core.Input{Grid: grid, History: history, Mapping: m, Period: period})
			if err != nil {
				return err
			}
			if res.Warning != nil {
				logger.Warn("run finished with warning", "error", res.Warning, "code", core.MapError(res.Warning).Code)
			}

			if err := writeFile(out, func(f *os.File) error { return sheet.WriteFinal(f, res.Final) }); err != nil {
				return err
			}
			if historyOut != "" {
				if err := writeFile(historyOut, func(f *os.File) error { return sheet.WriteHistory(f, res.Merge.Table) }); err != nil {
					return err
				}
			}
			if writeBack {
				if err := st.ReplacePeriod(ctx, res.Current.Rows); err != nil {
					return fmt.Errorf("history write-back failed: %w", err)
				}
			}

			logger.Info("run complete",
				"period", period.String(),
				"rows", res.Summary.Rows,
				"evicted", res.Merge.Evicted,
				"out", out,
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Summary)
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Report sheet (default: first sheet)")
	cmd.Flags().StringVar(&database, "database", "", "History workbook (.xlsx or .csv); default is the history store")
	cmd.Flags().StringVar(&mapping, "mapping", "", "Brand mapping workbook (.xlsx or .csv)")
	cmd.Flags().IntVar(&year, "year", 0, "Report year")
	cmd.Flags().StringVar(&month, "month", "", "Report month, 1-12 or an Indonesian month name")
	cmd.Flags().StringVarP(&out, "out", "o", sheet.ResultFileName, "Result workbook")
	cmd.Flags().StringVar(&historyOut, "history-out", "", "Also write the merged history table to this workbook")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "Store the period's rows in the history store")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newHistoryImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <database.xlsx>",
		Short: "Load a history workbook into the history store",
		Long: `Read a history table and replace the periods it contains in the
history store. Importing the same workbook twice leaves the store unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tbl, err := readFile(args[0], sheet.ReadHistory)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ReplacePeriod(ctx, tbl.Rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows imported\n", len(tbl.Rows))
			return nil
		},
	}
}

func newHistoryExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history store to a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer st.Close()

			tbl, err := st.LoadHistory(ctx)
			if err != nil {
				return err
			}
			if err := writeFile(out, func(f *os.File) error { return sheet.WriteHistory(f, tbl) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(tbl.Rows), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "Database.xlsx", "Output workbook")
	return cmd
}

func parsePeriod(year int, month string) (core.Period, error) {
	month = strings.TrimSpace(month)
	m, err := strconv.Atoi(month)
	if err != nil {
		m = core.MonthIndexFromName(month)
	}
	p := core.Period{Year: year, Month: m}
	return p, p.Validate()
}

func readGrid(path, sheetName string) (core.RawGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.RawGrid{}, err
	}
	defer f.Close()
	return sheet.ReadGrid(f, sheetName)
}

// readFile opens path and decodes it with read, which picks the format
// from the file name.
func readFile[T any](path string, read func(r io.Reader, name string) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f, path)
}

// writeFile creates path and removes it again if write fails.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
