package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/baseline"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage the prior-year reference table",
}

var (
	baselineFile   string
	baselineDB     string
	baselineDryRun bool
	baselineYear   int
)

var baselineImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML reference table into SQLite",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		t, err := (&baseline.YAMLLoader{Path: baselineFile}).Load(ctx, baselineYear)
		if err != nil {
			return err
		}
		printCoverage(cmd.OutOrStdout(), t)

		if baselineDryRun {
			zap.L().Info("dry run, nothing imported", zap.Int("rows", t.Len()))
			return nil
		}
		if baselineDB == "" {
			return eris.New("baseline import: --db is required unless --dry-run")
		}

		st, err := baseline.NewSQLite(baselineDB)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		n, err := st.Import(ctx, t)
		if err != nil {
			return eris.Wrap(err, "baseline import")
		}

		zap.L().Info("baseline import complete",
			zap.Int("rows", n),
			zap.String("file", baselineFile),
			zap.String("db", baselineDB),
		)
		return nil
	},
}

var baselineExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the SQLite reference table as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := baseline.NewSQLite(baselineDB)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		t, err := st.Load(ctx, baselineYear)
		if err != nil {
			return err
		}
		data, err := baseline.MarshalYAML(t)
		if err != nil {
			return err
		}

		if baselineFile == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return eris.Wrap(err, "baseline export: write")
		}
		if err := os.WriteFile(baselineFile, data, 0o644); err != nil {
			return eris.Wrapf(err, "baseline export: write %s", baselineFile)
		}
		zap.L().Info("baseline export complete",
			zap.Int("rows", t.Len()),
			zap.String("file", baselineFile),
		)
		return nil
	},
}

// printCoverage lists the months each brand covers.
func printCoverage(out io.Writer, t *baseline.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRAND\tMONTHS\tFIRST\tLAST")
	_, _ = fmt.Fprintln(w, "-----\t------\t-----\t----")
	for _, b := range t.Brands() {
		months := t.Months(b)
		if len(months) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", b, len(months), months[0], months[len(months)-1])
	}
	_ = w.Flush()
}

func init() {
	baselineImportCmd.Flags().StringVar(&baselineFile, "file", "", "YAML reference file (required)")
	baselineImportCmd.Flags().StringVar(&baselineDB, "db", "", "SQLite database path (required unless --dry-run)")
	baselineImportCmd.Flags().BoolVar(&baselineDryRun, "dry-run", false, "parse and report coverage without writing")
	baselineImportCmd.Flags().IntVar(&baselineYear, "year", 0, "only import this calendar year (default all)")
	_ = baselineImportCmd.MarkFlagRequired("file")

	baselineExportCmd.Flags().StringVar(&baselineDB, "db", "", "SQLite database path (required)")
	baselineExportCmd.Flags().StringVar(&baselineFile, "file", "", "output YAML file (default stdout)")
	baselineExportCmd.Flags().IntVar(&baselineYear, "year", 0, "only export this calendar year (default all)")
	_ = baselineExportCmd.MarkFlagRequired("db")

	baselineCmd.AddCommand(baselineImportCmd, baselineExportCmd)
	rootCmd.AddCommand(baselineCmd)
}
