package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/attribution"
	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/ingest"
	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/report"
)

var liftCmd = &cobra.Command{
	Use:   "lift",
	Short: "Show month-by-month lift over the rolling baseline",
	Long: "Computes each brand's rolling-average baseline and prints the lift of every month, " +
		"or one summary row per brand with --summary.",
	RunE: runLift,
}

func runLift(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	window, _ := cmd.Flags().GetInt("window")
	if window == 0 {
		window = cfg.Engine.Rolling.Window
	}
	if window < baseline.MinWindow || window > baseline.MaxWindow {
		return eris.Errorf("lift: --window must be between %d and %d, got %d",
			baseline.MinWindow, baseline.MaxWindow, window)
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX {
		return eris.New("lift: xlsx output is only available for attribute")
	}

	input, _ := cmd.Flags().GetString("input")
	p, err := ingest.ReadFile(ctx, input, ingestOptions(cmd))
	if err != nil {
		return err
	}
	if brand, _ := cmd.Flags().GetString("brand"); brand != "" {
		p, err = filterBrand(p, brand)
		if err != nil {
			return err
		}
	}

	outPath, _ := cmd.Flags().GetString("output")
	out, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}

	summary, _ := cmd.Flags().GetBool("summary")
	funnel, _ := cmd.Flags().GetBool("funnel")
	switch {
	case summary && funnel:
		err = eris.New("lift: --summary and --funnel are mutually exclusive")
	case summary:
		err = writeSummary(out, format, baseline.Summarize(p, window))
	case funnel:
		err = writeFunnel(out, format, p, cfg.Engine.Funnel)
	default:
		err = writeLift(out, format, p, window)
	}
	if err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return eris.Wrap(err, "lift: close output")
	}

	zap.L().Info("lift complete",
		zap.Int("brands", len(p.Series)),
		zap.Int("window", window),
		zap.Bool("summary", summary),
		zap.Bool("funnel", funnel),
	)
	return nil
}

func writeSummary(out io.Writer, f report.Format, summaries []baseline.BrandSummary) error {
	switch f {
	case report.FormatCSV:
		return report.RenderSummaryCSV(out, summaries)
	case report.FormatJSON:
		return report.RenderJSON(out, summaries)
	default:
		return report.RenderSummary(out, summaries)
	}
}

func writeLift(out io.Writer, f report.Format, p *model.Portfolio, window int) error {
	lifts := make([]report.BrandLift, 0, len(p.Series))
	for i := range p.Series {
		s := &p.Series[i]
		lifts = append(lifts, report.BrandLift{Brand: s.Brand, Points: baseline.Lift(s, window)})
	}

	switch f {
	case report.FormatCSV:
		return report.RenderLiftCSV(out, lifts)
	case report.FormatJSON:
		return report.RenderJSON(out, lifts)
	default:
		for _, bl := range lifts {
			if err := report.RenderLift(out, bl.Brand, bl.Points); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeFunnel(out io.Writer, f report.Format, p *model.Portfolio, params config.FunnelConfig) error {
	funnels := make([]report.BrandFunnel, 0, len(p.Series))
	for i := range p.Series {
		s := &p.Series[i]
		funnels = append(funnels, report.BrandFunnel{Brand: s.Brand, Months: attribution.FunnelSeries(s, params)})
	}

	switch f {
	case report.FormatCSV:
		return report.RenderFunnelCSV(out, funnels)
	case report.FormatJSON:
		return report.RenderJSON(out, funnels)
	default:
		for _, bf := range funnels {
			if err := report.RenderFunnel(out, bf); err != nil {
				return err
			}
		}
		return nil
	}
}

// filterBrand keeps the one brand whose key matches name, ignoring case
// and trademark symbols.
func filterBrand(p *model.Portfolio, name string) (*model.Portfolio, error) {
	r := ingest.NewBrandResolver()
	for _, s := range p.Series {
		r.Resolve(string(s.Brand))
	}
	key := r.Resolve(name)
	for _, s := range p.Series {
		if s.Brand == key {
			return &model.Portfolio{Series: []model.BrandSeries{s}}, nil
		}
	}
	return nil, eris.Errorf("lift: brand %q not found in input", name)
}

func addLiftFlags(cmd *cobra.Command) {
	addInputFlags(cmd)
	f := cmd.Flags()
	f.Int("window", 0, "rolling baseline window in months, 2-12 (default from config)")
	f.Bool("summary", false, "print one summary row per brand")
	f.Bool("funnel", false, "print the per-month funnel path breakdown instead of lift")
	f.String("brand", "", "only show this brand")
	f.String("format", "table", "output format: table, csv, json")
}

func init() {
	addLiftFlags(liftCmd)
	rootCmd.AddCommand(liftCmd)
}
