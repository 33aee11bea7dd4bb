package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/attribution"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/ingest"
	"github.com/sells-group/lift-cli/internal/metrics"
	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/report"
)

var attributeCmd = &cobra.Command{
	Use:   "attribute",
	Short: "Estimate TikTok Shop-driven Amazon sales per brand",
	Long: "Reads a brand-month table, runs every selected attribution model for every brand and " +
		"prints one record per brand and model. Models are never merged.",
	RunE: runAttribute,
}

func runAttribute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := zap.L().With(zap.String("command", "attribute"))

	c := *cfg
	c.Engine = applyEngineOverrides(cmd, c.Engine)
	c.Baseline = applyBaselineOverrides(cmd, c.Baseline)
	if err := c.Validate("attribute"); err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	var floor model.Confidence
	if v, _ := cmd.Flags().GetString("min-confidence"); v != "" {
		if floor, err = model.ParseConfidence(v); err != nil {
			return eris.Wrap(err, "attribute: --min-confidence")
		}
	}
	outPath, _ := cmd.Flags().GetString("output")
	if format == report.FormatXLSX && (outPath == "" || outPath == "-") {
		return eris.New("attribute: --format xlsx requires --output")
	}

	input, _ := cmd.Flags().GetString("input")
	p, err := ingest.ReadFile(ctx, input, ingestOptions(cmd))
	if err != nil {
		return err
	}

	m := metrics.New()
	loader, closeBaseline, err := openBaseline(ctx, c.Baseline)
	if err != nil {
		return err
	}
	defer closeBaseline()
	src, err := resolveSource(ctx, loader, c.Baseline, p, m)
	if err != nil {
		return err
	}

	engine, err := attribution.NewEngine(c.Engine, src)
	if err != nil {
		return err
	}
	start := time.Now()
	results, err := engine.Run(ctx, p)
	if err != nil {
		return eris.Wrap(err, "attribute: run")
	}
	m.ObserveRun(len(p.Series), results, time.Since(start))
	if err := m.WriteTextfile(c.Metrics.Textfile); err != nil {
		log.Warn("failed to write metrics textfile", zap.Error(err))
	}

	results = report.FilterConfidence(results, floor)
	env := report.NewEnvelope(results, engine.Models(), c.Engine, time.Now())
	out, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}
	if err := report.Render(out, format, env); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return eris.Wrap(err, "attribute: close output")
	}

	log.Info("attribution complete",
		zap.String("run_id", env.RunID),
		zap.Int("brands", len(p.Series)),
		zap.Int("results", len(results)),
		zap.String("format", string(format)),
	)
	return nil
}

// applyEngineOverrides applies CLI flags on top of the configured tunables.
func applyEngineOverrides(cmd *cobra.Command, base config.EngineConfig) config.EngineConfig {
	c := base

	if v, _ := cmd.Flags().GetString("models"); v != "" {
		c.Models = splitAndTrim(v)
	}
	if v, _ := cmd.Flags().GetInt("window"); v > 0 {
		c.Rolling.Window = v
	}
	if v, _ := cmd.Flags().GetFloat64("corr-cap"); v > 0 {
		c.Correlation.CapMultiplier = v
	}
	if v, _ := cmd.Flags().GetFloat64("yoy-cap"); v > 0 {
		c.YoY.CapMultiplier = v
	}
	if cmd.Flags().Changed("halo-rate") {
		c.YoY.HaloRate, _ = cmd.Flags().GetFloat64("halo-rate")
	}
	if v, _ := cmd.Flags().GetFloat64("aov"); v > 0 {
		c.Funnel.AOV = v
	}
	if cmd.Flags().Changed("browse-rate") {
		c.Funnel.BrowseRate, _ = cmd.Flags().GetFloat64("browse-rate")
	}
	if cmd.Flags().Changed("recall-rate") {
		c.Funnel.RecallRate, _ = cmd.Flags().GetFloat64("recall-rate")
	}
	if cmd.Flags().Changed("conversion-rate") {
		c.Funnel.ConversionRate, _ = cmd.Flags().GetFloat64("conversion-rate")
	}

	return c
}

// applyBaselineOverrides applies --baseline-* flags.
func applyBaselineOverrides(cmd *cobra.Command, base config.BaselineConfig) config.BaselineConfig {
	c := base
	if v, _ := cmd.Flags().GetString("baseline-driver"); v != "" {
		c.Driver = v
	}
	if v, _ := cmd.Flags().GetString("baseline-path"); v != "" {
		c.Path = v
	}
	if cmd.Flags().Changed("self-history") {
		c.SelfHistory, _ = cmd.Flags().GetBool("self-history")
	}
	return c
}

func ingestOptions(cmd *cobra.Command) ingest.Options {
	sheet, _ := cmd.Flags().GetString("sheet")
	enc, _ := cmd.Flags().GetString("encoding")
	return ingest.Options{Sheet: sheet, Encoding: enc}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "path to the brand-month table (.csv or .xlsx, required)")
	cmd.Flags().String("sheet", "", "XLSX sheet name (default first sheet)")
	cmd.Flags().String("encoding", "", "CSV charset, e.g. windows-1252 (default utf-8)")
	cmd.Flags().String("output", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("input")
}

func addAttributeFlags(cmd *cobra.Command) {
	addInputFlags(cmd)
	f := cmd.Flags()
	f.String("models", "", "comma-separated models: correlation, funnel, yoy, rolling (default all)")
	f.String("format", "table", "output format: table, csv, json, xlsx")
	f.String("min-confidence", "", "drop labeled results below this confidence: HIGH, MEDIUM, LOW, WEAK")
	f.Int("window", 0, "rolling baseline window in months, 2-12")
	f.Float64("corr-cap", 0, "correlation cap multiplier of latest TTS GMV, 2-8")
	f.Float64("yoy-cap", 0, "YoY cap multiplier of annual TTS GMV")
	f.Float64("halo-rate", 0, "YoY ad-halo rate, 0-1")
	f.Float64("aov", 0, "funnel Amazon average order value")
	f.Float64("browse-rate", 0, "funnel non-buyer browse-to-Amazon rate, 0-1")
	f.Float64("recall-rate", 0, "funnel impression-only recall rate, 0-1")
	f.Float64("conversion-rate", 0, "funnel Amazon conversion rate, 0-1")
	f.String("baseline-driver", "", "prior-year table source: none, yaml, sqlite, postgres")
	f.String("baseline-path", "", "prior-year YAML file or SQLite database")
	f.Bool("self-history", true, "use the input's own prior-year months when the table has none")
}

func init() {
	addAttributeFlags(attributeCmd)
	rootCmd.AddCommand(attributeCmd)
}
