package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/model"
)

var resultColumns = []string{
	"brand", "model", "period", "confidence", "attributed_dollars", "raw_estimate",
	"cap_value", "capped", "incremental_page_views", "incremental_units", "notes",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// resultRow flattens r; diagnostic columns follow the fixed ones in keys order.
func resultRow(r model.AttributionResult, keys []string) []string {
	row := []string{
		string(r.Brand),
		r.Model,
		r.Period,
		string(r.Confidence),
		formatFloat(r.AttributedDollars),
		formatFloat(r.RawEstimate),
		formatFloat(r.CapValue),
		strconv.FormatBool(r.Capped),
		formatFloat(r.IncrementalPageViews),
		formatFloat(r.IncrementalUnits),
		strings.Join(r.Notes, "; "),
	}
	for _, k := range keys {
		v, ok := r.Diagnostics[k]
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, formatFloat(v))
	}
	return row
}

func renderCSV(out io.Writer, results []model.AttributionResult) error {
	keys := diagnosticKeys(results)
	w := csv.NewWriter(out)

	header := append([]string{}, resultColumns...)
	for _, k := range keys {
		header = append(header, "diag_"+k)
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range results {
		if err := w.Write(resultRow(r, keys)); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// BrandLift pairs a brand with its rolling lift detail.
type BrandLift struct {
	Brand  model.BrandKey       `json:"brand"`
	Points []baseline.LiftPoint `json:"months"`
}

// RenderLiftCSV writes rolling lift detail for every brand, one row per month.
func RenderLiftCSV(out io.Writer, lifts []BrandLift) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{
		"brand", "month", "amz_sales", "baseline", "lift", "lift_pct", "tts_gmv",
		"lift_per_tts_dollar", "lift_per_1k_impressions", "lift_per_1k_visitors",
		"months_of_history", "event",
	}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, bl := range lifts {
		for _, p := range bl.Points {
			if err := w.Write([]string{
				string(bl.Brand),
				p.Month.String(),
				formatFloat(p.Actual),
				formatFloat(p.Baseline),
				formatFloat(p.Lift),
				formatFloat(p.LiftPct),
				formatFloat(p.TTSGMV),
				formatFloat(p.LiftPerTTSDollar),
				formatFloat(p.LiftPer1KImpressions),
				formatFloat(p.LiftPer1KVisitors),
				strconv.Itoa(p.MonthsOfHistory),
				p.Event,
			}); err != nil {
				return eris.Wrap(err, "report: write csv row")
			}
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// RenderSummaryCSV writes one row per brand summary.
func RenderSummaryCSV(out io.Writer, summaries []baseline.BrandSummary) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{
		"brand", "months_tracked", "total_amazon_sales", "total_baseline_sales", "total_lift",
		"total_tts_gmv", "total_impressions", "total_visitors", "avg_monthly_lift",
		"avg_lift_pct", "overall_lift_pct", "overall_lift_per_tts_gmv",
	}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, s := range summaries {
		if err := w.Write([]string{
			string(s.Brand),
			strconv.Itoa(s.MonthsTracked),
			formatFloat(s.TotalAmazonSales),
			formatFloat(s.TotalBaselineSales),
			formatFloat(s.TotalLift),
			formatFloat(s.TotalTTSGMV),
			formatFloat(s.TotalImpressions),
			formatFloat(s.TotalVisitors),
			formatFloat(s.AvgMonthlyLift),
			formatFloat(s.AvgLiftPct),
			formatFloat(s.OverallLiftPct),
			formatFloat(s.OverallLiftPerTTSGMV),
		}); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}
