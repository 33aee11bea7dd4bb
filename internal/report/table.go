package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/model"
)

var printer = message.NewPrinter(language.English)

// Dollars formats v as whole dollars with thousands separators.
func Dollars(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.0f", -v)
	}
	return printer.Sprintf("$%.0f", v)
}

// Count formats v with thousands separators and no decimals.
func Count(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// Percent formats an already-scaled percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func renderTable(out io.Writer, results []model.AttributionResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRAND\tMODEL\tPERIOD\tCONFIDENCE\tATTRIBUTED\tCAP\tCAPPED\tINC_PV\tINC_UNITS\tNOTES")
	_, _ = fmt.Fprintln(w, "-----\t-----\t------\t----------\t----------\t---\t------\t------\t---------\t-----")

	for _, r := range results {
		capped := ""
		if r.Capped {
			capped = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Brand,
			r.Model,
			r.Period,
			confidenceLabel(r.Confidence),
			Dollars(r.AttributedDollars),
			Dollars(r.CapValue),
			capped,
			Count(r.IncrementalPageViews),
			Count(r.IncrementalUnits),
			strings.Join(r.Notes, "; "),
		)
	}
	return w.Flush()
}

// RenderLift writes one brand's per-month rolling lift detail as a table.
func RenderLift(out io.Writer, brand model.BrandKey, points []baseline.LiftPoint) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\n", brand)
	_, _ = fmt.Fprintln(w, "MONTH\tAMAZON\tBASELINE\tLIFT\tLIFT_%\tTTS_GMV\tLIFT/$TTS\tLIFT/1K_IMPR\tEVENT")
	for _, p := range points {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			p.Month,
			Dollars(p.Actual),
			Dollars(p.Baseline),
			Dollars(p.Lift),
			Percent(p.LiftPct),
			Dollars(p.TTSGMV),
			p.LiftPerTTSDollar,
			p.LiftPer1KImpressions,
			p.Event,
		)
	}
	return w.Flush()
}

// RenderSummary writes the brand summary table.
func RenderSummary(out io.Writer, summaries []baseline.BrandSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRAND\tMONTHS\tAMAZON\tBASELINE\tLIFT\tLIFT_%\tTTS_GMV\tLIFT/$TTS")
	_, _ = fmt.Fprintln(w, "-----\t------\t------\t--------\t----\t------\t-------\t---------")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%.2f\n",
			s.Brand,
			s.MonthsTracked,
			Dollars(s.TotalAmazonSales),
			Dollars(s.TotalBaselineSales),
			Dollars(s.TotalLift),
			Percent(s.OverallLiftPct),
			Dollars(s.TotalTTSGMV),
			s.OverallLiftPerTTSGMV,
		)
	}
	return w.Flush()
}
