package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/attribution"
	"github.com/sells-group/lift-cli/internal/model"
)

// BrandFunnel pairs a brand with its per-month funnel breakdown.
type BrandFunnel struct {
	Brand  model.BrandKey                `json:"brand"`
	Months []attribution.FunnelBreakdown `json:"months"`
}

// RenderFunnel writes one brand's per-month funnel paths as a table.
func RenderFunnel(out io.Writer, bf BrandFunnel) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\n", bf.Brand)
	_, _ = fmt.Fprintln(w, "MONTH\tBUYERS\tBUY_%\tPATH_A\tPATH_B\tTOTAL\tCEILING\tCLAMPED")
	for _, b := range bf.Months {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			b.Month,
			Count(b.Buyers),
			Percent(b.BuyRate*100),
			Dollars(b.PathADollars),
			Dollars(b.PathBDollars),
			Dollars(b.Total),
			Dollars(b.Ceiling),
			b.Clamped,
		)
	}
	return w.Flush()
}

// RenderFunnelCSV writes every brand's funnel breakdown, one row per month.
func RenderFunnelCSV(out io.Writer, funnels []BrandFunnel) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{
		"brand", "month", "buyers", "buy_rate", "non_buyers", "path_a_visits", "path_a_dollars",
		"view_only", "path_b_visits", "path_b_dollars", "total", "ceiling", "clamped",
	}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, bf := range funnels {
		for _, b := range bf.Months {
			clamped := "false"
			if b.Clamped {
				clamped = "true"
			}
			if err := w.Write([]string{
				string(bf.Brand),
				b.Month.String(),
				formatFloat(b.Buyers),
				formatFloat(b.BuyRate),
				formatFloat(b.NonBuyers),
				formatFloat(b.PathAVisits),
				formatFloat(b.PathADollars),
				formatFloat(b.ViewOnly),
				formatFloat(b.PathBVisits),
				formatFloat(b.PathBDollars),
				formatFloat(b.Total),
				formatFloat(b.Ceiling),
				clamped,
			}); err != nil {
				return eris.Wrap(err, "report: write csv row")
			}
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}
