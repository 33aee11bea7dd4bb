package baseline

import (
	"sort"

	"github.com/sells-group/lift-cli/internal/model"
)

// BrandSummary aggregates rolling-baseline lift over a brand's whole series.
type BrandSummary struct {
	Brand                model.BrandKey `json:"brand"`
	TotalAmazonSales     float64        `json:"total_amazon_sales"`
	TotalBaselineSales   float64        `json:"total_baseline_sales"`
	TotalLift            float64        `json:"total_lift"`
	TotalTTSGMV          float64        `json:"total_tts_gmv"`
	TotalImpressions     float64        `json:"total_impressions"`
	TotalVisitors        float64        `json:"total_visitors"`
	MonthsTracked        int            `json:"months_tracked"`
	AvgMonthlyLift       float64        `json:"avg_monthly_lift"`
	AvgLiftPct           float64        `json:"avg_lift_pct"`
	OverallLiftPct       float64        `json:"overall_lift_pct"`
	OverallLiftPerTTSGMV float64        `json:"overall_lift_per_tts_gmv"`
}

// Summarize builds one summary per brand, ordered by total lift descending.
// Brands with equal lift keep portfolio order.
func Summarize(p *model.Portfolio, window int) []BrandSummary {
	out := make([]BrandSummary, 0, len(p.Series))
	for i := range p.Series {
		s := &p.Series[i]
		points := Lift(s, window)

		bs := BrandSummary{Brand: s.Brand, MonthsTracked: len(points)}
		var pctSum float64
		for j, pt := range points {
			rec := s.Records[j]
			bs.TotalAmazonSales += pt.Actual
			bs.TotalBaselineSales += pt.Baseline
			bs.TotalLift += pt.Lift
			bs.TotalTTSGMV += rec.TTSGMV
			bs.TotalImpressions += rec.ContentImpressions
			bs.TotalVisitors += rec.ContentVisitors
			pctSum += pt.LiftPct
		}
		if n := float64(len(points)); n > 0 {
			bs.AvgMonthlyLift = bs.TotalLift / n
			bs.AvgLiftPct = pctSum / n
		}
		bs.OverallLiftPct = safeDiv(bs.TotalLift, bs.TotalBaselineSales) * 100
		bs.OverallLiftPerTTSGMV = safeDiv(bs.TotalLift, bs.TotalTTSGMV)
		out = append(out, bs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalLift > out[j].TotalLift
	})
	return out
}
