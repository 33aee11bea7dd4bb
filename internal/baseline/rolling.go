// Package baseline builds counterfactual Amazon-sales baselines: a rolling
// average of a brand's own prior months, and a prior-year reference table.
package baseline

import "github.com/sells-group/lift-cli/internal/model"

const (
	// DefaultWindow is the default rolling window in months.
	DefaultWindow = 3
	MinWindow     = 2
	MaxWindow     = 12
)

// Rolling returns a series where each value is the mean of up to window
// strictly prior values. With fewer than window prior months the mean of the
// available ones is used; the first value has no history and equals the
// actual value, so its lift is zero.
func Rolling(actual []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(actual))
	for i := range actual {
		if i == 0 {
			out[0] = actual[0]
			continue
		}
		// Summed fresh per window so no drift accumulates across months.
		lo := max(0, i-window)
		var sum float64
		for _, v := range actual[lo:i] {
			sum += v
		}
		out[i] = sum / float64(i-lo)
	}
	return out
}

// LiftPoint is one month of rolling-baseline lift detail.
type LiftPoint struct {
	Month                model.Month `json:"month"`
	Actual               float64     `json:"actual"`
	Baseline             float64     `json:"baseline"`
	Lift                 float64     `json:"lift"`
	LiftPct              float64     `json:"lift_pct"`
	LiftPerTTSDollar     float64     `json:"lift_per_tts_dollar"`
	LiftPer1KImpressions float64     `json:"lift_per_1k_impressions"`
	LiftPer1KVisitors    float64     `json:"lift_per_1k_visitors"`
	TTSGMV               float64     `json:"tts_gmv"`
	MonthsOfHistory      int         `json:"months_of_history"`
	Event                string      `json:"event,omitempty"`
}

// Lift computes per-month lift of Amazon sales over the rolling baseline,
// with efficiency ratios against TTS GMV and content reach. Zero
// denominators yield zero ratios.
func Lift(s *model.BrandSeries, window int) []LiftPoint {
	actual := s.AmazonSales()
	base := Rolling(actual, window)

	out := make([]LiftPoint, len(actual))
	for i, r := range s.Records {
		lift := actual[i] - base[i]
		out[i] = LiftPoint{
			Month:                r.Month,
			Actual:               actual[i],
			Baseline:             base[i],
			Lift:                 lift,
			LiftPct:              safeDiv(lift, base[i]) * 100,
			LiftPerTTSDollar:     safeDiv(lift, r.TTSGMV),
			LiftPer1KImpressions: safeDiv(lift, r.ContentImpressions/1000),
			LiftPer1KVisitors:    safeDiv(lift, r.ContentVisitors/1000),
			TTSGMV:               r.TTSGMV,
			MonthsOfHistory:      i,
			Event:                r.Event,
		}
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
