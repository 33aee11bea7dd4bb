package attribution

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// hypothesis is one alignment of TTS against an Amazon series.
type hypothesis struct {
	name    string
	lag     int  // months TTS leads Amazon
	organic bool // organic instead of total sales
}

// hypotheses in declaration order; ties go to the earlier entry.
var hypotheses = []hypothesis{
	{name: "same_month_total"},
	{name: "same_month_organic", organic: true},
	{name: "lag1_total", lag: 1},
	{name: "lag1_organic", lag: 1, organic: true},
}

// CorrelationFit is the outcome of testing every alignment hypothesis.
type CorrelationFit struct {
	ActiveMonths int
	Sufficient   bool               // enough active TTS months to correlate
	Found        bool               // at least one hypothesis was computable
	Best         string             // winning hypothesis name
	R            float64            // signed r of the winning hypothesis
	Lag          int                // lag of the winning hypothesis
	Coefficients map[string]float64 // r per computable hypothesis
}

// Correlate tests each hypothesis over index-aligned series and keeps the one
// with the largest |r|. Constant series are skipped. Mismatched lengths
// violate the input contract and fail fast.
func Correlate(tts, total, organic []float64, minActiveMonths int) (CorrelationFit, error) {
	if len(tts) != len(total) || len(tts) != len(organic) {
		return CorrelationFit{}, eris.Wrapf(model.ErrMisaligned,
			"attribution: series lengths differ (tts=%d total=%d organic=%d)", len(tts), len(total), len(organic))
	}

	fit := CorrelationFit{ActiveMonths: countNonZero(tts)}
	if fit.ActiveMonths < minActiveMonths {
		return fit, nil
	}
	fit.Sufficient = true
	fit.Coefficients = make(map[string]float64, len(hypotheses))

	n := len(tts)
	for _, h := range hypotheses {
		if h.lag >= n {
			continue
		}
		amz := total
		if h.organic {
			amz = organic
		}
		r, ok := pearson(tts[:n-h.lag], amz[h.lag:])
		if !ok {
			continue
		}
		fit.Coefficients[h.name] = r
		if !fit.Found || math.Abs(r) > math.Abs(fit.R) {
			fit.Found = true
			fit.Best = h.name
			fit.R = r
			fit.Lag = h.lag
		}
	}
	return fit, nil
}

// CorrelationModel maps the strongest TTS↔Amazon correlation to a discrete
// attribution rate applied to the latest month's Amazon sales.
type CorrelationModel struct {
	p config.CorrelationConfig
}

// NewCorrelationModel creates a correlation model.
func NewCorrelationModel(p config.CorrelationConfig) *CorrelationModel {
	return &CorrelationModel{p: p}
}

// Name implements Model.
func (m *CorrelationModel) Name() string { return ModelCorrelation }

// Estimate implements Model.
func (m *CorrelationModel) Estimate(s *model.BrandSeries) (model.AttributionResult, error) {
	res := model.AttributionResult{Brand: s.Brand, Model: ModelCorrelation}
	latest, ok := s.Latest()
	if !ok {
		res.Confidence = model.ConfidenceInsufficient
		res.Notes = append(res.Notes, "empty series")
		return res, nil
	}
	res.Period = latest.Month.String()

	fit, err := Correlate(s.TTSGMV(), s.AmazonSales(), s.Organic(), m.p.MinActiveMonths)
	if err != nil {
		return res, eris.Wrapf(err, "attribution: correlation for %s", s.Brand)
	}

	capValue := latest.TTSGMV * m.p.CapMultiplier
	res.Diagnostics = map[string]float64{
		"active_months":  float64(fit.ActiveMonths),
		"latest_tts_gmv": latest.TTSGMV,
		"latest_amz":     latest.AmazonSales,
		"cap_multiplier": m.p.CapMultiplier,
	}

	if !fit.Sufficient {
		res.Confidence = model.ConfidenceInsufficient
		res.ApplyCap(0, capValue)
		res.Notes = append(res.Notes, "fewer than minimum active TTS months")
		return res, nil
	}

	strength := math.Abs(fit.R)
	tier := Classify(strength, CorrelationTiers)
	res.Confidence = tier.Label
	res.Diagnostics["r_best"] = fit.R
	res.Diagnostics["abs_r"] = strength
	res.Diagnostics["rate"] = tier.Rate
	res.Diagnostics["lag_months"] = float64(fit.Lag)
	for name, r := range fit.Coefficients {
		res.Diagnostics["r_"+name] = r
	}
	if fit.Found {
		res.Notes = append(res.Notes, "best hypothesis: "+fit.Best)
	} else {
		res.Notes = append(res.Notes, "no computable correlation (constant series)")
	}

	var raw float64
	if latest.TTSGMV != 0 && latest.AmazonSales != 0 {
		raw = latest.AmazonSales * tier.Rate
	}
	res.ApplyCap(raw, capValue)

	zap.L().Debug("attribution: correlation estimate",
		zap.String("brand", string(s.Brand)),
		zap.String("hypothesis", fit.Best),
		zap.Float64("r", fit.R),
		zap.String("confidence", string(res.Confidence)),
		zap.Float64("attributed", res.AttributedDollars),
		zap.Bool("capped", res.Capped),
	)
	return res, nil
}
