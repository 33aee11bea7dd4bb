package attribution

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// RollingModel credits the latest month's positive lift over the rolling
// baseline, capped at a multiple of that month's TTS GMV.
type RollingModel struct {
	p config.RollingConfig
}

// NewRollingModel creates a rolling lift model.
func NewRollingModel(p config.RollingConfig) *RollingModel {
	return &RollingModel{p: p}
}

// Name implements Model.
func (m *RollingModel) Name() string { return ModelRolling }

// Estimate implements Model.
func (m *RollingModel) Estimate(s *model.BrandSeries) (model.AttributionResult, error) {
	res := model.AttributionResult{Brand: s.Brand, Model: ModelRolling}
	points := baseline.Lift(s, m.p.Window)
	if len(points) == 0 {
		res.Confidence = model.ConfidenceInsufficient
		res.Notes = append(res.Notes, "empty series")
		return res, nil
	}
	last := points[len(points)-1]
	res.Period = last.Month.String()

	res.Confidence = grade(rollingLadder, signals{
		ttsActive:     last.TTSGMV > 0,
		enoughHistory: last.MonthsOfHistory >= m.p.Window,
		negativeLift:  last.Lift < 0,
		eventNoted:    last.Event != "",
	})
	res.ApplyCap(math.Max(0, last.Lift), last.TTSGMV*m.p.CapMultiplier)

	res.Diagnostics = map[string]float64{
		"actual":                  last.Actual,
		"baseline":                last.Baseline,
		"lift":                    last.Lift,
		"lift_pct":                last.LiftPct,
		"lift_per_tts_dollar":     last.LiftPerTTSDollar,
		"lift_per_1k_impressions": last.LiftPer1KImpressions,
		"lift_per_1k_visitors":    last.LiftPer1KVisitors,
		"months_of_history":       float64(last.MonthsOfHistory),
		"window":                  float64(m.p.Window),
	}
	if last.Event != "" {
		res.Notes = append(res.Notes, "event: "+last.Event)
	}

	zap.L().Debug("attribution: rolling estimate",
		zap.String("brand", string(s.Brand)),
		zap.Float64("lift", last.Lift),
		zap.String("confidence", string(res.Confidence)),
	)
	return res, nil
}
