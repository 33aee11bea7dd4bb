// Package attribution estimates how much of a brand's Amazon sales is
// incrementally caused by its TikTok Shop activity. Each estimator is an
// independent Model over the same monthly series; results are never fused.
package attribution

import (
	"errors"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// Model names.
const (
	ModelCorrelation = "correlation"
	ModelFunnel      = "funnel"
	ModelYoY         = "yoy"
	ModelRolling     = "rolling"
)

// ErrInvalidParams is returned for out-of-range tunables or unknown models.
var ErrInvalidParams = errors.New("invalid attribution parameters")

// Model is one attribution strategy. Estimate must be a pure function of the
// series and the model's parameters.
type Model interface {
	Name() string
	Estimate(s *model.BrandSeries) (model.AttributionResult, error)
}

// DefaultParams returns the documented defaults for every tunable.
func DefaultParams() config.EngineConfig {
	return config.EngineConfig{
		Models:      AllModels(),
		Concurrency: 8,
		Rolling: config.RollingConfig{
			Window:        baseline.DefaultWindow,
			CapMultiplier: 4,
		},
		Correlation: config.CorrelationConfig{
			CapMultiplier:   4,
			MinActiveMonths: 3,
		},
		Funnel: config.FunnelConfig{
			BrowseRate:     0.15,
			RecallRate:     0.002,
			ConversionRate: 0.10,
			AOV:            35,
			MaxBuyRate:     0.5,
		},
		YoY: config.YoYConfig{
			CapMultiplier:             5,
			HaloRate:                  0.25,
			MinTTSGMV:                 1000,
			StableAdSpend:             0.20,
			NoBaselineShareCeiling:    0.10,
			NoBaselineIntensityFactor: 10,
		},
	}
}

// AllModels lists every model name in presentation order.
func AllModels() []string {
	return []string{ModelCorrelation, ModelFunnel, ModelYoY, ModelRolling}
}

// New builds the named model. src feeds the YoY model and may be nil.
func New(name string, p config.EngineConfig, src baseline.Source) (Model, error) {
	switch name {
	case ModelCorrelation:
		return NewCorrelationModel(p.Correlation), nil
	case ModelFunnel:
		return NewFunnelModel(p.Funnel), nil
	case ModelYoY:
		return NewYoYModel(p.YoY, src), nil
	case ModelRolling:
		return NewRollingModel(p.Rolling), nil
	default:
		known := AllModels()
		sort.Strings(known)
		return nil, eris.Wrapf(ErrInvalidParams, "attribution: unknown model %q (known: %v)", name, known)
	}
}
