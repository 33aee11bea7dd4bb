package attribution

import (
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// FunnelBreakdown traces one month through both conversion paths.
type FunnelBreakdown struct {
	Month        model.Month `json:"month"`
	Buyers       float64     `json:"buyers"`
	BuyRate      float64     `json:"buy_rate"`
	NonBuyers    float64     `json:"non_buyers"`
	PathAVisits  float64     `json:"path_a_visits"`
	PathADollars float64     `json:"path_a_dollars"`
	ViewOnly     float64     `json:"view_only"`
	PathBVisits  float64     `json:"path_b_visits"`
	PathBDollars float64     `json:"path_b_dollars"`
	Total        float64     `json:"total"`
	Ceiling      float64     `json:"ceiling"`
	Clamped      bool        `json:"clamped"`
}

// Funnel runs one month through the two paths:
//
//	A: visitors who did not buy on TTS browse to Amazon and convert.
//	B: viewers who never visited recall the product later on Amazon.
//
// Buyers are clamped to MaxBuyRate of visitors. Ceiling is the same
// calculation with zero TTS buyers and bounds Total.
func Funnel(rec model.MonthRecord, p config.FunnelConfig) FunnelBreakdown {
	visitors := max(0, rec.ContentVisitors)
	impressions := max(0, rec.ContentImpressions)
	dollarsPerVisit := p.ConversionRate * p.AOV

	buyers := max(0, safeDiv(rec.TTSGMV, p.AOV))
	clamped := false
	if limit := visitors * p.MaxBuyRate; buyers > limit {
		buyers = limit
		clamped = true
	}
	nonBuyers := visitors - buyers
	viewOnly := max(0, impressions-visitors)

	b := FunnelBreakdown{
		Month:       rec.Month,
		Buyers:      buyers,
		BuyRate:     safeDiv(buyers, visitors),
		NonBuyers:   nonBuyers,
		PathAVisits: nonBuyers * p.BrowseRate,
		ViewOnly:    viewOnly,
		PathBVisits: viewOnly * p.RecallRate,
		Clamped:     clamped,
	}
	b.PathADollars = b.PathAVisits * dollarsPerVisit
	b.PathBDollars = b.PathBVisits * dollarsPerVisit
	b.Total = b.PathADollars + b.PathBDollars
	// Same operation order as Total so Total <= Ceiling holds exactly.
	b.Ceiling = (visitors*p.BrowseRate)*dollarsPerVisit + b.PathBDollars
	return b
}

// FunnelSeries applies Funnel to every month of s.
func FunnelSeries(s *model.BrandSeries, p config.FunnelConfig) []FunnelBreakdown {
	out := make([]FunnelBreakdown, len(s.Records))
	for i, r := range s.Records {
		out[i] = Funnel(r, p)
	}
	return out
}

// FunnelModel reports the latest month's funnel estimate. It carries no
// confidence label and needs no history.
type FunnelModel struct {
	p config.FunnelConfig
}

// NewFunnelModel creates a funnel model.
func NewFunnelModel(p config.FunnelConfig) *FunnelModel {
	return &FunnelModel{p: p}
}

// Name implements Model.
func (m *FunnelModel) Name() string { return ModelFunnel }

// Estimate implements Model.
func (m *FunnelModel) Estimate(s *model.BrandSeries) (model.AttributionResult, error) {
	res := model.AttributionResult{Brand: s.Brand, Model: ModelFunnel}
	latest, ok := s.Latest()
	if !ok {
		res.Notes = append(res.Notes, "empty series")
		return res, nil
	}
	res.Period = latest.Month.String()

	b := Funnel(latest, m.p)
	res.ApplyCap(b.Total, b.Ceiling)
	res.Diagnostics = map[string]float64{
		"buyers":         b.Buyers,
		"buy_rate":       b.BuyRate,
		"non_buyers":     b.NonBuyers,
		"path_a_visits":  b.PathAVisits,
		"path_a_dollars": b.PathADollars,
		"view_only":      b.ViewOnly,
		"path_b_visits":  b.PathBVisits,
		"path_b_dollars": b.PathBDollars,
	}
	if b.Clamped {
		res.Notes = append(res.Notes, "buy rate clamped")
	}

	zap.L().Debug("attribution: funnel estimate",
		zap.String("brand", string(s.Brand)),
		zap.Float64("path_a", b.PathADollars),
		zap.Float64("path_b", b.PathBDollars),
	)
	return res, nil
}
