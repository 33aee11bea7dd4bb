package attribution

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// Signal is the direction of the year-over-year organic movement.
type Signal string

const (
	SignalPositive Signal = "POSITIVE"
	SignalNeutral  Signal = "NEUTRAL"
	SignalNegative Signal = "NEGATIVE"
)

// TTS share ceilings and intensity multipliers per signal.
const (
	PositiveShareCeiling    = 0.50
	PositiveIntensityFactor = 100
	NeutralShareCeiling     = 0.25
	NeutralIntensityFactor  = 50
)

func (s Signal) score() float64 {
	switch s {
	case SignalPositive:
		return 1
	case SignalNegative:
		return -1
	default:
		return 0
	}
}

// YoYTotals aggregates one brand-year against its prior-year reference.
// Comparison sums only cover months with a prior-year record; TTS, organic
// and unit totals cover every current-year month.
type YoYTotals struct {
	Year           int
	Months         int
	MatchedMonths  int
	TTSTotal       float64
	OrganicTotal   float64
	UnitsTotal     float64
	CurOrganic     float64
	PriorOrganic   float64
	CurPageViews   float64
	PriorPageViews float64
	CurAdSpend     float64
	PriorAdSpend   float64
}

// HasBaseline reports whether a usable prior-year organic total exists.
func (t YoYTotals) HasBaseline() bool { return t.PriorOrganic > 0 }

// Totals gathers the latest calendar year of s and its prior-year matches.
// A nil src yields no matches.
func Totals(s *model.BrandSeries, src baseline.Source) YoYTotals {
	latest, ok := s.Latest()
	if !ok {
		return YoYTotals{}
	}
	t := YoYTotals{Year: latest.Month.Year}
	for _, r := range s.Year(t.Year) {
		t.Months++
		t.TTSTotal += r.TTSGMV
		t.OrganicTotal += r.AmazonOrganic
		t.UnitsTotal += r.AmazonUnits
		if src == nil {
			continue
		}
		prior, found := src.Lookup(s.Brand, t.Year-1, r.Month.Month)
		if !found {
			continue
		}
		t.MatchedMonths++
		t.CurOrganic += r.AmazonOrganic
		t.PriorOrganic += prior.AmazonOrganic
		t.CurPageViews += r.AmazonPageViews
		t.PriorPageViews += prior.AmazonPageViews
		t.CurAdSpend += r.AmazonAdSpend
		t.PriorAdSpend += prior.AmazonAdSpend
	}
	return t
}

// YoYModel compares the latest year's organic sales with the prior year,
// removes the part explained by ad-spend growth, and credits TTS with a
// share of the remainder.
type YoYModel struct {
	p   config.YoYConfig
	src baseline.Source
}

// NewYoYModel creates a YoY model reading prior-year values from src.
func NewYoYModel(p config.YoYConfig, src baseline.Source) *YoYModel {
	return &YoYModel{p: p, src: src}
}

// Name implements Model.
func (m *YoYModel) Name() string { return ModelYoY }

// Estimate implements Model.
func (m *YoYModel) Estimate(s *model.BrandSeries) (model.AttributionResult, error) {
	res := model.AttributionResult{Brand: s.Brand, Model: ModelYoY}
	if s.Len() == 0 {
		res.Confidence = model.ConfidenceInsufficient
		res.Notes = append(res.Notes, "empty series")
		return res, nil
	}

	t := Totals(s, m.src)
	res.Period = strconv.Itoa(t.Year)
	capValue := t.TTSTotal * m.p.CapMultiplier
	intensity := safeDiv(t.TTSTotal, t.OrganicTotal)
	res.Diagnostics = map[string]float64{
		"tts_total":      t.TTSTotal,
		"organic_total":  t.OrganicTotal,
		"units_total":    t.UnitsTotal,
		"tts_intensity":  intensity,
		"months":         float64(t.Months),
		"matched_months": float64(t.MatchedMonths),
		"has_baseline":   0,
	}

	switch {
	case t.TTSTotal <= m.p.MinTTSGMV:
		res.Confidence = model.ConfidenceInsufficient
		res.ApplyCap(0, capValue)
		res.Notes = append(res.Notes, "negligible TTS activity")
		return res, nil
	case t.OrganicTotal <= 0:
		res.Confidence = model.ConfidenceInsufficient
		res.ApplyCap(0, capValue)
		res.Notes = append(res.Notes, "no current-year organic sales")
		return res, nil
	case !t.HasBaseline():
		m.estimateWithoutBaseline(&res, t, intensity, capValue)
	default:
		m.estimateWithBaseline(&res, t, intensity, capValue)
	}

	if t.UnitsTotal > 0 {
		res.IncrementalUnits = safeDiv(res.AttributedDollars, t.OrganicTotal/t.UnitsTotal)
	}

	zap.L().Debug("attribution: yoy estimate",
		zap.String("brand", string(s.Brand)),
		zap.Int("year", t.Year),
		zap.Bool("has_baseline", t.HasBaseline()),
		zap.String("confidence", string(res.Confidence)),
		zap.Float64("attributed", res.AttributedDollars),
		zap.Bool("capped", res.Capped),
	)
	return res, nil
}

// estimateWithoutBaseline credits a share of current organic sales scaled by
// TTS intensity alone.
func (m *YoYModel) estimateWithoutBaseline(res *model.AttributionResult, t YoYTotals, intensity, capValue float64) {
	share := math.Min(m.p.NoBaselineShareCeiling, intensity*m.p.NoBaselineIntensityFactor)
	res.Diagnostics["share"] = share
	res.ApplyCap(t.OrganicTotal*share, capValue)
	res.Confidence = model.ConfidenceLow
	res.Notes = append(res.Notes, "no prior-year baseline")
}

func (m *YoYModel) estimateWithBaseline(res *model.AttributionResult, t YoYTotals, intensity, capValue float64) {
	organicDelta := t.CurOrganic - t.PriorOrganic
	organicPct := safeDiv(organicDelta, t.PriorOrganic)
	pvDelta := t.CurPageViews - t.PriorPageViews
	pvPct := safeDiv(pvDelta, t.PriorPageViews)
	adPct := safeDiv(t.CurAdSpend-t.PriorAdSpend, t.PriorAdSpend)

	var halo float64
	if adPct > 0 {
		halo = adPct * t.PriorOrganic * m.p.HaloRate
	}
	unexplained := math.Max(0, organicDelta-halo)

	organicGrew := organicDelta > 0
	signal, share := SignalNegative, 0.0
	switch {
	case organicGrew && pvPct > adPct:
		signal = SignalPositive
		share = math.Min(PositiveShareCeiling, intensity*PositiveIntensityFactor)
	case organicGrew:
		signal = SignalNeutral
		share = math.Min(NeutralShareCeiling, intensity*NeutralIntensityFactor)
	}

	res.ApplyCap(unexplained*share, capValue)

	// Page views explained by ad growth are removed before crediting TTS.
	expectedPV := t.PriorPageViews * math.Max(0, adPct) * m.p.HaloRate
	incPV := math.Max(0, pvDelta-expectedPV) * share
	if res.Capped && res.RawEstimate > 0 {
		incPV *= res.AttributedDollars / res.RawEstimate
	}
	res.IncrementalPageViews = incPV

	res.Confidence = grade(yoyLadder, signals{
		ttsActive:     t.TTSTotal > m.p.MinTTSGMV,
		organicGrew:   organicGrew,
		pageViewsGrew: pvDelta > 0,
		adSpendStable: math.Abs(adPct) < m.p.StableAdSpend,
	})

	d := res.Diagnostics
	d["has_baseline"] = 1
	d["organic_delta"] = organicDelta
	d["organic_delta_pct"] = organicPct * 100
	d["pv_delta_pct"] = pvPct * 100
	d["ad_spend_delta_pct"] = adPct * 100
	d["ad_halo"] = halo
	d["unexplained"] = unexplained
	d["share"] = share
	d["signal"] = signal.score()
	res.Notes = append(res.Notes, "signal: "+string(signal))
}
