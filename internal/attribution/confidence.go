package attribution

import "github.com/sells-group/lift-cli/internal/model"

// Correlation-strength thresholds on |r|.
const (
	StrongCorrelation   = 0.8
	ModerateCorrelation = 0.5
	WeakCorrelation     = 0.3
)

// Attribution rates paired with each correlation tier.
const (
	StrongRate   = 0.17
	ModerateRate = 0.12
	WeakRate     = 0.06
	FloorRate    = 0.02
)

// Tier maps a minimum correlation strength to a label and attribution rate.
type Tier struct {
	MinStrength float64
	Label       model.Confidence
	Rate        float64
}

// CorrelationTiers is evaluated top-down; the first tier whose MinStrength
// is met wins. The last tier must have MinStrength 0.
var CorrelationTiers = []Tier{
	{MinStrength: StrongCorrelation, Label: model.ConfidenceHigh, Rate: StrongRate},
	{MinStrength: ModerateCorrelation, Label: model.ConfidenceMedium, Rate: ModerateRate},
	{MinStrength: WeakCorrelation, Label: model.ConfidenceLow, Rate: WeakRate},
	{MinStrength: 0, Label: model.ConfidenceWeak, Rate: FloorRate},
}

// Classify returns the first tier whose MinStrength is at most strength.
func Classify(strength float64, tiers []Tier) Tier {
	for _, t := range tiers {
		if strength >= t.MinStrength {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// signals are the boolean inputs to the YoY and rolling confidence ladders.
type signals struct {
	ttsActive     bool
	organicGrew   bool
	pageViewsGrew bool
	adSpendStable bool

	// rolling model
	enoughHistory bool
	negativeLift  bool
	eventNoted    bool
}

// rule assigns label when requires holds.
type rule struct {
	label    model.Confidence
	requires func(s signals) bool
}

// yoyLadder is evaluated top-down; no match means INSUFFICIENT.
var yoyLadder = []rule{
	{model.ConfidenceHigh, func(s signals) bool {
		return s.ttsActive && s.organicGrew && s.pageViewsGrew && s.adSpendStable
	}},
	{model.ConfidenceMedium, func(s signals) bool {
		return s.ttsActive && s.organicGrew && (s.pageViewsGrew || s.adSpendStable)
	}},
	{model.ConfidenceLow, func(s signals) bool {
		return s.ttsActive && s.organicGrew
	}},
	{model.ConfidenceWeak, func(s signals) bool {
		return s.ttsActive
	}},
}

// rollingLadder grades rolling-baseline lift: without enough history or TTS
// activity the month is inconclusive; external events and negative lift
// each lower confidence.
var rollingLadder = []rule{
	{model.ConfidenceInsufficient, func(s signals) bool { return !s.enoughHistory || !s.ttsActive }},
	{model.ConfidenceLow, func(s signals) bool { return s.eventNoted && s.negativeLift }},
	{model.ConfidenceMedium, func(s signals) bool { return s.eventNoted || s.negativeLift }},
	{model.ConfidenceHigh, func(signals) bool { return true }},
}

func grade(ladder []rule, s signals) model.Confidence {
	for _, r := range ladder {
		if r.requires(s) {
			return r.label
		}
	}
	return model.ConfidenceInsufficient
}
