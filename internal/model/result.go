package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Confidence is an ordered data-quality label attached to an estimate.
type Confidence string

const (
	ConfidenceHigh         Confidence = "HIGH"
	ConfidenceMedium       Confidence = "MEDIUM"
	ConfidenceLow          Confidence = "LOW"
	ConfidenceWeak         Confidence = "WEAK"
	ConfidenceInsufficient Confidence = "INSUFFICIENT"
)

// Rank orders labels from strong (4) to none (0). Unlabeled results rank -1.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 4
	case ConfidenceMedium:
		return 3
	case ConfidenceLow:
		return 2
	case ConfidenceWeak:
		return 1
	case ConfidenceInsufficient:
		return 0
	default:
		return -1
	}
}

// ParseConfidence parses a label case-insensitively.
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(strings.ToUpper(strings.TrimSpace(s)))
	if c.Rank() < 0 {
		return "", eris.Errorf("model: unknown confidence %q (want HIGH, MEDIUM, LOW, WEAK or INSUFFICIENT)", s)
	}
	return c, nil
}

// AtLeast reports whether c ranks at or above floor. Unlabeled results
// always pass because their model assigns no label.
func (c Confidence) AtLeast(floor Confidence) bool {
	if c == "" {
		return true
	}
	return c.Rank() >= floor.Rank()
}

// AttributionResult is one model's estimate for one brand and reporting period.
// AttributedDollars never exceeds CapValue; Capped is set exactly when
// RawEstimate exceeded CapValue.
type AttributionResult struct {
	Brand                BrandKey           `json:"brand"`
	Model                string             `json:"model"`
	Period               string             `json:"period"`
	Confidence           Confidence         `json:"confidence,omitempty"`
	AttributedDollars    float64            `json:"attributed_dollars"`
	RawEstimate          float64            `json:"raw_estimate"`
	Capped               bool               `json:"capped"`
	CapValue             float64            `json:"cap_value"`
	IncrementalPageViews float64            `json:"incremental_page_views,omitempty"`
	IncrementalUnits     float64            `json:"incremental_units,omitempty"`
	Diagnostics          map[string]float64 `json:"diagnostics,omitempty"`
	Notes                []string           `json:"notes,omitempty"`
}

// ApplyCap clamps raw into [0, capValue] and records the cap outcome.
func (r *AttributionResult) ApplyCap(raw, capValue float64) {
	if raw < 0 {
		raw = 0
	}
	if capValue < 0 {
		capValue = 0
	}
	r.RawEstimate = raw
	r.CapValue = capValue
	r.Capped = raw > capValue
	if r.Capped {
		r.AttributedDollars = capValue
	} else {
		r.AttributedDollars = raw
	}
}
