// Package report renders attribution results and rolling-lift detail as a
// console table, CSV, JSON or an XLSX workbook.
package report

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, csv, json or xlsx)", s)
	}
}

// Envelope wraps one run's results with the parameters that produced them.
type Envelope struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Models      []string                  `json:"models"`
	Params      config.EngineConfig       `json:"params"`
	Results     []model.AttributionResult `json:"results"`
}

// NewEnvelope stamps results with a fresh run ID.
func NewEnvelope(results []model.AttributionResult, models []string, params config.EngineConfig, now time.Time) *Envelope {
	return &Envelope{
		RunID:       uuid.New().String(),
		GeneratedAt: now.UTC(),
		Models:      models,
		Params:      params,
		Results:     results,
	}
}

// Render writes env to w in the given format.
func Render(w io.Writer, f Format, env *Envelope) error {
	switch f {
	case FormatTable, "":
		return renderTable(w, env.Results)
	case FormatCSV:
		return renderCSV(w, env.Results)
	case FormatJSON:
		return renderJSON(w, env)
	case FormatXLSX:
		return renderXLSX(w, env)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

// FilterConfidence keeps results labeled at or above floor, plus unlabeled
// ones. An empty floor keeps everything. Order is preserved.
func FilterConfidence(results []model.AttributionResult, floor model.Confidence) []model.AttributionResult {
	if floor == "" {
		return results
	}
	out := make([]model.AttributionResult, 0, len(results))
	for _, r := range results {
		if r.Confidence.AtLeast(floor) {
			out = append(out, r)
		}
	}
	return out
}

// diagnosticKeys returns the union of diagnostic names in sorted order.
func diagnosticKeys(results []model.AttributionResult) []string {
	set := make(map[string]struct{})
	for _, r := range results {
		for k := range r.Diagnostics {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func confidenceLabel(c model.Confidence) string {
	if c == "" {
		return "-"
	}
	return string(c)
}
