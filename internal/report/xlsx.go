package report

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names in the attribution workbook.
const (
	SheetResults     = "Attribution"
	SheetDiagnostics = "Diagnostics"
	SheetRun         = "Run"
)

func renderXLSX(out io.Writer, env *Envelope) error {
	f, err := Workbook(env)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(out), "report: write xlsx")
}

// Workbook builds the attribution workbook: one results sheet, a long-format
// diagnostics sheet and run metadata.
func Workbook(env *Envelope) (*xlsx.File, error) {
	f := xlsx.NewFile()

	results, err := f.AddSheet(SheetResults)
	if err != nil {
		return nil, eris.Wrap(err, "report: add results sheet")
	}
	addStrings(results.AddRow(), resultColumns...)
	for _, r := range env.Results {
		row := results.AddRow()
		addStrings(row, string(r.Brand), r.Model, r.Period, string(r.Confidence))
		row.AddCell().SetFloat(r.AttributedDollars)
		row.AddCell().SetFloat(r.RawEstimate)
		row.AddCell().SetFloat(r.CapValue)
		row.AddCell().SetBool(r.Capped)
		row.AddCell().SetFloat(r.IncrementalPageViews)
		row.AddCell().SetFloat(r.IncrementalUnits)
		addStrings(row, strings.Join(r.Notes, "; "))
	}

	diag, err := f.AddSheet(SheetDiagnostics)
	if err != nil {
		return nil, eris.Wrap(err, "report: add diagnostics sheet")
	}
	addStrings(diag.AddRow(), "brand", "model", "name", "value")
	keys := diagnosticKeys(env.Results)
	for _, r := range env.Results {
		for _, k := range keys {
			v, ok := r.Diagnostics[k]
			if !ok {
				continue
			}
			row := diag.AddRow()
			addStrings(row, string(r.Brand), r.Model, k)
			row.AddCell().SetFloat(v)
		}
	}

	run, err := f.AddSheet(SheetRun)
	if err != nil {
		return nil, eris.Wrap(err, "report: add run sheet")
	}
	addStrings(run.AddRow(), "run_id", env.RunID)
	addStrings(run.AddRow(), "generated_at", env.GeneratedAt.Format(time.RFC3339))
	for _, m := range env.Models {
		addStrings(run.AddRow(), "model", m)
	}
	return f, nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
