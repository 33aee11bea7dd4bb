package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

func renderJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}

// RenderJSON writes any value as indented JSON.
func RenderJSON(out io.Writer, v any) error {
	return renderJSON(out, v)
}
