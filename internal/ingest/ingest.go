// Package ingest reads the canonical long-format brand-month table from CSV
// or XLSX into a validated, gap-filled model.Portfolio.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lift-cli/internal/model"
)

// Options configures how an input file is read.
type Options struct {
	Sheet     string // XLSX sheet name; first sheet when empty
	Encoding  string // CSV charset label, e.g. "windows-1252"; UTF-8 when empty
	Delimiter rune   // CSV delimiter; ',' when zero
}

// ReadFile loads a portfolio from a .csv or .xlsx file.
func ReadFile(ctx context.Context, path string, opts Options) (*model.Portfolio, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		rows, err = readCSVFile(ctx, path, opts)
	case ".xlsx":
		rows, err = readXLSX(path, opts.Sheet)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q (want .csv or .xlsx)", ext)
	}
	if err != nil {
		return nil, err
	}

	p, err := Parse(rows)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s", filepath.Base(path))
	}
	zap.L().Info("ingest: portfolio loaded",
		zap.String("path", path),
		zap.Int("rows", max(0, len(rows)-1)),
		zap.Int("brands", len(p.Series)),
	)
	return p, nil
}

func readCSVFile(ctx context.Context, path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close() //nolint:errcheck

	r, err := decodeReader(f, opts.Encoding)
	if err != nil {
		return nil, err
	}

	rowCh, errCh := streamCSV(ctx, r, opts.Delimiter)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
