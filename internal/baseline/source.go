package baseline

import (
	"sort"

	"github.com/sells-group/lift-cli/internal/model"
)

// Source resolves a brand's prior-year reference values for one month.
// Implementations used by the engine must be safe for concurrent reads.
type Source interface {
	Lookup(brand model.BrandKey, year, month int) (model.MonthRecord, bool)
}

// Table is an in-memory prior-year reference table. Populate it with Put
// before sharing; lookups are read-only and need no locking.
type Table struct {
	rows map[model.BrandKey]map[int]model.MonthRecord
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[model.BrandKey]map[int]model.MonthRecord)}
}

// Put stores (or replaces) the record for rec.Month.
func (t *Table) Put(brand model.BrandKey, rec model.MonthRecord) {
	byMonth, ok := t.rows[brand]
	if !ok {
		byMonth = make(map[int]model.MonthRecord)
		t.rows[brand] = byMonth
	}
	byMonth[rec.Month.Index()] = rec
}

// Lookup implements Source.
func (t *Table) Lookup(brand model.BrandKey, year, month int) (model.MonthRecord, bool) {
	if t == nil {
		return model.MonthRecord{}, false
	}
	rec, ok := t.rows[brand][model.Month{Year: year, Month: month}.Index()]
	return rec, ok
}

// Brands returns the brands present, sorted.
func (t *Table) Brands() []model.BrandKey {
	keys := make([]model.BrandKey, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of brand-month rows.
func (t *Table) Len() int {
	var n int
	for _, m := range t.rows {
		n += len(m)
	}
	return n
}

// Months returns the months recorded for brand in chronological order.
func (t *Table) Months(brand model.BrandKey) []model.Month {
	var out []model.Month
	for _, rec := range t.rows[brand] {
		out = append(out, rec.Month)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FromSeries builds a table from the portfolio's own history, so a brand
// with 24+ months of data can serve as its own prior-year reference.
func FromSeries(p *model.Portfolio) *Table {
	t := NewTable()
	for _, s := range p.Series {
		for _, r := range s.Records {
			t.Put(s.Brand, r)
		}
	}
	return t
}

type chain []Source

// Chain consults each source in order and returns the first hit.
func Chain(sources ...Source) Source {
	var c chain
	for _, s := range sources {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) Lookup(brand model.BrandKey, year, month int) (model.MonthRecord, bool) {
	for _, s := range c {
		if rec, ok := s.Lookup(brand, year, month); ok {
			return rec, true
		}
	}
	return model.MonthRecord{}, false
}
