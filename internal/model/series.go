// Package model defines the per-brand monthly series and attribution result types.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMisaligned is returned when a brand's series violates the month
// ordering contract or when parallel series differ in length.
var ErrMisaligned = errors.New("series misaligned")

// BrandKey is a canonical brand identifier. Name matching happens upstream.
type BrandKey string

// Month identifies a calendar month. It encodes as "YYYY-MM" text.
type Month struct {
	Year  int
	Month int
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, eris.Errorf("model: month %q must be YYYY-MM", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, eris.Wrapf(err, "model: parse year of %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, eris.Wrapf(err, "model: parse month of %q", s)
	}
	if m < 1 || m > 12 {
		return Month{}, eris.Errorf("model: month %q out of range", s)
	}
	return Month{Year: y, Month: m}, nil
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Index returns a monotonically increasing ordinal for the month.
func (m Month) Index() int {
	return m.Year*12 + (m.Month - 1)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == 12 {
		return Month{Year: m.Year + 1, Month: 1}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	if m.Month == 1 {
		return Month{Year: m.Year - 1, Month: 12}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	return m.Index() < o.Index()
}

// MonthRecord holds the aligned metrics for one brand-month. Missing source
// data is recorded as zero.
type MonthRecord struct {
	Month              Month   `json:"month"`
	TTSGMV             float64 `json:"tts_gmv"`
	AmazonSales        float64 `json:"amz_sales"`
	AmazonOrganic      float64 `json:"amz_organic"`
	AmazonAdSales      float64 `json:"amz_ad_sales"`
	AmazonAdSpend      float64 `json:"amz_ad_spend"`
	AmazonPageViews    float64 `json:"amz_page_views"`
	AmazonUnits        float64 `json:"amz_units"`
	ContentImpressions float64 `json:"content_impressions"`
	ContentVisitors    float64 `json:"content_visitors"`
	Event              string  `json:"event,omitempty"` // external event note, e.g. "Prime Day"
}

// DeriveOrganic returns total minus ad-attributed sales, floored at zero.
// Sources call it only when organic sales were not supplied.
func DeriveOrganic(total, adSales float64) float64 {
	return math.Max(0, total-adSales)
}

// BrandSeries is one brand's chronologically ordered monthly records.
type BrandSeries struct {
	Brand   BrandKey      `json:"brand"`
	Records []MonthRecord `json:"records"`
}

// Validate checks that months are unique and strictly increasing.
func (s *BrandSeries) Validate() error {
	if s.Brand == "" {
		return eris.New("model: brand key is required")
	}
	for i := 1; i < len(s.Records); i++ {
		if !s.Records[i-1].Month.Before(s.Records[i].Month) {
			return eris.Wrapf(ErrMisaligned, "model: brand %s month %s does not follow %s",
				s.Brand, s.Records[i].Month, s.Records[i-1].Month)
		}
	}
	return nil
}

// Len returns the number of months in the series.
func (s *BrandSeries) Len() int { return len(s.Records) }

// Latest returns the most recent record. ok is false for an empty series.
func (s *BrandSeries) Latest() (MonthRecord, bool) {
	if len(s.Records) == 0 {
		return MonthRecord{}, false
	}
	return s.Records[len(s.Records)-1], true
}

// Year returns the records that fall in the given calendar year.
func (s *BrandSeries) Year(year int) []MonthRecord {
	var out []MonthRecord
	for _, r := range s.Records {
		if r.Month.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// Column extracts one metric across all months.
func (s *BrandSeries) Column(f func(MonthRecord) float64) []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = f(r)
	}
	return out
}

// TTSGMV returns the TikTok Shop GMV column.
func (s *BrandSeries) TTSGMV() []float64 {
	return s.Column(func(r MonthRecord) float64 { return r.TTSGMV })
}

// AmazonSales returns the Amazon total sales column.
func (s *BrandSeries) AmazonSales() []float64 {
	return s.Column(func(r MonthRecord) float64 { return r.AmazonSales })
}

// Organic returns the Amazon organic sales column.
func (s *BrandSeries) Organic() []float64 {
	return s.Column(func(r MonthRecord) float64 { return r.AmazonOrganic })
}

// Portfolio is the full set of brand series for one analysis run.
type Portfolio struct {
	Series []BrandSeries `json:"brands"`
}

// Brands returns the brand keys in portfolio order.
func (p *Portfolio) Brands() []BrandKey {
	keys := make([]BrandKey, len(p.Series))
	for i, s := range p.Series {
		keys[i] = s.Brand
	}
	return keys
}

// Validate validates every series and rejects duplicate brands.
func (p *Portfolio) Validate() error {
	seen := make(map[BrandKey]bool, len(p.Series))
	for i := range p.Series {
		s := &p.Series[i]
		if seen[s.Brand] {
			return eris.Errorf("model: duplicate brand %s", s.Brand)
		}
		seen[s.Brand] = true
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
