package baseline

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/resilience"
)

// Loader materializes prior-year reference rows into a Table. year limits
// the rows to one calendar year; 0 loads everything.
type Loader interface {
	Load(ctx context.Context, year int) (*Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, year int) (*Table, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, year int) (*Table, error) { return f(ctx, year) }

// yamlRow is one month of a YAML reference file.
type yamlRow struct {
	Month     string   `yaml:"month"`
	Sales     float64  `yaml:"sales"`
	AdSales   float64  `yaml:"ad_sales"`
	Organic   *float64 `yaml:"organic,omitempty"`
	PageViews float64  `yaml:"page_views"`
	AdSpend   float64  `yaml:"ad_spend"`
	Units     float64  `yaml:"units"`
	TTSGMV    float64  `yaml:"tts_gmv"`
}

// yamlFile is the on-disk layout of a YAML reference table.
type yamlFile struct {
	Brands map[string][]yamlRow `yaml:"brands"`
}

// YAMLLoader reads a reference table from a YAML file.
type YAMLLoader struct {
	Path string
}

// Load implements Loader.
func (l *YAMLLoader) Load(_ context.Context, year int) (*Table, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "baseline: read %s", l.Path)
	}
	return ParseYAML(data, year)
}

// ParseYAML decodes a YAML reference table. Organic defaults to
// sales - ad_sales, floored at zero, when omitted.
func ParseYAML(data []byte, year int) (*Table, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "baseline: decode yaml")
	}

	t := NewTable()
	for brand, rows := range f.Brands {
		for _, r := range rows {
			m, err := model.ParseMonth(r.Month)
			if err != nil {
				return nil, eris.Wrapf(err, "baseline: brand %s", brand)
			}
			if year != 0 && m.Year != year {
				continue
			}
			organic := model.DeriveOrganic(r.Sales, r.AdSales)
			if r.Organic != nil {
				organic = *r.Organic
			}
			t.Put(model.BrandKey(brand), model.MonthRecord{
				Month:           m,
				TTSGMV:          r.TTSGMV,
				AmazonSales:     r.Sales,
				AmazonAdSales:   r.AdSales,
				AmazonOrganic:   organic,
				AmazonPageViews: r.PageViews,
				AmazonAdSpend:   r.AdSpend,
				AmazonUnits:     r.Units,
			})
		}
	}
	return t, nil
}

// MarshalYAML encodes a table in the layout ParseYAML reads.
func MarshalYAML(t *Table) ([]byte, error) {
	f := yamlFile{Brands: make(map[string][]yamlRow)}
	for _, b := range t.Brands() {
		for _, m := range t.Months(b) {
			rec, _ := t.Lookup(b, m.Year, m.Month)
			f.Brands[string(b)] = append(f.Brands[string(b)], yamlRow{
				Month:     m.String(),
				Sales:     rec.AmazonSales,
				AdSales:   rec.AmazonAdSales,
				Organic:   &rec.AmazonOrganic,
				PageViews: rec.AmazonPageViews,
				AdSpend:   rec.AmazonAdSpend,
				Units:     rec.AmazonUnits,
				TTSGMV:    rec.TTSGMV,
			})
		}
	}
	out, err := yaml.Marshal(&f)
	return out, eris.Wrap(err, "baseline: encode yaml")
}

// WithRetry retries transient load failures.
func WithRetry(l Loader, cfg resilience.RetryConfig) Loader {
	return LoaderFunc(func(ctx context.Context, year int) (*Table, error) {
		return resilience.Do(ctx, cfg, func(ctx context.Context) (*Table, error) {
			return l.Load(ctx, year)
		})
	})
}

// CachedLoader memoizes loaded tables per year for a bounded time, so a
// long-running server does not hit the backing store on every request.
type CachedLoader struct {
	next  Loader
	cache *expirable.LRU[string, *Table]
}

// NewCachedLoader wraps next with an LRU of size entries that expire after ttl.
func NewCachedLoader(next Loader, size int, ttl time.Duration) *CachedLoader {
	if size <= 0 {
		size = 16
	}
	return &CachedLoader{
		next:  next,
		cache: expirable.NewLRU[string, *Table](size, nil, ttl),
	}
}

// Load implements Loader.
func (c *CachedLoader) Load(ctx context.Context, year int) (*Table, error) {
	key := strconv.Itoa(year)
	if t, ok := c.cache.Get(key); ok {
		return t, nil
	}
	t, err := c.next.Load(ctx, year)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, t)
	zap.L().Debug("baseline: cached reference table",
		zap.Int("year", year),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// Purge drops all cached tables.
func (c *CachedLoader) Purge() {
	c.cache.Purge()
}
