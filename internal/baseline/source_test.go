package baseline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lift-cli/internal/model"
	"github.com/sells-group/lift-cli/internal/resilience"
)

func TestTable_PutLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Put("acme", model.MonthRecord{Month: model.Month{Year: 2023, Month: 5}, AmazonOrganic: 42})

	rec, ok := tbl.Lookup("acme", 2023, 5)
	require.True(t, ok)
	assert.Equal(t, 42.0, rec.AmazonOrganic)

	_, ok = tbl.Lookup("acme", 2023, 6)
	assert.False(t, ok)
	_, ok = tbl.Lookup("other", 2023, 5)
	assert.False(t, ok)

	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []model.BrandKey{"acme"}, tbl.Brands())

	var nilTable *Table
	_, ok = nilTable.Lookup("acme", 2023, 5)
	assert.False(t, ok)
}

func TestChain_FirstHitWins(t *testing.T) {
	a := NewTable()
	a.Put("acme", model.MonthRecord{Month: model.Month{Year: 2023, Month: 1}, AmazonOrganic: 1})
	b := NewTable()
	b.Put("acme", model.MonthRecord{Month: model.Month{Year: 2023, Month: 1}, AmazonOrganic: 2})
	b.Put("acme", model.MonthRecord{Month: model.Month{Year: 2023, Month: 2}, AmazonOrganic: 3})

	src := Chain(a, nil, b)
	rec, ok := src.Lookup("acme", 2023, 1)
	require.True(t, ok)
	assert.Equal(t, 1.0, rec.AmazonOrganic)

	rec, ok = src.Lookup("acme", 2023, 2)
	require.True(t, ok)
	assert.Equal(t, 3.0, rec.AmazonOrganic)
}

func TestFromSeries(t *testing.T) {
	p := &model.Portfolio{Series: []model.BrandSeries{{Brand: "acme", Records: []model.MonthRecord{
		{Month: model.Month{Year: 2023, Month: 1}, AmazonOrganic: 10},
		{Month: model.Month{Year: 2024, Month: 1}, AmazonOrganic: 20},
	}}}}
	tbl := FromSeries(p)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []model.Month{{Year: 2023, Month: 1}, {Year: 2024, Month: 1}}, tbl.Months("acme"))
}

const sampleYAML = `
brands:
  acme:
    - month: "2023-01"
      sales: 1200
      ad_sales: 200
      page_views: 5000
      ad_spend: 300
      units: 40
    - month: "2024-01"
      organic: 999
  zest:
    - month: "2023-02"
      organic: 500
`

func TestParseYAML(t *testing.T) {
	tbl, err := ParseYAML([]byte(sampleYAML), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	rec, ok := tbl.Lookup("acme", 2023, 1)
	require.True(t, ok)
	assert.Equal(t, 1000.0, rec.AmazonOrganic) // derived from sales - ad_sales
	assert.Equal(t, 5000.0, rec.AmazonPageViews)
	assert.Equal(t, 40.0, rec.AmazonUnits)

	only2023, err := ParseYAML([]byte(sampleYAML), 2023)
	require.NoError(t, err)
	assert.Equal(t, 2, only2023.Len())
}

func TestParseYAML_OrganicOnlyDerivedWhenAbsent(t *testing.T) {
	const doc = `
brands:
  acme:
    - month: "2023-01"
      sales: 1200
      ad_sales: 200
      organic: 0
    - month: "2023-02"
      sales: 100
      ad_sales: 300
`
	tbl, err := ParseYAML([]byte(doc), 0)
	require.NoError(t, err)

	rec, ok := tbl.Lookup("acme", 2023, 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.AmazonOrganic, "explicit zero is kept")

	rec, ok = tbl.Lookup("acme", 2023, 2)
	require.True(t, ok)
	assert.Equal(t, 0.0, rec.AmazonOrganic, "derived organic floors at zero")
}

func TestParseYAML_BadMonth(t *testing.T) {
	_, err := ParseYAML([]byte("brands:\n  acme:\n    - month: \"2023-13\"\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme")
}

func TestYAMLRoundTrip(t *testing.T) {
	tbl, err := ParseYAML([]byte(sampleYAML), 0)
	require.NoError(t, err)
	data, err := MarshalYAML(tbl)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "baseline.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	back, err := (&YAMLLoader{Path: path}).Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, tbl.Len(), back.Len())
	rec, ok := back.Lookup("zest", 2023, 2)
	require.True(t, ok)
	assert.Equal(t, 500.0, rec.AmazonOrganic)
}

func TestYAMLLoader_MissingFile(t *testing.T) {
	_, err := (&YAMLLoader{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Load(context.Background(), 0)
	assert.Error(t, err)
}

func TestCachedLoader(t *testing.T) {
	var calls atomic.Int32
	inner := LoaderFunc(func(_ context.Context, year int) (*Table, error) {
		calls.Add(1)
		tbl := NewTable()
		tbl.Put("acme", model.MonthRecord{Month: model.Month{Year: year, Month: 1}})
		return tbl, nil
	})

	c := NewCachedLoader(inner, 4, time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Load(ctx, 2023)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := c.Load(ctx, 2022)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	c.Purge()
	_, err = c.Load(ctx, 2023)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCachedLoader_ErrorNotCached(t *testing.T) {
	var calls int
	inner := LoaderFunc(func(context.Context, int) (*Table, error) {
		calls++
		return nil, errors.New("boom")
	})
	c := NewCachedLoader(inner, 0, time.Minute)
	_, err := c.Load(context.Background(), 2023)
	require.Error(t, err)
	_, err = c.Load(context.Background(), 2023)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry(t *testing.T) {
	var calls int
	inner := LoaderFunc(func(context.Context, int) (*Table, error) {
		calls++
		if calls == 1 {
			return nil, resilience.NewTransientError(errors.New("connection refused"))
		}
		return NewTable(), nil
	})
	l := WithRetry(inner, resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond})
	tbl, err := l.Load(context.Background(), 2023)
	require.NoError(t, err)
	assert.NotNil(t, tbl)
	assert.Equal(t, 2, calls)
}
