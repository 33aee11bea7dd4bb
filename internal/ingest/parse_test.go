package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lift-cli/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1234.5", 1234.5, false},
		{"$1,234.50", 1234.5, false},
		{" 1,000 ", 1000, false},
		{"(250)", -250, false},
		{"", 0, false},
		{"-", 0, false},
		{"-12", -12, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParse_Basic(t *testing.T) {
	rows := [][]string{
		{"Brand", "Month", "TTS GMV", "Amazon Sales", "Ad Sales", "Page Views", "Event"},
		{"Acme™", "2024-01", "$1,000", "$10,000", "2,000", "500", ""},
		{"ACME", "2024-03", "3000", "12000", "2000", "700", "Prime Day"},
		{"Globex", "2024-02", "0", "5000", "", "", ""},
		{"", "", "", "", "", "", ""},
	}

	p, err := Parse(rows)
	require.NoError(t, err)
	require.Len(t, p.Series, 2)

	acme := p.Series[0]
	assert.Equal(t, model.BrandKey("Acme"), acme.Brand)
	require.Len(t, acme.Records, 3, "2024-02 is zero-filled")
	assert.Equal(t, 1000.0, acme.Records[0].TTSGMV)
	assert.Equal(t, 8000.0, acme.Records[0].AmazonOrganic, "organic derived from sales minus ad sales")
	assert.Equal(t, model.MonthRecord{Month: model.Month{Year: 2024, Month: 2}}, acme.Records[1])
	assert.Equal(t, "Prime Day", acme.Records[2].Event)
	assert.Equal(t, 700.0, acme.Records[2].AmazonPageViews)

	globex := p.Series[1]
	assert.Equal(t, model.BrandKey("Globex"), globex.Brand)
	require.Len(t, globex.Records, 1)
	assert.Equal(t, 5000.0, globex.Records[0].AmazonOrganic)
}

func TestParse_ExplicitOrganicWins(t *testing.T) {
	rows := [][]string{
		{"brand", "month", "tts_gmv", "amz_sales", "amz_organic", "amz_ad_sales"},
		{"acme", "2024-01", "10", "100", "90", "40"},
		{"acme", "2024-02", "10", "100", "", "40"},
	}
	p, err := Parse(rows)
	require.NoError(t, err)
	assert.Equal(t, 90.0, p.Series[0].Records[0].AmazonOrganic)
	assert.Equal(t, 60.0, p.Series[0].Records[1].AmazonOrganic)
}

func TestParse_CollectsProblems(t *testing.T) {
	rows := [][]string{
		{"brand", "month", "tts_gmv", "amz_sales"},
		{"acme", "2024/01", "10", "100"},
		{"acme", "2024-02", "ten", "100"},
		{"acme", "2024-03", "10", "-5"},
		{"acme", "2024-04", "10", "100"},
		{"acme", "2024-04", "10", "100"},
		{"", "2024-05", "10", "100"},
	}
	_, err := Parse(rows)
	require.Error(t, err)

	var v *ValidationError
	require.True(t, errors.As(err, &v))
	require.Len(t, v.Problems, 5)
	assert.Contains(t, v.Problems[0], "row 2: month")
	assert.Contains(t, v.Problems[1], "row 3: tts_gmv")
	assert.Contains(t, v.Problems[2], "row 4: amz_sales must not be negative")
	assert.Contains(t, v.Problems[3], "row 6: duplicate acme 2024-04 (first at row 5)")
	assert.Contains(t, v.Problems[4], "row 7: brand is empty")
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse([][]string{{"brand", "month"}, {"acme", "2024-01"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "tts_gmv"`)
	assert.Contains(t, err.Error(), `missing required column "amz_sales"`)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input is empty")

	_, err = Parse([][]string{{"brand", "month", "tts_gmv", "amz_sales"}, {"", ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestValidationError_Truncates(t *testing.T) {
	v := &ValidationError{}
	for i := 0; i < maxProblems+3; i++ {
		v.add("problem %d", i)
	}
	assert.Len(t, v.Problems, maxProblems)
	assert.Contains(t, v.Error(), "and 3 more")
}

func TestBrandResolver(t *testing.T) {
	r := NewBrandResolver()
	assert.Equal(t, model.BrandKey("Dr. Squatch"), r.Resolve("  Dr.   Squatch® "))
	assert.Equal(t, model.BrandKey("Dr. Squatch"), r.Resolve("DR. SQUATCH"))
	assert.Equal(t, model.BrandKey("Acme"), r.Resolve("Ａｃｍｅ"), "full-width folds to ASCII")
	assert.Equal(t, model.BrandKey(""), r.Resolve(" ™ "))
}

func TestNormalize(t *testing.T) {
	p := &model.Portfolio{Series: []model.BrandSeries{{
		Brand: "acme",
		Records: []model.MonthRecord{
			{Month: model.Month{Year: 2024, Month: 3}, AmazonSales: 3},
			{Month: model.Month{Year: 2023, Month: 12}, AmazonSales: 1},
		},
	}}}
	require.NoError(t, Normalize(p))
	recs := p.Series[0].Records
	require.Len(t, recs, 4)
	assert.Equal(t, "2023-12", recs[0].Month.String())
	assert.Equal(t, "2024-01", recs[1].Month.String())
	assert.Zero(t, recs[1].AmazonSales)
	assert.Equal(t, 3.0, recs[3].AmazonSales)

	p.Series[0].Records = append(p.Series[0].Records, recs[0])
	err := Normalize(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMisaligned))
}
