package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lift-cli/internal/attribution"
	"github.com/sells-group/lift-cli/internal/baseline"
	"github.com/sells-group/lift-cli/internal/config"
	"github.com/sells-group/lift-cli/internal/model"
)

func sampleResults() []model.AttributionResult {
	return []model.AttributionResult{
		{
			Brand: "Acme", Model: "correlation", Period: "2024-12", Confidence: model.ConfidenceHigh,
			AttributedDollars: 4250, RawEstimate: 4250, CapValue: 48000,
			Diagnostics: map[string]float64{"r_best": 0.98, "rate": 0.17},
			Notes:       []string{"best hypothesis: same_month_total"},
		},
		{
			Brand: "Acme", Model: "yoy", Period: "2024", Confidence: model.ConfidenceMedium,
			AttributedDollars: 6000, RawEstimate: 12000, CapValue: 6000, Capped: true,
			IncrementalPageViews: 900, IncrementalUnits: 50,
			Diagnostics: map[string]float64{"share": 0.5},
		},
		{
			Brand: "Acme", Model: "funnel", Period: "2024-12",
			AttributedDollars: 3139.5, RawEstimate: 3139.5, CapValue: 3850,
		},
	}
}

func sampleEnvelope() *Envelope {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	return NewEnvelope(sampleResults(), []string{"correlation", "yoy", "funnel"}, config.EngineConfig{Concurrency: 4}, now)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "CSV": FormatCSV, " json ": FormatJSON, "xlsx": FormatXLSX, "table": FormatTable} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestNewEnvelope(t *testing.T) {
	env := sampleEnvelope()
	_, err := uuid.Parse(env.RunID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, env.GeneratedAt.Location())
	assert.Equal(t, 2, env.GeneratedAt.Hour())
	assert.NotEqual(t, env.RunID, sampleEnvelope().RunID)
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$1,234,568", Dollars(1234567.8))
	assert.Equal(t, "$0", Dollars(0))
	assert.Equal(t, "-$1,500", Dollars(-1500))
	assert.Equal(t, "12,000", Count(12000))
	assert.Equal(t, "12.5%", Percent(12.5))
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatTable, sampleEnvelope()))

	out := buf.String()
	assert.Contains(t, out, "BRAND")
	assert.Contains(t, out, "$4,250")
	assert.Contains(t, out, "$48,000")
	assert.Contains(t, out, "yes")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[4], " - ", "funnel has no confidence label")
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, sampleEnvelope()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	header := records[0]
	assert.Equal(t, resultColumns, header[:len(resultColumns)])
	assert.Equal(t, []string{"diag_r_best", "diag_rate", "diag_share"}, header[len(resultColumns):])

	yoy := records[2]
	assert.Equal(t, "yoy", yoy[1])
	assert.Equal(t, "6000", yoy[4])
	assert.Equal(t, "true", yoy[7])
	assert.Equal(t, "", yoy[len(resultColumns)], "missing diagnostics are blank")
	assert.Equal(t, "0.5", yoy[len(resultColumns)+2])
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	env := sampleEnvelope()
	require.NoError(t, Render(&buf, FormatJSON, env))

	var got Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, env.RunID, got.RunID)
	require.Len(t, got.Results, 3)
	assert.True(t, got.Results[1].Capped)
	assert.Empty(t, got.Results[2].Confidence)
	assert.NotContains(t, buf.String(), `"confidence": ""`)
}

func TestRender_XLSX(t *testing.T) {
	var buf bytes.Buffer
	env := sampleEnvelope()
	require.NoError(t, Render(&buf, FormatXLSX, env))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	results := f.Sheet[SheetResults]
	require.NotNil(t, results)
	require.Len(t, results.Rows, 4)
	assert.Equal(t, "brand", results.Rows[0].Cells[0].String())
	v, err := results.Rows[1].Cells[4].Float()
	require.NoError(t, err)
	assert.Equal(t, 4250.0, v)

	diag := f.Sheet[SheetDiagnostics]
	require.NotNil(t, diag)
	assert.Len(t, diag.Rows, 4, "header plus three diagnostics")

	run := f.Sheet[SheetRun]
	require.NotNil(t, run)
	assert.Equal(t, env.RunID, run.Rows[0].Cells[1].String())
}

func TestRenderLift(t *testing.T) {
	s := model.BrandSeries{Brand: "Acme"}
	m := model.Month{Year: 2024, Month: 1}
	for _, v := range []float64{1000, 1000, 1000, 1600} {
		s.Records = append(s.Records, model.MonthRecord{Month: m, AmazonSales: v, TTSGMV: 200})
		m = m.Next()
	}
	points := baseline.Lift(&s, 3)

	var buf bytes.Buffer
	require.NoError(t, RenderLift(&buf, s.Brand, points))
	assert.Contains(t, buf.String(), "2024-04")
	assert.Contains(t, buf.String(), "$600")
	assert.Contains(t, buf.String(), "60.0%")

	buf.Reset()
	require.NoError(t, RenderLiftCSV(&buf, []BrandLift{{Brand: s.Brand, Points: points}}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Acme", "2024-04", "1600", "1000", "600", "60", "200", "3", "0", "0", "3", ""}, records[4])

	buf.Reset()
	summaries := baseline.Summarize(&model.Portfolio{Series: []model.BrandSeries{s}}, 3)
	require.NoError(t, RenderSummary(&buf, summaries))
	assert.Contains(t, buf.String(), "Acme")
	assert.Contains(t, buf.String(), "$4,600")
}

func TestRenderSummaryCSV(t *testing.T) {
	summaries := []baseline.BrandSummary{
		{Brand: "Acme", MonthsTracked: 4, TotalLift: 600, OverallLiftPct: 15},
		{Brand: "Bolt", MonthsTracked: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderSummaryCSV(&buf, summaries))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "brand", records[0][0])
	assert.Equal(t, []string{"Acme", "4", "0", "0", "600"}, records[1][:5])
	assert.Equal(t, "15", records[1][10])
	assert.Equal(t, "Bolt", records[2][0])
}

func TestFilterConfidence(t *testing.T) {
	results := sampleResults()

	got := FilterConfidence(results, model.ConfidenceHigh)
	require.Len(t, got, 2)
	assert.Equal(t, "correlation", got[0].Model)
	assert.Equal(t, "funnel", got[1].Model, "unlabeled results are kept")

	assert.Len(t, FilterConfidence(results, model.ConfidenceMedium), 3)
	assert.Equal(t, results, FilterConfidence(results, ""))
}

func sampleFunnel() []BrandFunnel {
	return []BrandFunnel{{
		Brand: "Acme",
		Months: []attribution.FunnelBreakdown{
			{
				Month: model.Month{Year: 2024, Month: 11}, Buyers: 200, BuyRate: 0.05, NonBuyers: 3800,
				PathAVisits: 380, PathADollars: 1140, Total: 1500, Ceiling: 2000,
			},
			{
				Month: model.Month{Year: 2024, Month: 12}, Buyers: 300, BuyRate: 0.06,
				Total: 2500, Ceiling: 2500, Clamped: true,
			},
		},
	}}
}

func TestRenderFunnel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFunnel(&buf, sampleFunnel()[0]))

	out := buf.String()
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "PATH_A")
	assert.Contains(t, out, "2024-11")
	assert.Contains(t, out, "true")
}

func TestRenderFunnelCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFunnelCSV(&buf, sampleFunnel()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "brand", records[0][0])
	assert.Equal(t, []string{"Acme", "2024-11"}, records[1][:2])
	assert.Equal(t, "false", records[1][12])
	assert.Equal(t, "true", records[2][12])
}
