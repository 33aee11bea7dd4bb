package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/model"
)

// Column names of the canonical input table.
const (
	ColBrand              = "brand"
	ColMonth              = "month"
	ColTTSGMV             = "tts_gmv"
	ColAmazonSales        = "amz_sales"
	ColAmazonOrganic      = "amz_organic"
	ColAmazonAdSales      = "amz_ad_sales"
	ColAmazonAdSpend      = "amz_ad_spend"
	ColAmazonPageViews    = "amz_page_views"
	ColAmazonUnits        = "amz_units"
	ColContentImpressions = "content_impressions"
	ColContentVisitors    = "content_visitors"
	ColEvent              = "event"
)

// RequiredColumns must be present in every input header.
var RequiredColumns = []string{ColBrand, ColMonth, ColTTSGMV, ColAmazonSales}

// Header cells are normalized (lowercase, underscores) before alias lookup.
var columnAliases = map[string]string{
	"tiktok_gmv":         ColTTSGMV,
	"tts":                ColTTSGMV,
	"amazon_sales":       ColAmazonSales,
	"amazon_organic":     ColAmazonOrganic,
	"organic_sales":      ColAmazonOrganic,
	"amazon_ad_sales":    ColAmazonAdSales,
	"ad_sales":           ColAmazonAdSales,
	"amazon_ad_spend":    ColAmazonAdSpend,
	"ad_spend":           ColAmazonAdSpend,
	"amazon_page_views":  ColAmazonPageViews,
	"page_views":         ColAmazonPageViews,
	"amazon_units":       ColAmazonUnits,
	"units":              ColAmazonUnits,
	"impressions":        ColContentImpressions,
	"visitors":           ColContentVisitors,
	"external_event":     ColEvent,
	"notes":              ColEvent,
	"period":             ColMonth,
	"brand_name":         ColBrand,
	"tiktok_shop_gmv":    ColTTSGMV,
	"content_views":      ColContentImpressions,
	"content_visits":     ColContentVisitors,
	"amazon_total_sales": ColAmazonSales,
}

var numericColumns = []string{
	ColTTSGMV, ColAmazonSales, ColAmazonOrganic, ColAmazonAdSales, ColAmazonAdSpend,
	ColAmazonPageViews, ColAmazonUnits, ColContentImpressions, ColContentVisitors,
}

// nonNegative columns reject values below zero.
var nonNegative = map[string]bool{ColTTSGMV: true, ColAmazonSales: true}

func trimCell(s string) string { return strings.TrimSpace(s) }

func normalizeHeader(h string) string {
	h = strings.ToLower(trimCell(h))
	h = strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "", "$", "").Replace(h)
	h = strings.Trim(h, "_")
	if canon, ok := columnAliases[h]; ok {
		return canon
	}
	return h
}

// ParseAmount parses a numeric cell. It accepts currency symbols, thousands
// separators and accounting negatives "(1,234)". Blank and "-" cells are 0.
func ParseAmount(s string) (float64, error) {
	s = trimCell(s)
	if s == "" || s == "-" || s == "—" {
		return 0, nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("ingest: %q is not a number", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Parse converts header-first rows into a portfolio. Every row problem is
// collected and returned together as a *ValidationError. Brands appear in
// first-seen order; gaps inside a brand's month range are zero-filled.
func Parse(rows [][]string) (*model.Portfolio, error) {
	v := &ValidationError{}
	if len(rows) == 0 {
		v.add("input is empty")
		return nil, v
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			v.add("header: column %q appears more than once", name)
			continue
		}
		cols[name] = i
	}
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			v.add("header: missing required column %q", req)
		}
	}
	if v.HasProblems() {
		return nil, v
	}

	resolver := NewBrandResolver()
	byBrand := make(map[model.BrandKey]*model.BrandSeries)
	seen := make(map[model.BrandKey]map[model.Month]int)
	var order []model.BrandKey

	cell := func(row []string, col string) (string, bool) {
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return "", ok
		}
		return trimCell(row[idx]), true
	}

	dataRows := 0
	for i, row := range rows[1:] {
		line := i + 2
		if blankRow(row) {
			continue
		}
		dataRows++

		rawBrand, _ := cell(row, ColBrand)
		brand := resolver.Resolve(rawBrand)
		if brand == "" {
			v.add("row %d: brand is empty", line)
		}
		rawMonth, _ := cell(row, ColMonth)
		month, monthErr := model.ParseMonth(rawMonth)
		if monthErr != nil {
			v.add("row %d: month %q is not YYYY-MM", line, rawMonth)
		}

		vals := make(map[string]float64, len(numericColumns))
		present := make(map[string]bool, len(numericColumns))
		for _, col := range numericColumns {
			raw, ok := cell(row, col)
			if !ok {
				continue
			}
			present[col] = raw != ""
			n, err := ParseAmount(raw)
			if err != nil {
				v.add("row %d: %s %q is not a number", line, col, raw)
				continue
			}
			if n < 0 && nonNegative[col] {
				v.add("row %d: %s must not be negative (got %g)", line, col, n)
				continue
			}
			vals[col] = n
		}

		if brand == "" || monthErr != nil {
			continue
		}
		if seen[brand] == nil {
			seen[brand] = make(map[model.Month]int)
		}
		if first, dup := seen[brand][month]; dup {
			v.add("row %d: duplicate %s %s (first at row %d)", line, brand, month, first)
			continue
		}
		seen[brand][month] = line

		rec := model.MonthRecord{
			Month:              month,
			TTSGMV:             vals[ColTTSGMV],
			AmazonSales:        vals[ColAmazonSales],
			AmazonOrganic:      vals[ColAmazonOrganic],
			AmazonAdSales:      vals[ColAmazonAdSales],
			AmazonAdSpend:      vals[ColAmazonAdSpend],
			AmazonPageViews:    vals[ColAmazonPageViews],
			AmazonUnits:        vals[ColAmazonUnits],
			ContentImpressions: vals[ColContentImpressions],
			ContentVisitors:    vals[ColContentVisitors],
		}
		if !present[ColAmazonOrganic] {
			rec.AmazonOrganic = model.DeriveOrganic(rec.AmazonSales, rec.AmazonAdSales)
		}
		rec.Event, _ = cell(row, ColEvent)

		s, ok := byBrand[brand]
		if !ok {
			s = &model.BrandSeries{Brand: brand}
			byBrand[brand] = s
			order = append(order, brand)
		}
		s.Records = append(s.Records, rec)
	}

	if dataRows == 0 {
		v.add("input has no data rows")
	}
	if v.HasProblems() {
		return nil, v
	}

	p := &model.Portfolio{Series: make([]model.BrandSeries, 0, len(order))}
	for _, b := range order {
		p.Series = append(p.Series, *byBrand[b])
	}
	if err := Normalize(p); err != nil {
		return nil, err
	}
	return p, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}
