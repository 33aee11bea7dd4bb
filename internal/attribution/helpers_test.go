package attribution

import (
	"github.com/sells-group/lift-cli/internal/model"
)

// monthly builds a series of n months starting at start, filling each
// record with fill(i).
func monthly(brand string, start model.Month, n int, fill func(i int, r *model.MonthRecord)) model.BrandSeries {
	s := model.BrandSeries{Brand: model.BrandKey(brand)}
	m := start
	for i := 0; i < n; i++ {
		r := model.MonthRecord{Month: m}
		if fill != nil {
			fill(i, &r)
		}
		s.Records = append(s.Records, r)
		m = m.Next()
	}
	return s
}

func jan(year int) model.Month { return model.Month{Year: year, Month: 1} }
