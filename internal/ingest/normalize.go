package ingest

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/model"
)

// Normalize sorts each brand's records chronologically and zero-fills
// missing months between its first and last month. Duplicate months are an
// alignment error.
func Normalize(p *model.Portfolio) error {
	for i := range p.Series {
		s := &p.Series[i]
		sort.SliceStable(s.Records, func(a, b int) bool {
			return s.Records[a].Month.Before(s.Records[b].Month)
		})
		filled := make([]model.MonthRecord, 0, len(s.Records))
		for j, r := range s.Records {
			if j > 0 {
				prev := s.Records[j-1].Month
				if !prev.Before(r.Month) {
					return eris.Wrapf(model.ErrMisaligned, "ingest: brand %s has month %s twice", s.Brand, r.Month)
				}
				for m := prev.Next(); m.Before(r.Month); m = m.Next() {
					filled = append(filled, model.MonthRecord{Month: m})
				}
			}
			filled = append(filled, r)
		}
		s.Records = filled
	}
	return p.Validate()
}
