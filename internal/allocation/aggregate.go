package allocation

import (
	"sort"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

// AdjustedTotal returns m's weighted enrollment for cat, or 0 when m is not
// eligible for it.
func (e *Engine) AdjustedTotal(m model.Municipality, cat model.Category) float64 {
	if !m.Eligible(cat) {
		return 0
	}
	return sumOrdered(e.AdjustedEnrollment(m.Enrollment, cat, m.NSE, m.DRec))
}

// NationalTotals sums adjusted enrollment over every eligible record, giving
// the real denominators for ComputeWith. A category with no eligible
// enrollment stays nil so callers fall back to demo mode for it.
func (e *Engine) NationalTotals(records []model.Municipality) NationalTotals {
	var out NationalTotals
	for _, cat := range model.Categories() {
		var total float64
		for _, m := range records {
			total += e.AdjustedTotal(m, cat)
		}
		if total <= 0 {
			continue
		}
		v := total
		if cat == model.VAAF {
			out.VAAF = &v
		} else {
			out.VAAT = &v
		}
	}
	return out
}

// UFSummary aggregates allocation results for one state.
type UFSummary struct {
	UF             string
	Municipalities int
	EligibleVAAT   int
	EligibleVAAF   int
	Enrollment     int64
	VAAT           float64
	VAAF           float64
	Total          float64
}

// CatalogSummary is the national roll-up of a catalog run.
type CatalogSummary struct {
	Municipalities int
	EligibleVAAT   int
	EligibleVAAF   int
	Enrollment     int64
	VAAT           float64
	VAAF           float64
	Total          float64
	Demo           bool
	States         []UFSummary
}

// Summarize computes every record against the given national totals and
// rolls the results up by state, sorted by total allocation descending.
func (e *Engine) Summarize(records []model.Municipality, national NationalTotals) CatalogSummary {
	byUF := make(map[string]*UFSummary)
	var s CatalogSummary

	for _, m := range records {
		r := e.ComputeWith(m, national)

		row, ok := byUF[m.UF]
		if !ok {
			row = &UFSummary{UF: m.UF}
			byUF[m.UF] = row
		}
		row.Municipalities++
		row.Enrollment += r.TotalEnrollment
		row.VAAT += r.VAAT.Total
		row.VAAF += r.VAAF.Total
		row.Total += r.Total
		if r.VAAT.Eligible {
			row.EligibleVAAT++
		}
		if r.VAAF.Eligible {
			row.EligibleVAAF++
		}

		s.Municipalities++
		s.Enrollment += r.TotalEnrollment
		s.VAAT += r.VAAT.Total
		s.VAAF += r.VAAF.Total
		s.Total += r.Total
		if r.VAAT.Eligible {
			s.EligibleVAAT++
		}
		if r.VAAF.Eligible {
			s.EligibleVAAF++
		}
		if r.Demo() {
			s.Demo = true
		}
	}

	s.States = make([]UFSummary, 0, len(byUF))
	for _, row := range byUF {
		s.States = append(s.States, *row)
	}
	sort.Slice(s.States, func(i, j int) bool {
		if s.States[i].Total != s.States[j].Total {
			return s.States[i].Total > s.States[j].Total
		}
		return s.States[i].UF < s.States[j].UF
	})
	return s
}

// Rebase adjusts real national totals for a scenario edit: before's
// contribution is replaced by after's so the denominator still covers the
// whole eligible pool. Nil totals stay nil.
func (e *Engine) Rebase(national NationalTotals, before, after model.Municipality) NationalTotals {
	var out NationalTotals
	for _, cat := range model.Categories() {
		cur := national.For(cat)
		if cur == nil {
			continue
		}
		v := *cur - e.AdjustedTotal(before, cat) + e.AdjustedTotal(after, cat)
		if v <= 0 {
			continue
		}
		if cat == model.VAAF {
			out.VAAF = &v
		} else {
			out.VAAT = &v
		}
	}
	return out
}
