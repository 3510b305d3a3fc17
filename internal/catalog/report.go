package catalog

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

// UFCount is the number of municipalities in one state.
type UFCount struct {
	UF    string
	Count int
}

// Extreme names the municipality holding a minimum or maximum.
type Extreme struct {
	Value float64
	Name  string
	UF    string
}

// Spread summarizes one numeric column.
type Spread struct {
	Mean float64
	Min  float64
	Max  float64
}

// PopulationStats summarizes the population column.
type PopulationStats struct {
	Total  int64
	Mean   float64
	Median float64
	Max    Extreme
	Min    Extreme
}

// Report is the statistical profile of a set of records.
type Report struct {
	Municipalities int
	EligibleVAAT   int
	EligibleVAAF   int
	ByUF           []UFCount
	Population     PopulationStats
	NSE            Spread
	DRec           Spread
}

// BuildReport profiles records. An empty slice yields a zero report.
func BuildReport(records []model.Municipality) Report {
	r := Report{Municipalities: len(records)}
	if len(records) == 0 {
		return r
	}

	pop := make([]float64, len(records))
	nse := make([]float64, len(records))
	drec := make([]float64, len(records))
	counts := make(map[string]int)

	for i, m := range records {
		pop[i] = float64(m.Population)
		nse[i] = m.NSE
		drec[i] = m.DRec
		r.Population.Total += m.Population
		counts[m.UF]++
		if m.EligibleVAAT {
			r.EligibleVAAT++
		}
		if m.EligibleVAAF {
			r.EligibleVAAF++
		}
	}

	for uf, n := range counts {
		r.ByUF = append(r.ByUF, UFCount{UF: uf, Count: n})
	}
	sort.Slice(r.ByUF, func(i, j int) bool {
		if r.ByUF[i].Count != r.ByUF[j].Count {
			return r.ByUF[i].Count > r.ByUF[j].Count
		}
		return r.ByUF[i].UF < r.ByUF[j].UF
	})

	r.Population.Mean = stat.Mean(pop, nil)
	maxIdx, minIdx := floats.MaxIdx(pop), floats.MinIdx(pop)
	r.Population.Max = Extreme{Value: pop[maxIdx], Name: records[maxIdx].Name, UF: records[maxIdx].UF}
	r.Population.Min = Extreme{Value: pop[minIdx], Name: records[minIdx].Name, UF: records[minIdx].UF}

	sorted := make([]float64, len(pop))
	copy(sorted, pop)
	sort.Float64s(sorted)
	r.Population.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	r.NSE = spread(nse)
	r.DRec = spread(drec)
	return r
}

func spread(x []float64) Spread {
	return Spread{Mean: stat.Mean(x, nil), Min: floats.Min(x), Max: floats.Max(x)}
}
