package model

import "sort"

// StageBreakdown is one stage's contribution to a category allocation.
type StageBreakdown struct {
	RawEnrollment      int64   `json:"matriculas_brutas"`
	AdjustedEnrollment float64 `json:"matriculas_ajustadas"`
	Amount             float64 `json:"valor_complementacao"`
	EffectiveWeight    float64 `json:"ponderador_efetivo"`
}

// CategoryResult holds one category's allocation for a municipality.
type CategoryResult struct {
	Total     float64                  `json:"valor_total"`
	Eligible  bool                     `json:"elegivel"`
	Breakdown map[Stage]StageBreakdown `json:"detalhamento"`

	// Demo is set when the national denominator was the placeholder
	// approximation rather than a real aggregate.
	Demo bool `json:"modo_demonstracao"`
}

// Stages returns the breakdown keys in canonical stage order.
func (r CategoryResult) Stages() []Stage {
	out := make([]Stage, 0, len(r.Breakdown))
	for s := range r.Breakdown {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// AdjustedTotal sums the adjusted enrollment across the breakdown.
func (r CategoryResult) AdjustedTotal() float64 {
	var total float64
	for _, s := range r.Stages() {
		total += r.Breakdown[s].AdjustedEnrollment
	}
	return total
}

// AllocationResult is the composite result for one municipality.
type AllocationResult struct {
	Municipality string  `json:"municipio"`
	UF           string  `json:"uf"`
	Code         string  `json:"codigo_ibge"`
	NSE          float64 `json:"nse"`
	DRec         float64 `json:"drec"`

	VAAT CategoryResult `json:"vaat"`
	VAAF CategoryResult `json:"vaaf"`

	Total           float64 `json:"total_complementacoes"`
	TotalEnrollment int64   `json:"matriculas_totais"`
}

// Category returns the sub-result for c.
func (r AllocationResult) Category(c Category) CategoryResult {
	if c == VAAF {
		return r.VAAF
	}
	return r.VAAT
}

// Demo reports whether either category used the placeholder denominator.
func (r AllocationResult) Demo() bool {
	return r.VAAT.Demo || r.VAAF.Demo
}
