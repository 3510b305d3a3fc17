// Package allocation computes VAAT and VAAF complementation amounts for
// municipalities from weighted enrollment.
package allocation

import (
	"fmt"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

// DemoShareDivisor stands in for the national adjusted-enrollment total when
// no real aggregate is supplied: the municipality is assumed to be 1/5000 of
// the eligible pool.
const DemoShareDivisor = 5000

const (
	factorFloor = 0.95
	factorCeil  = 1.05
)

// Engine applies a weight table to municipality records. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	weights *config.WeightTable
	year    int
	pools   map[model.Category]float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithYear selects the category-year national pools. Defaults to config.DefaultYear.
func WithYear(year int) Option {
	return func(e *Engine) { e.year = year }
}

// New builds an engine. It fails when the table has no national pool for
// either category in the selected year.
func New(weights *config.WeightTable, opts ...Option) (*Engine, error) {
	if weights == nil {
		return nil, fmt.Errorf("allocation: nil weight table")
	}
	e := &Engine{
		weights: weights,
		year:    config.DefaultYear,
		pools:   make(map[model.Category]float64, 2),
	}
	for _, o := range opts {
		o(e)
	}
	for _, cat := range model.Categories() {
		pool, err := weights.Pool(cat, e.year)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		e.pools[cat] = pool
	}
	return e, nil
}

// Year returns the allocation year the engine was built for.
func (e *Engine) Year() int { return e.year }

// Weights returns the engine's weight table.
func (e *Engine) Weights() *config.WeightTable { return e.weights }

// Pool returns the national amount available for cat.
func (e *Engine) Pool(cat model.Category) float64 { return e.pools[cat] }

// SocioeconomicFactor maps an NSE index to a multiplier clamped to [0.95, 1.05].
func SocioeconomicFactor(nse float64) float64 {
	f := 0.95 + nse/1000
	return max(factorFloor, min(factorCeil, f))
}

// AdjustedEnrollment weights each stage's count for cat. Stages that carry no
// weight in cat are left out of the result.
func (e *Engine) AdjustedEnrollment(enrollment map[model.Stage]int64, cat model.Category, nse, drec float64) map[model.Stage]float64 {
	factor := SocioeconomicFactor(nse)
	out := make(map[model.Stage]float64, len(enrollment))
	for s, n := range enrollment {
		w, ok := e.weights.Weight(cat, s)
		if !ok {
			continue
		}
		out[s] = float64(n) * (w * factor * drec)
	}
	return out
}

// Category computes one category's allocation for m. A nil (or non-positive)
// national total falls back to the demo approximation and marks the result.
func (e *Engine) Category(m model.Municipality, cat model.Category, national *float64) model.CategoryResult {
	res := model.CategoryResult{
		Eligible:  m.Eligible(cat),
		Breakdown: map[model.Stage]model.StageBreakdown{},
	}
	if !res.Eligible {
		return res
	}

	res.Demo = national == nil || *national <= 0

	adjusted := e.AdjustedEnrollment(m.Enrollment, cat, m.NSE, m.DRec)
	total := sumOrdered(adjusted)
	if total == 0 {
		return res
	}

	denominator := total * DemoShareDivisor
	if !res.Demo {
		denominator = *national
	}

	res.Total = e.pools[cat] * (total / denominator)

	for s, adj := range adjusted {
		raw := m.Enrollment[s]
		var effective float64
		if raw > 0 {
			effective = adj / float64(raw)
		}
		res.Breakdown[s] = model.StageBreakdown{
			RawEnrollment:      raw,
			AdjustedEnrollment: adj,
			Amount:             res.Total * (adj / total),
			EffectiveWeight:    effective,
		}
	}
	return res
}

// NationalTotals carries optional real aggregates of adjusted enrollment.
// A nil field selects demo mode for that category.
type NationalTotals struct {
	VAAT *float64 `json:"vaat,omitempty"`
	VAAF *float64 `json:"vaaf,omitempty"`
}

// For returns the total for cat, or nil.
func (n NationalTotals) For(cat model.Category) *float64 {
	if cat == model.VAAF {
		return n.VAAF
	}
	return n.VAAT
}

// Compute runs both categories for m in demo mode.
func (e *Engine) Compute(m model.Municipality) model.AllocationResult {
	return e.ComputeWith(m, NationalTotals{})
}

// ComputeWith runs both categories for m using the given national totals.
func (e *Engine) ComputeWith(m model.Municipality, national NationalTotals) model.AllocationResult {
	vaat := e.Category(m, model.VAAT, national.VAAT)
	vaaf := e.Category(m, model.VAAF, national.VAAF)
	return model.AllocationResult{
		Municipality:    m.Name,
		UF:              m.UF,
		Code:            m.Code,
		NSE:             m.NSE,
		DRec:            m.DRec,
		VAAT:            vaat,
		VAAF:            vaaf,
		Total:           vaat.Total + vaaf.Total,
		TotalEnrollment: m.TotalEnrollment(),
	}
}

// sumOrdered adds values in canonical stage order so repeated calls produce
// bit-identical totals regardless of map iteration order.
func sumOrdered(values map[model.Stage]float64) float64 {
	var total float64
	for _, s := range model.AllStages() {
		total += values[s]
	}
	return total
}
