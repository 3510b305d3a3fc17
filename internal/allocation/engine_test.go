package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

const stageA = model.StageAnosIniciaisUrbano

func singleStageEngine(t *testing.T) *Engine {
	t.Helper()
	wt, err := config.NewWeightTable(
		map[model.Category]map[model.Stage]float64{
			model.VAAT: {stageA: 1.0},
			model.VAAF: {stageA: 1.0},
		},
		map[string]float64{"vaat_2025": 1000, "vaaf_2025": 1000},
	)
	require.NoError(t, err)
	e, err := New(wt)
	require.NoError(t, err)
	return e
}

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	wt, err := config.DefaultWeights()
	require.NoError(t, err)
	e, err := New(wt)
	require.NoError(t, err)
	return e
}

func municipality(enrollment map[model.Stage]int64, vaat, vaaf bool) model.Municipality {
	return model.Municipality{
		Code:         "4100103",
		Name:         "Abatiá",
		UF:           "PR",
		Population:   7000,
		NSE:          50,
		DRec:         1.0,
		Enrollment:   enrollment,
		EligibleVAAT: vaat,
		EligibleVAAF: vaaf,
	}
}

func TestSocioeconomicFactor(t *testing.T) {
	tests := []struct {
		nse  float64
		want float64
	}{
		{-10, 0.95},
		{0, 0.95},
		{35, 0.985},
		{50, 1.0},
		{65, 1.015},
		{100, 1.05},
		{250, 1.05},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, SocioeconomicFactor(tt.nse), 1e-12, "nse=%v", tt.nse)
	}
}

func TestAdjustedEnrollment_DropsUnweightedStages(t *testing.T) {
	e := defaultEngine(t)
	adj := e.AdjustedEnrollment(map[model.Stage]int64{
		model.StageCrecheIntegral:    10,
		model.StageEnsinoMedioUrbano: 50,
	}, model.VAAT, 50, 1.0)

	require.Len(t, adj, 1)
	assert.InDelta(t, 19.0, adj[model.StageCrecheIntegral], 1e-9)
	_, ok := adj[model.StageEnsinoMedioUrbano]
	assert.False(t, ok, "ensino_medio_urbano has no VAAT weight and must be excluded")
}

func TestAdjustedEnrollment_AppliesFactorAndDRec(t *testing.T) {
	e := defaultEngine(t)
	adj := e.AdjustedEnrollment(map[model.Stage]int64{model.StageCrecheIntegral: 100}, model.VAAT, 65, 1.035)
	assert.InDelta(t, 100*1.90*1.015*1.035, adj[model.StageCrecheIntegral], 1e-9)
}

func TestCategory_EndToEndDemo(t *testing.T) {
	e := singleStageEngine(t)
	m := municipality(map[model.Stage]int64{stageA: 100}, true, false)

	res := e.Category(m, model.VAAT, nil)

	assert.True(t, res.Eligible)
	assert.True(t, res.Demo)
	assert.InDelta(t, 0.2, res.Total, 1e-12)
	require.Contains(t, res.Breakdown, stageA)
	b := res.Breakdown[stageA]
	assert.Equal(t, int64(100), b.RawEnrollment)
	assert.InDelta(t, 100.0, b.AdjustedEnrollment, 1e-9)
	assert.InDelta(t, 0.2, b.Amount, 1e-12)
	assert.InDelta(t, 1.0, b.EffectiveWeight, 1e-12)
}

func TestCategory_Ineligible(t *testing.T) {
	e := singleStageEngine(t)
	m := municipality(map[model.Stage]int64{stageA: 100}, false, false)

	res := e.Category(m, model.VAAT, nil)

	assert.False(t, res.Eligible)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Breakdown)
	assert.False(t, res.Demo)
}

func TestCategory_ZeroEnrollment(t *testing.T) {
	e := singleStageEngine(t)
	m := municipality(map[model.Stage]int64{stageA: 0}, true, true)

	res := e.Category(m, model.VAAT, nil)

	assert.True(t, res.Eligible)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Breakdown)
	assert.True(t, res.Demo, "no national total means demo mode")

	national := 5000.0
	assert.False(t, e.Category(m, model.VAAT, &national).Demo)
}

func TestCategory_EffectiveWeightZeroForZeroRaw(t *testing.T) {
	e := defaultEngine(t)
	m := municipality(map[model.Stage]int64{
		model.StageCrecheIntegral: 0,
		model.StageEJA:            40,
	}, true, true)

	res := e.Category(m, model.VAAT, nil)

	require.Contains(t, res.Breakdown, model.StageCrecheIntegral)
	assert.Zero(t, res.Breakdown[model.StageCrecheIntegral].EffectiveWeight)
	assert.Zero(t, res.Breakdown[model.StageCrecheIntegral].Amount)
	assert.InDelta(t, 0.80, res.Breakdown[model.StageEJA].EffectiveWeight, 1e-12)
}

func TestCategory_RealNationalTotal(t *testing.T) {
	e := singleStageEngine(t)
	m := municipality(map[model.Stage]int64{stageA: 100}, true, false)
	national := 1000.0

	res := e.Category(m, model.VAAT, &national)

	assert.False(t, res.Demo)
	assert.InDelta(t, 100.0, res.Total, 1e-9, "100 of 1000 adjusted enrollments gets 10%% of the pool")
}

func TestCategory_NonPositiveNationalFallsBackToDemo(t *testing.T) {
	e := singleStageEngine(t)
	m := municipality(map[model.Stage]int64{stageA: 100}, true, false)
	zero := 0.0

	res := e.Category(m, model.VAAT, &zero)

	assert.True(t, res.Demo)
	assert.InDelta(t, 0.2, res.Total, 1e-12)
}

func TestCategory_BreakdownPartitionsTotal(t *testing.T) {
	e := defaultEngine(t)
	m := municipality(map[model.Stage]int64{
		model.StageCrecheIntegral:     120,
		model.StageCrecheParcial:      180,
		model.StagePreEscolaIntegral:  90,
		model.StagePreEscolaParcial:   240,
		model.StageAnosIniciaisUrbano: 700,
		model.StageAnosIniciaisRural:  35,
		model.StageAnosFinaisUrbano:   510,
		model.StageAnosFinaisRural:    12,
		model.StageEnsinoMedioUrbano:  300,
		model.StageEJA:                77,
		model.StageEducacaoEspecial:   21,
	}, true, true)
	m.NSE = 41.5
	m.DRec = 0.974

	for _, cat := range model.Categories() {
		national := 3_500_000.0
		for _, n := range []*float64{nil, &national} {
			res := e.Category(m, cat, n)
			require.NotEmpty(t, res.Breakdown)

			var sum float64
			for _, s := range res.Stages() {
				sum += res.Breakdown[s].Amount
			}
			assert.InDelta(t, res.Total, sum, res.Total*1e-9, "category %s", cat)
		}
	}
}

func TestCompute_Composite(t *testing.T) {
	e := defaultEngine(t)
	m := municipality(map[model.Stage]int64{
		model.StageCrecheIntegral:    10,
		model.StageEnsinoMedioUrbano: 20,
	}, true, false)

	r := e.Compute(m)

	assert.Equal(t, "Abatiá", r.Municipality)
	assert.Equal(t, "PR", r.UF)
	assert.Equal(t, int64(30), r.TotalEnrollment, "total counts every stage, weighted or not")
	assert.True(t, r.VAAT.Eligible)
	assert.False(t, r.VAAF.Eligible)
	assert.Zero(t, r.VAAF.Total)
	assert.InDelta(t, r.VAAT.Total+r.VAAF.Total, r.Total, 1e-9)
	assert.InDelta(t, 24_200_000_000.0/DemoShareDivisor, r.VAAT.Total, 1e-3)
	assert.True(t, r.Demo())
}

func TestCompute_Idempotent(t *testing.T) {
	e := defaultEngine(t)
	m := municipality(map[model.Stage]int64{
		model.StageCrecheIntegral:     13,
		model.StageCrecheParcial:      17,
		model.StagePreEscolaParcial:   19,
		model.StageAnosIniciaisUrbano: 23,
		model.StageEducacaoEspecial:   29,
	}, true, true)
	m.NSE = 37.3
	m.DRec = 0.961

	first := e.Compute(m)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, e.Compute(m))
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	e := defaultEngine(t)
	m := municipality(map[model.Stage]int64{model.StageCrecheIntegral: 10}, true, true)
	before := m.Clone()

	_ = e.Compute(m)

	assert.Equal(t, before, m)
}

func TestNew_MissingYearFails(t *testing.T) {
	wt, err := config.DefaultWeights()
	require.NoError(t, err)

	_, err = New(wt, WithYear(2031))
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}
