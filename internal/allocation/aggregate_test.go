package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

func TestNationalTotals_SumsEligibleOnly(t *testing.T) {
	e := singleStageEngine(t)
	records := []model.Municipality{
		municipality(map[model.Stage]int64{stageA: 100}, true, false),
		municipality(map[model.Stage]int64{stageA: 300}, true, true),
		municipality(map[model.Stage]int64{stageA: 600}, false, false),
	}

	n := e.NationalTotals(records)

	require.NotNil(t, n.VAAT)
	require.NotNil(t, n.VAAF)
	assert.InDelta(t, 400.0, *n.VAAT, 1e-9)
	assert.InDelta(t, 300.0, *n.VAAF, 1e-9)
}

func TestNationalTotals_NoEligibleStaysNil(t *testing.T) {
	e := singleStageEngine(t)
	n := e.NationalTotals([]model.Municipality{
		municipality(map[model.Stage]int64{stageA: 100}, false, false),
	})
	assert.Nil(t, n.VAAT)
	assert.Nil(t, n.VAAF)
}

func TestSummarize_RealTotalsExhaustPool(t *testing.T) {
	e := singleStageEngine(t)
	a := municipality(map[model.Stage]int64{stageA: 100}, true, true)
	b := municipality(map[model.Stage]int64{stageA: 300}, true, false)
	b.UF = "SC"
	c := municipality(map[model.Stage]int64{stageA: 50}, false, false)
	records := []model.Municipality{a, b, c}

	s := e.Summarize(records, e.NationalTotals(records))

	assert.False(t, s.Demo)
	assert.Equal(t, 3, s.Municipalities)
	assert.Equal(t, 2, s.EligibleVAAT)
	assert.Equal(t, 1, s.EligibleVAAF)
	assert.InDelta(t, 1000.0, s.VAAT, 1e-6, "real denominators distribute the whole pool")
	assert.InDelta(t, 1000.0, s.VAAF, 1e-6)

	require.Len(t, s.States, 2)
	assert.Equal(t, "PR", s.States[0].UF)
	assert.InDelta(t, 250.0+1000.0, s.States[0].Total, 1e-6)
	assert.Equal(t, "SC", s.States[1].UF)
	assert.InDelta(t, 750.0, s.States[1].VAAT, 1e-6)
}

func TestSummarize_DemoFlag(t *testing.T) {
	e := singleStageEngine(t)
	s := e.Summarize([]model.Municipality{
		municipality(map[model.Stage]int64{stageA: 100}, true, false),
	}, NationalTotals{})
	assert.True(t, s.Demo)
}

func TestRebase_ReplacesContribution(t *testing.T) {
	e := singleStageEngine(t)
	base := municipality(map[model.Stage]int64{stageA: 100}, true, false)
	other := municipality(map[model.Stage]int64{stageA: 300}, true, false)
	national := e.NationalTotals([]model.Municipality{base, other})

	edited, err := base.WithEnrollment(map[model.Stage]int64{stageA: 200})
	require.NoError(t, err)

	rebased := e.Rebase(national, base, edited)

	require.NotNil(t, rebased.VAAT)
	assert.InDelta(t, 500.0, *rebased.VAAT, 1e-9)
	assert.Nil(t, rebased.VAAF)
	assert.InDelta(t, 400.0, *national.VAAT, 1e-9, "input totals untouched")

	r := e.ComputeWith(edited, rebased)
	assert.InDelta(t, 400.0, r.VAAT.Total, 1e-9)
}
