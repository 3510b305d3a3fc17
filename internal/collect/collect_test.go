package collect

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/ibge"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

func TestSynthesizeEnrollment(t *testing.T) {
	got := SynthesizeEnrollment("4106902", 1829225)
	assert.Equal(t, int64(30730), got[model.StageCrecheIntegral])
	assert.Equal(t, int64(107558), got[model.StageAnosIniciaisUrbano])
	assert.Equal(t, int64(7682), got[model.StageEducacaoEspecial])
	assert.Len(t, got, len(model.AllStages()))
}

func TestSynthesizeEnrollment_ZeroPopulationUsesFallback(t *testing.T) {
	got := SynthesizeEnrollment("1234560", 0)
	assert.Equal(t, int64(80), got[model.StageCrecheIntegral])
	assert.Equal(t, int64(280), got[model.StageAnosIniciaisUrbano])
	assert.Equal(t, int64(40), got[model.StageEJA])
}

func TestSynthesizeIndices(t *testing.T) {
	tests := []struct {
		name     string
		code, uf string
		pop      int64
		nse      float64
		drec     float64
	}{
		{"large capital", "4106902", "PR", 1829225, 53.5, 1.012},
		{"small town", "4100103", "PR", 7209, 46.0, 0.987},
		{"clamped floor", "2100050", "MA", 1000, 35, 0.95},
		{"ceiling", "5300109", "DF", 600000, 65, 1.05},
		{"unknown uf", "0000005", "XX", 50000, 45, 0.983},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nse, drec := SynthesizeIndices(tt.code, tt.uf, tt.pop)
			assert.InDelta(t, tt.nse, nse, 1e-9)
			assert.InDelta(t, tt.drec, drec, 1e-9)
		})
	}
}

func TestSynthesizeEligibility(t *testing.T) {
	vaat, vaaf := SynthesizeEligibility("PI", 43)
	assert.True(t, vaat)
	assert.True(t, vaaf)

	vaat, vaaf = SynthesizeEligibility("SP", 58.5)
	assert.False(t, vaat)
	assert.False(t, vaaf)
}

type fakeSource struct {
	munis   []ibge.Municipality
	skipped []string
	pop     map[string]int64
	err     error
}

func (f fakeSource) Municipalities(context.Context) ([]ibge.Municipality, []string, error) {
	return f.munis, f.skipped, f.err
}

func (f fakeSource) Population(context.Context, int) (map[string]int64, error) {
	return f.pop, nil
}

func TestRun(t *testing.T) {
	src := fakeSource{
		munis: []ibge.Municipality{
			{Code: "2211001", Name: "Teresina", UF: "PI"},
			{Code: "4106902", Name: "Curitiba", UF: "PR"},
			{Code: "4100103", Name: "Abatiá", UF: "PR"},
		},
		skipped: []string{"Sem Região"},
		pop:     map[string]int64{"4106902": 1829225, "2211001": 902644},
	}

	var calls int
	res, err := Run(context.Background(), src, Options{
		Progress: func(current, total int) {
			calls++
			assert.Equal(t, 3, total)
			assert.Equal(t, calls, current)
		},
		Log: zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, res.WithPopulation)
	assert.Equal(t, []string{"Sem Região"}, res.Skipped)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "PI", res.Records[0].UF)
	assert.Equal(t, "Abatiá", res.Records[1].Name)
	assert.Equal(t, int64(0), res.Records[1].Population)
	assert.NotEmpty(t, res.Records[1].Enrollment, "missing population still yields estimates")
}

func TestRun_SourceError(t *testing.T) {
	_, err := Run(context.Background(), fakeSource{err: errors.New("boom")}, Options{Log: zerolog.Nop()})
	assert.Error(t, err)
}

func TestWriteJSON_LoadsAsCatalog(t *testing.T) {
	records := []model.Municipality{
		Build(ibge.Municipality{Code: "4106902", Name: "Curitiba", UF: "PR"}, 1829225),
		Build(ibge.Municipality{Code: "2211001", Name: "Teresina", UF: "PI"}, 902644),
	}
	path := filepath.Join(t.TempDir(), "dados", "municipios.json")

	require.NoError(t, WriteJSON(path, records))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	m, err := c.Find("2211001")
	require.NoError(t, err)
	assert.True(t, m.EligibleVAAF)
	assert.InDelta(t, 43.0, m.NSE, 1e-9)
}
