package ibge

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/store"
)

const municipiosJSON = `[
  {"id":4106902,"nome":"Curitiba",
   "microrregiao":{"id":41037,"nome":"Curitiba","mesorregiao":{"id":4110,"nome":"Metropolitana de Curitiba",
     "UF":{"id":41,"sigla":"PR","nome":"Paraná"}}},
   "regiao-imediata":{"id":410001,"nome":"Curitiba","regiao-intermediaria":{"id":4101,"nome":"Curitiba",
     "UF":{"id":41,"sigla":"PR","nome":"Paraná"}}}},
  {"id":5006275,"nome":"Paraíso das Águas","microrregiao":null,
   "regiao-imediata":{"id":500004,"nome":"Paranaíba","regiao-intermediaria":{"id":5002,"nome":"Três Lagoas",
     "UF":{"id":50,"sigla":"MS","nome":"Mato Grosso do Sul"}}}},
  {"id":9999999,"nome":"Sem Região","microrregiao":null,"regiao-imediata":null}
]`

const populacaoJSON = `[{"id":"9324","variavel":"População residente estimada","resultados":[{"series":[
  {"localidade":{"id":"4106902","nome":"Curitiba - PR"},"serie":{"2024":"1829225"}},
  {"localidade":{"id":"5006275","nome":"Paraíso das Águas - MS"},"serie":{"2024":"..."}},
  {"localidade":{"id":"1100015","nome":"Alta Floresta D'Oeste - RO"},"serie":{"2024":"-"}}
]}]}]`

func fakeIBGE(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/localidades/municipios", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(hits, 1)
		_, _ = w.Write([]byte(municipiosJSON))
	})
	mux.HandleFunc("/v3/agregados/6579/periodos/2024/variaveis/9324", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "N6[all]", r.URL.Query().Get("localidades"))
		_, _ = w.Write([]byte(populacaoJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMunicipalities(t *testing.T) {
	var hits int32
	srv := fakeIBGE(t, &hits)
	c := NewClient(WithBaseURL(srv.URL))

	got, skipped, err := c.Municipalities(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Municipality{Code: "4106902", Name: "Curitiba", UF: "PR"}, got[0])
	assert.Equal(t, "MS", got[1].UF, "falls back to regiao-imediata hierarchy")
	assert.Equal(t, []string{"Sem Região"}, skipped)
}

func TestPopulation(t *testing.T) {
	var hits int32
	srv := fakeIBGE(t, &hits)
	c := NewClient(WithBaseURL(srv.URL))

	pop, err := c.Population(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, int64(1829225), pop["4106902"])
	assert.Equal(t, int64(0), pop["5006275"])
	assert.Equal(t, int64(0), pop["1100015"])
}

func TestCacheServesRepeatRequests(t *testing.T) {
	var hits int32
	srv := fakeIBGE(t, &hits)

	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	var cachedCalls int
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache, 0))
	c.OnFetch = func(_ string, cached bool) {
		if cached {
			cachedCalls++
		}
	}

	for i := 0; i < 3; i++ {
		_, _, err := c.Municipalities(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, cachedCalls)
}

func TestCacheFailuresAreLogged(t *testing.T) {
	var hits int32
	srv := fakeIBGE(t, &hits)

	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	var buf bytes.Buffer
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache, 0), WithLogger(zerolog.New(&buf)))

	got, _, err := c.Municipalities(context.Background())
	require.NoError(t, err, "a broken cache does not fail the fetch")
	assert.Len(t, got, 2)
	assert.Contains(t, buf.String(), "cache read failed")
	assert.Contains(t, buf.String(), "cache write failed")
}

func TestStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/localidades/municipios" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, _, err := c.Municipalities(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = c.Population(context.Background(), 2024)
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(42), parseCount(" 42 "))
	assert.Equal(t, int64(0), parseCount("..."))
	assert.Equal(t, int64(0), parseCount("abc"))
	assert.Equal(t, int64(0), parseCount("-5"))
}
