package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

const teresina = "2211001"

type fixture struct {
	srv     *Server
	engine  *allocation.Engine
	catalog *catalog.Catalog
}

func newFixture(t *testing.T, mutate func(*Config)) fixture {
	t.Helper()
	wt, err := config.DefaultWeights()
	require.NoError(t, err)
	e, err := allocation.New(wt)
	require.NoError(t, err)
	cat, err := catalog.Sample()
	require.NoError(t, err)

	cfg := Config{Log: zerolog.Nop(), Catalog: cat, Engine: e}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return fixture{srv: s, engine: e, catalog: cat}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth_SetsRequestID(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)
}

func TestRequestID_HonorsCallerUUID(t *testing.T) {
	f := newFixture(t, nil)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestUFsAndSearch(t *testing.T) {
	f := newFixture(t, nil)

	ufs := decode[[]string](t, f.do(t, http.MethodGet, "/api/ufs", ""))
	assert.Contains(t, ufs, "PI")
	assert.Equal(t, f.catalog.UFs(), ufs)

	byUF := decode[[]municipalitySummary](t, f.do(t, http.MethodGet, "/api/municipalities?uf=pi", ""))
	require.Len(t, byUF, 1)
	assert.Equal(t, "Teresina", byUF[0].Name)

	found := decode[[]municipalitySummary](t, f.do(t, http.MethodGet, "/api/municipalities?q=juazeiro", ""))
	assert.Len(t, found, 2)

	all := decode[[]municipalitySummary](t, f.do(t, http.MethodGet, "/api/municipalities", ""))
	assert.Len(t, all, f.catalog.Len())
}

func TestMunicipality_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/municipalities/0000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Contains(t, body.Error, "not found")
	assert.NotEmpty(t, body.RequestID)
}

func TestMunicipality_Found(t *testing.T) {
	f := newFixture(t, nil)

	m := decode[model.Municipality](t, f.do(t, http.MethodGet, "/api/municipalities/"+teresina, ""))
	want, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestWeights(t *testing.T) {
	f := newFixture(t, nil)

	w := decode[weightsResponse](t, f.do(t, http.MethodGet, "/api/weights", ""))
	assert.Equal(t, 2025, w.Year)
	assert.InDelta(t, 24.2e9, w.Pools[model.VAAT], 1)
	assert.InDelta(t, 26.9e9, w.Pools[model.VAAF], 1)
	_, ok := w.Rules[model.VAAT][model.StageEnsinoMedioUrbano]
	assert.False(t, ok, "VAAT table has no urban high school weight")
	assert.InDelta(t, 1.25, w.Rules[model.VAAF][model.StageEnsinoMedioUrbano], 1e-9)
}

func TestAllocation_DemoMode(t *testing.T) {
	f := newFixture(t, nil)

	got := decode[model.AllocationResult](t, f.do(t, http.MethodGet, "/api/municipalities/"+teresina+"/allocation", ""))
	m, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	want := f.engine.Compute(m)

	assert.True(t, got.Demo())
	assert.InDelta(t, want.Total, got.Total, 1e-6)
	assert.InDelta(t, want.VAAT.Total, got.VAAT.Total, 1e-6)
}

func TestScenario_OverridesEnrollment(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/municipalities/" + teresina + "/allocation"

	rec := f.do(t, http.MethodPost, path, `{"matriculas":{"creche_integral":50000}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[model.AllocationResult](t, rec)

	m, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	edited, err := m.WithEnrollment(map[model.Stage]int64{model.StageCrecheIntegral: 50000})
	require.NoError(t, err)
	want := f.engine.Compute(edited)

	assert.InDelta(t, want.Total, got.Total, 1e-6)
	assert.Equal(t, int64(50000), got.VAAT.Breakdown[model.StageCrecheIntegral].RawEnrollment)

	// The catalog record is untouched.
	again, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestScenario_EmptyBodyMatchesCurrent(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/municipalities/" + teresina + "/allocation"

	current := decode[model.AllocationResult](t, f.do(t, http.MethodGet, path, ""))
	rec := f.do(t, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, current, decode[model.AllocationResult](t, rec))
}

func TestScenario_ExplicitNational(t *testing.T) {
	f := newFixture(t, nil)
	m, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	adj := f.engine.AdjustedTotal(m, model.VAAT)

	body, err := json.Marshal(scenarioRequest{National: &nationalBody{VAAT: ptr(adj * 4)}})
	require.NoError(t, err)
	rec := f.do(t, http.MethodPost, "/api/municipalities/"+teresina+"/allocation", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[model.AllocationResult](t, rec)

	assert.False(t, got.VAAT.Demo)
	assert.InDelta(t, 24.2e9/4, got.VAAT.Total, 1)
	assert.True(t, got.VAAF.Demo)
}

func TestScenario_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/municipalities/" + teresina + "/allocation"

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown stage", `{"matriculas":{"doutorado":10}}`, http.StatusUnprocessableEntity},
		{"negative count", `{"matriculas":{"creche_integral":-1}}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"foo":1}`, http.StatusBadRequest},
		{"malformed", `{"matriculas":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestRealNational(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RealNational = true })

	st := decode[Status](t, f.do(t, http.MethodGet, "/api/status", ""))
	assert.False(t, st.Demo)
	assert.False(t, st.Assistant)

	got := decode[model.AllocationResult](t, f.do(t, http.MethodGet, "/api/municipalities/"+teresina+"/allocation", ""))
	assert.False(t, got.Demo())

	national := f.engine.NationalTotals(f.catalog.All())
	m, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	assert.InDelta(t, f.engine.ComputeWith(m, national).Total, got.Total, 1e-6)
}

func TestRealNational_ScenarioRebases(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RealNational = true })

	rec := f.do(t, http.MethodPost, "/api/municipalities/"+teresina+"/allocation",
		`{"matriculas":{"creche_integral":0}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[model.AllocationResult](t, rec)

	m, err := f.catalog.Find(teresina)
	require.NoError(t, err)
	edited, err := m.WithEnrollment(map[model.Stage]int64{model.StageCrecheIntegral: 0})
	require.NoError(t, err)
	national := f.engine.Rebase(f.engine.NationalTotals(f.catalog.All()), m, edited)

	assert.InDelta(t, f.engine.ComputeWith(edited, national).Total, got.Total, 1e-6)
}

func TestChat_Unavailable(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/chat", `{"question":"O que é VAAT?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/municipalities/"+teresina+"/explain", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func fakeMessages(t *testing.T, status int, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			*capture = buf.String()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"msg_1","model":"claude-sonnet-4-5","stop_reason":"end_turn",
			"content":[{"type":"text","text":"Teresina recebe VAAT."}],
			"usage":{"input_tokens":300,"output_tokens":5}}`))
	}))
}

func TestChat_WithMunicipality(t *testing.T) {
	var sent string
	api := fakeMessages(t, http.StatusOK, &sent)
	defer api.Close()

	f := newFixture(t, func(c *Config) {
		c.Assistant = assistant.NewClient("test-key", assistant.WithBaseURL(api.URL))
	})

	rec := f.do(t, http.MethodPost, "/api/chat",
		`{"question":"Quanto recebe?","codigo_ibge":"2211001","history":[{"role":"user","content":"oi"},{"role":"assistant","content":"olá"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[chatResponse](t, rec)
	assert.Equal(t, "Teresina recebe VAAT.", resp.Answer)
	assert.Equal(t, int64(300), resp.InputTokens)
	require.NotNil(t, resp.Allocation)
	assert.Equal(t, teresina, resp.Allocation.Code)
	assert.Contains(t, sent, "Teresina")
	assert.Contains(t, sent, "Quanto recebe?")
}

func TestChat_Validation(t *testing.T) {
	api := fakeMessages(t, http.StatusOK, nil)
	defer api.Close()
	f := newFixture(t, func(c *Config) {
		c.Assistant = assistant.NewClient("test-key", assistant.WithBaseURL(api.URL))
	})

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/chat", `{"question":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodPost, "/api/chat", `{"question":"x","history":[{"role":"system","content":"y"}]}`).Code)
	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/api/chat", `{"question":"x","codigo_ibge":"9999999"}`).Code)
}

func TestChat_RateLimited(t *testing.T) {
	api := fakeMessages(t, http.StatusTooManyRequests, nil)
	defer api.Close()
	f := newFixture(t, func(c *Config) {
		c.Assistant = assistant.NewClient("test-key", assistant.WithBaseURL(api.URL))
	})

	rec := f.do(t, http.MethodPost, "/api/chat", `{"question":"O que é VAAF?"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMetrics_RecordsRequests(t *testing.T) {
	f := newFixture(t, nil)

	f.do(t, http.MethodGet, "/health", "")
	f.do(t, http.MethodGet, "/api/municipalities/"+teresina+"/allocation", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fundeb_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `fundeb_allocations_total{kind="current",mode="demo"} 1`)
	assert.Contains(t, body, "fundeb_complement_brl")
}

func ptr(v float64) *float64 { return &v }
