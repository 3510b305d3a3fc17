package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

const maxRequestBody = 64 << 10

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type nationalBody struct {
	VAAT *float64 `json:"vaat,omitempty"`
	VAAF *float64 `json:"vaaf,omitempty"`
}

type scenarioRequest struct {
	Enrollment map[string]int64 `json:"matriculas,omitempty"`
	National   *nationalBody    `json:"national,omitempty"`
}

type chatRequest struct {
	Question   string              `json:"question"`
	History    []assistant.Message `json:"history,omitempty"`
	Code       string              `json:"codigo_ibge,omitempty"`
	Enrollment map[string]int64    `json:"matriculas,omitempty"`
}

type chatResponse struct {
	Answer       string                  `json:"answer"`
	Model        string                  `json:"model"`
	StopReason   string                  `json:"stop_reason,omitempty"`
	InputTokens  int64                   `json:"input_tokens"`
	OutputTokens int64                   `json:"output_tokens"`
	Allocation   *model.AllocationResult `json:"allocation,omitempty"`
}

type weightsResponse struct {
	Year  int                                        `json:"ano"`
	Rules map[model.Category]map[model.Stage]float64 `json:"ponderadores"`
	Pools map[model.Category]float64                 `json:"complementacao_uniao"`
}

type municipalitySummary struct {
	Code         string  `json:"codigo_ibge"`
	Name         string  `json:"nome"`
	UF           string  `json:"uf"`
	Population   int64   `json:"populacao"`
	NSE          float64 `json:"nse"`
	DRec         float64 `json:"drec"`
	Enrollment   int64   `json:"matriculas_totais"`
	EligibleVAAT bool    `json:"elegivel_vaat"`
	EligibleVAAF bool    `json:"elegivel_vaaf"`
}

func summarize(m model.Municipality) municipalitySummary {
	return municipalitySummary{
		Code:         m.Code,
		Name:         m.Name,
		UF:           m.UF,
		Population:   m.Population,
		NSE:          m.NSE,
		DRec:         m.DRec,
		Enrollment:   m.TotalEnrollment(),
		EligibleVAAT: m.EligibleVAAT,
		EligibleVAAF: m.EligibleVAAF,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleWeights(w http.ResponseWriter, _ *http.Request) {
	e := s.cfg.Engine
	resp := weightsResponse{
		Year:  e.Year(),
		Rules: make(map[model.Category]map[model.Stage]float64),
		Pools: make(map[model.Category]float64),
	}
	for _, cat := range model.Categories() {
		rules := make(map[model.Stage]float64)
		for _, st := range e.Weights().Stages(cat) {
			rules[st], _ = e.Weights().Weight(cat, st)
		}
		resp.Rules[cat] = rules
		resp.Pools[cat] = e.Pool(cat)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUFs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Catalog.UFs())
}

func (s *Server) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	uf := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("uf")))
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var records []model.Municipality
	switch {
	case q != "":
		records = s.cfg.Catalog.Search(q, uf)
	case uf != "":
		records = s.cfg.Catalog.ByUF(uf)
	default:
		records = s.cfg.Catalog.All()
	}

	out := make([]municipalitySummary, 0, len(records))
	for _, m := range records {
		out = append(out, summarize(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMunicipality(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	result := s.cfg.Engine.ComputeWith(m, s.national)
	s.metrics.observeAllocation("current", result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req scenarioRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.scenario(m, req.Enrollment, req.National)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.observeAllocation("scenario", result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Assistant == nil {
		s.metrics.chat.WithLabelValues("unavailable").Inc()
		writeError(w, r, http.StatusServiceUnavailable, "assistant not configured: set ANTHROPIC_API_KEY")
		return
	}
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	result := s.cfg.Engine.ComputeWith(m, s.national)
	reply, err := s.cfg.Assistant.Explain(r.Context(), result)
	if err != nil {
		s.assistantError(w, r, err)
		return
	}
	s.metrics.chat.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, newChatResponse(reply, &result))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Assistant == nil {
		s.metrics.chat.WithLabelValues("unavailable").Inc()
		writeError(w, r, http.StatusServiceUnavailable, "assistant not configured: set ANTHROPIC_API_KEY")
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}
	for _, msg := range req.History {
		if msg.Role != assistant.RoleUser && msg.Role != assistant.RoleAssistant {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid history role %q", msg.Role))
			return
		}
	}

	var result *model.AllocationResult
	if req.Code != "" {
		m, err := s.cfg.Catalog.Find(req.Code)
		if err != nil {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		res, err := s.scenario(m, req.Enrollment, nil)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		result = &res
	}

	reply, err := s.cfg.Assistant.Ask(r.Context(), req.Question, result, req.History)
	if err != nil {
		s.assistantError(w, r, err)
		return
	}
	s.metrics.chat.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, newChatResponse(reply, result))
}

func (s *Server) assistantError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Warn().Err(err).Msg("assistant request failed")
	switch {
	case errors.Is(err, assistant.ErrRateLimited):
		s.metrics.chat.WithLabelValues("rate_limited").Inc()
		writeError(w, r, http.StatusTooManyRequests, err.Error())
	default:
		s.metrics.chat.WithLabelValues("error").Inc()
		writeError(w, r, http.StatusBadGateway, err.Error())
	}
}

// scenario applies enrollment overrides to a copy of m and computes it.
// With real national totals, m's contribution is rebased onto the edit;
// explicit totals in national take precedence per category.
func (s *Server) scenario(m model.Municipality, raw map[string]int64, national *nationalBody) (model.AllocationResult, error) {
	edited := m
	totals := s.national
	if len(raw) > 0 {
		overrides := make(map[model.Stage]int64, len(raw))
		for k, v := range raw {
			st, err := model.ParseStage(k)
			if err != nil {
				return model.AllocationResult{}, err
			}
			overrides[st] = v
		}
		var err error
		edited, err = m.WithEnrollment(overrides)
		if err != nil {
			return model.AllocationResult{}, err
		}
		totals = s.cfg.Engine.Rebase(s.national, m, edited)
	}
	if national != nil {
		if national.VAAT != nil {
			totals.VAAT = national.VAAT
		}
		if national.VAAF != nil {
			totals.VAAF = national.VAAF
		}
	}
	return s.cfg.Engine.ComputeWith(edited, totals), nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.Municipality, bool) {
	m, err := s.cfg.Catalog.Find(chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
		} else {
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return model.Municipality{}, false
	}
	return m, true
}

func newChatResponse(reply assistant.Reply, result *model.AllocationResult) chatResponse {
	return chatResponse{
		Answer:       reply.Text,
		Model:        reply.Model,
		StopReason:   reply.StopReason,
		InputTokens:  reply.Usage.InputTokens,
		OutputTokens: reply.Usage.OutputTokens,
		Allocation:   result,
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body is accepted
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
