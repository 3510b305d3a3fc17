package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

func sampleResult() model.AllocationResult {
	return model.AllocationResult{
		Municipality: "Teresina",
		UF:           "PI",
		Code:         "2211001",
		NSE:          43.0,
		DRec:         0.977,
		VAAT: model.CategoryResult{
			Total:    4_840_000,
			Eligible: true,
			Demo:     true,
			Breakdown: map[model.Stage]model.StageBreakdown{
				model.StageCrecheIntegral: {RawEnrollment: 1000, AdjustedEnrollment: 1870.5, Amount: 4_840_000, EffectiveWeight: 1.8705},
			},
		},
		VAAF:            model.CategoryResult{Eligible: false, Breakdown: map[model.Stage]model.StageBreakdown{}},
		Total:           4_840_000,
		TotalEnrollment: 1000,
	}
}

func TestNewClient_EmptyKey(t *testing.T) {
	assert.Nil(t, NewClient(""))
	assert.Nil(t, NewClient("   "))
	assert.NotNil(t, NewClient("sk-ant-api03-x"))
}

func TestAsk_SendsConversation(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","model":"claude-sonnet-4-5","stop_reason":"end_turn",
			"content":[{"type":"text","text":"O VAAT "},{"type":"text","text":"complementa redes."}],
			"usage":{"input_tokens":120,"output_tokens":8}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res := sampleResult()
	history := []Message{
		{Role: RoleUser, Content: "Oi"},
		{Role: RoleAssistant, Content: "Olá! Como posso ajudar?"},
	}

	reply, err := c.Ask(context.Background(), "O que é VAAT?", &res, history)
	require.NoError(t, err)

	assert.Equal(t, "O VAAT complementa redes.", reply.Text)
	assert.Equal(t, int64(8), reply.Usage.OutputTokens)

	assert.Equal(t, defaultModel, got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, RoleUser, got.Messages[2].Role)
	assert.Equal(t, "O que é VAAT?", got.Messages[2].Content)
	assert.Contains(t, got.System, "Lei 14.113/2020")
	assert.Contains(t, got.System, "Nome: Teresina")
	assert.Contains(t, got.System, "modo demonstração")
}

func TestAsk_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		text   string
	}{
		{http.StatusUnauthorized, `{}`, ErrUnauthorized, ""},
		{http.StatusTooManyRequests, `{}`, ErrRateLimited, ""},
		{http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`, nil, "max_tokens too large"},
		{http.StatusOK, `{"content":[]}`, ErrEmptyResponse, ""},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))

		c := NewClient("k", WithBaseURL(srv.URL))
		_, err := c.Ask(context.Background(), "pergunta", nil, nil)
		srv.Close()

		require.Error(t, err, "status %d", tt.status)
		if tt.want != nil {
			assert.True(t, errors.Is(err, tt.want), "status %d: got %v", tt.status, err)
		}
		if tt.text != "" {
			assert.Contains(t, err.Error(), tt.text)
		}
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	c := NewClient("k")
	_, err := c.Ask(context.Background(), "  ", nil, nil)
	assert.Error(t, err)
}

func TestExplain_UsesFixedQuestion(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"passo a passo"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithModel("claude-haiku-4-5"), WithMaxTokens(512))
	reply, err := c.Explain(context.Background(), sampleResult())
	require.NoError(t, err)

	assert.Equal(t, "passo a passo", reply.Text)
	assert.Equal(t, "claude-haiku-4-5", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content, "Explique passo a passo"))
}

func TestLegalContext_ListsActiveWeights(t *testing.T) {
	wt, err := config.DefaultWeights()
	require.NoError(t, err)

	ctx := LegalContext(wt, 2025)
	assert.Contains(t, ctx, "Creche Integral: 1,90")
	assert.Contains(t, ctx, "R$ 24,2 bi")
	assert.Contains(t, ctx, "R$ 26,9 bi")

	bare := LegalContext(nil, 2025)
	assert.NotContains(t, bare, "Creche Integral")
}

func TestFormatContext(t *testing.T) {
	out := FormatContext(sampleResult())

	assert.Contains(t, out, "UF: PI")
	assert.Contains(t, out, "NSE: 43,0")
	assert.Contains(t, out, "DRec: 0,977")
	assert.Contains(t, out, "- Elegível: Sim")
	assert.Contains(t, out, "- Elegível: Não")
	assert.Contains(t, out, "Valor total: R$ 4.840.000,00")
	assert.Contains(t, out, "Creche Integral: 1.000 matrículas")
	assert.Contains(t, out, "Matrículas totais: 1.000")
}

func TestConversation(t *testing.T) {
	var c Conversation
	c.Add(RoleUser, "a")
	c.Add(RoleAssistant, "b")

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	msgs[0].Content = "changed"
	assert.Equal(t, "a", c.Messages()[0].Content)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestConversationDropLast(t *testing.T) {
	var c Conversation
	_, ok := c.DropLast(RoleUser)
	assert.False(t, ok)

	c.Add(RoleUser, "a")
	c.Add(RoleAssistant, "b")
	_, ok = c.DropLast(RoleUser)
	assert.False(t, ok, "last turn is the assistant's")
	assert.Equal(t, 2, c.Len())

	c.Add(RoleUser, "c")
	last, ok := c.DropLast(RoleUser)
	require.True(t, ok)
	assert.Equal(t, "c", last.Content)
	assert.Equal(t, 2, c.Len())
}
