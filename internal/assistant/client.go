// Package assistant answers questions about FUNDEB complementations through
// the Anthropic Messages API, grounding replies in a municipality's result.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 2000
	apiVersion       = "2023-06-01"
	requestTimeout   = 60 * time.Second
	maxBodySize      = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the API key is missing, revoked or invalid.
	ErrUnauthorized = errors.New("assistant: unauthorized (API key invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("assistant: rate limited")
	// ErrEmptyResponse indicates the API returned no text content.
	ErrEmptyResponse = errors.New("assistant: empty response")
)

// Client talks to the Messages API.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	knowledge string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithMaxTokens overrides the reply token limit.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithWeights embeds the active weight table and pools in the legal context.
func WithWeights(wt *config.WeightTable, year int) Option {
	return func(c *Client) {
		c.knowledge = LegalContext(wt, year)
	}
}

// NewClient creates a client for the given API key.
// Returns nil if the key is empty.
func NewClient(apiKey string, opts ...Option) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	c := &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		knowledge: LegalContext(nil, config.DefaultYear),
		http:      &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ask sends question with the prior turns in history. When result is non-nil
// its figures are added to the system prompt.
func (c *Client) Ask(ctx context.Context, question string, result *model.AllocationResult, history []Message) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, errors.New("assistant: empty question")
	}

	msgs := make([]Message, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: question})

	return c.send(ctx, messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    SystemPrompt(c.knowledge, result),
		Messages:  msgs,
	})
}

// Explain asks for a step-by-step walk through result's calculation.
func (c *Client) Explain(ctx context.Context, result model.AllocationResult) (Reply, error) {
	return c.Ask(ctx, explainQuestion, &result, nil)
}

func (c *Client) send(ctx context.Context, body messagesRequest) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("assistant: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("assistant: creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("assistant: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Reply{}, fmt.Errorf("assistant: reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Reply{}, ErrUnauthorized
	case http.StatusTooManyRequests:
		return Reply{}, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			return Reply{}, fmt.Errorf("assistant: %s (status %d): %s", ae.Error.Type, resp.StatusCode, ae.Error.Message)
		}
		return Reply{}, fmt.Errorf("assistant: unexpected status %d", resp.StatusCode)
	}

	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return Reply{}, fmt.Errorf("assistant: parsing response: %w", err)
	}

	var text strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Reply{}, ErrEmptyResponse
	}

	return Reply{
		Text:       text.String(),
		Model:      mr.Model,
		StopReason: mr.StopReason,
		Usage:      mr.Usage,
	}, nil
}
