// Package ibge fetches municipality identities and population estimates from
// the IBGE public data service.
package ibge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodrigosramos/fundeb-mvp/internal/store"
)

const (
	defaultBaseURL = "https://servicodados.ibge.gov.br/api"
	maxBodySize    = 64 << 20 // 64 MB; the N6[all] population series is large

	// Population estimates: aggregate 6579, variable 9324.
	populationAggregate = 6579
	populationVariable  = 9324
)

// ErrRateLimited indicates the service throttled the request.
var ErrRateLimited = errors.New("ibge: rate limited")

// Client fetches from the IBGE API, optionally through a response cache.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *store.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	// OnFetch, when set, is called with the URL and whether it came from cache.
	OnFetch func(url string, cached bool)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithCache serves repeated requests from cache. ttl <= 0 never expires.
func WithCache(cache *store.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLogger reports cache failures through log.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates an IBGE client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{},
		timeout: 60 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Municipalities returns every municipality with a resolvable state.
// Entries without one are reported in skipped and left out.
func (c *Client) Municipalities(ctx context.Context) (out []Municipality, skipped []string, err error) {
	body, err := c.get(ctx, "/v1/localidades/municipios")
	if err != nil {
		return nil, nil, err
	}

	var raw []rawMunicipio
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("ibge: parsing municipalities: %w", err)
	}

	out = make([]Municipality, 0, len(raw))
	for _, m := range raw {
		uf := m.uf()
		if uf == "" {
			skipped = append(skipped, m.Nome)
			continue
		}
		out = append(out, Municipality{
			Code: strconv.FormatInt(m.ID, 10),
			Name: m.Nome,
			UF:   uf,
		})
	}
	return out, skipped, nil
}

// Population returns estimated population by municipality code for year.
// Placeholder values ("-", "...", "") and unparseable ones map to 0.
func (c *Client) Population(ctx context.Context, year int) (map[string]int64, error) {
	path := fmt.Sprintf("/v3/agregados/%d/periodos/%d/variaveis/%d?localidades=N6[all]",
		populationAggregate, year, populationVariable)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw []rawAgregado
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("ibge: parsing population: %w", err)
	}

	out := make(map[string]int64)
	if len(raw) == 0 || len(raw[0].Resultados) == 0 {
		return out, nil
	}
	key := strconv.Itoa(year)
	for _, s := range raw[0].Resultados[0].Series {
		out[s.Localidade.ID] = parseCount(s.Serie[key])
	}
	return out, nil
}

func parseCount(v string) int64 {
	v = strings.TrimSpace(v)
	switch v {
	case "", "-", "...", "..", "X":
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// get fetches path, consulting and filling the cache when configured.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	if c.cache != nil {
		e, ok, err := c.cache.Get(url, c.cacheTTL)
		if err != nil {
			c.log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		} else if ok {
			if c.OnFetch != nil {
				c.OnFetch(url, true)
			}
			return e.Body, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ibge: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fundeb-mvp/1.0 (+https://github.com/rodrigosramos/fundeb-mvp)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ibge: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ibge: unexpected status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("ibge: reading response: %w", err)
	}
	if c.OnFetch != nil {
		c.OnFetch(url, false)
	}

	if c.cache != nil {
		if err := c.cache.Put(url, body); err != nil {
			c.log.Warn().Err(err).Str("url", url).Msg("cache write failed")
		}
	}
	return body, nil
}
