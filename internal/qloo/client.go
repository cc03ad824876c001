// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package qloo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/breaker"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/cache"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

const (
	insightsPath = "/v2/insights"
	searchPath   = "/search"
	apiKeyHeader = "x-api-key"

	opInsights = "insights"
	opSearch   = "search"

	// maxErrorBodySize bounds how much of an error response is kept.
	maxErrorBodySize = 64 * 1024
)

// UpstreamError is a non-2xx response from the taste graph.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the status suggests a transient failure.
func (e *UpstreamError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client calls the taste-graph insights and search endpoints.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker[[]byte]
	cache   *cache.Cache[[]recommend.RawEntity]
	logger  zerolog.Logger
}

// NewClient creates a client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg *config.UpstreamConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("upstream base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("upstream API key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "qloo").Logger(),
	}
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New[[]recommend.RawEntity](cfg.CacheTTL)
	}
	c.breaker = breaker.New[[]byte]("qloo-api", breaker.Settings{
		// Client errors and cancellations say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var ue *UpstreamError
			if errors.As(err, &ue) {
				return ue.Status < 500 && ue.Status != http.StatusTooManyRequests
			}
			return false
		},
	}, logger)
	return c, nil
}

// Close releases background resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Insights runs one insights call and returns its entities.
func (c *Client) Insights(ctx context.Context, req *recommend.InsightsRequest) ([]recommend.RawEntity, error) {
	params := req.Values()
	return c.cached(opInsights, params, func() ([]recommend.RawEntity, error) {
		body, err := c.get(ctx, opInsights, insightsPath, params)
		if err != nil {
			return nil, err
		}
		return decodeInsights(body)
	})
}

// Search runs a free-text place search.
func (c *Client) Search(ctx context.Context, query string) ([]recommend.RawEntity, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("types", recommend.EntityTypePlace)
	return c.cached(opSearch, params, func() ([]recommend.RawEntity, error) {
		body, err := c.get(ctx, opSearch, searchPath, params)
		if err != nil {
			return nil, err
		}
		return decodeSearch(body)
	})
}

func (c *Client) cached(op string, params url.Values, fetch func() ([]recommend.RawEntity, error)) ([]recommend.RawEntity, error) {
	if c.cache == nil {
		return fetch()
	}
	key := cache.GenerateKey(op, params.Encode())
	if v, ok := c.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("upstream").Inc()
		return v, nil
	}
	metrics.CacheMisses.WithLabelValues("upstream").Inc()

	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v)
	return v, nil
}

// get performs one rate-limited, breaker-protected GET and returns the body.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	start := time.Now()
	status := 0

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", op, err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &UpstreamError{Status: resp.StatusCode, Message: string(readBodyForError(resp.Body))}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", op, err)
		}
		return data, nil
	})
	metrics.RecordUpstreamRequest(op, status, time.Since(start))

	if err != nil {
		c.logger.Warn().Err(err).Str("operation", op).Int("status", status).Msg("upstream request failed")
		return nil, err
	}
	c.logger.Debug().Str("operation", op).Dur("duration", time.Since(start)).Msg("upstream request")
	return body, nil
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// decodeInsights reads {"results":{"entities":[...]}}. A missing results
// object is an empty answer.
func decodeInsights(body []byte) ([]recommend.RawEntity, error) {
	var envelope struct {
		Results *struct {
			Entities json.RawMessage `json:"entities"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode insights response: %w", err)
	}
	if envelope.Results == nil || len(envelope.Results.Entities) == 0 || string(envelope.Results.Entities) == "null" {
		return []recommend.RawEntity{}, nil
	}
	entities, err := recommend.ParseRawEntities(envelope.Results.Entities)
	if err != nil {
		return nil, fmt.Errorf("decode insights entities: %w", err)
	}
	return entities, nil
}

// decodeSearch reads {"results":[...]}.
func decodeSearch(body []byte) ([]recommend.RawEntity, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(envelope.Results) == 0 || string(envelope.Results) == "null" {
		return []recommend.RawEntity{}, nil
	}
	entities, err := recommend.ParseRawEntities(envelope.Results)
	if err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return entities, nil
}

var _ recommend.Upstream = (*Client)(nil)
