// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package diversify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/breaker"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

const diversifyPath = "/api/diversify"

// maxResponseBody bounds a decoded response body.
const maxResponseBody = 8 << 20

// ServiceError is a non-200 answer from the diversification service.
type ServiceError struct {
	Status  int
	Message string
	Details string
}

func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("diversifier returned status %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("diversifier returned status %d: %s", e.Status, e.Message)
}

// HTTPClient calls a remote diversification service. A pass is never
// retried; the caller's context carries the pass deadline.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	breaker  *breaker.Breaker[[]recommend.RawEntity]
	logger   zerolog.Logger
}

// NewHTTPClient creates a client for the service rooted at baseURL. timeout
// is a transport ceiling applied on top of the caller's context.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPClient(baseURL string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("diversifier URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultProcessingTimeout
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(baseURL, "/") + diversifyPath,
		http:     &http.Client{Timeout: timeout},
		breaker: breaker.New[[]recommend.RawEntity]("diversifier", breaker.Settings{
			// A superseded pass is cancelled on purpose.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}, logger),
		logger: logger.With().Str("component", "diversify-client").Logger(),
	}, nil
}

// Diversify implements recommend.Diversifier.
func (c *HTTPClient) Diversify(ctx context.Context, req *recommend.DiversifyRequest) ([]recommend.RawEntity, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode diversify request: %w", err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() ([]recommend.RawEntity, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn().Err(err).Int("entities", len(req.Entities)).Msg("diversify request failed")
		}
		return nil, err
	}
	c.logger.Debug().
		Int("entities", len(req.Entities)).
		Int("selected", len(out)).
		Dur("duration", time.Since(start)).
		Msg("diversify request")
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, payload []byte) ([]recommend.RawEntity, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post diversify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read diversify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if jsonErr := json.Unmarshal(body, &e); jsonErr != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &ServiceError{Status: resp.StatusCode, Message: e.Error, Details: e.Details}
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Diversified json.RawMessage `json:"diversified_recommendations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode diversify response: %w", err)
	}
	if !envelope.Success {
		return nil, errors.New("diversifier reported failure")
	}
	if len(envelope.Data.Diversified) == 0 || string(envelope.Data.Diversified) == "null" {
		return []recommend.RawEntity{}, nil
	}
	return recommend.ParseRawEntities(envelope.Data.Diversified)
}

var _ recommend.Diversifier = (*HTTPClient)(nil)
