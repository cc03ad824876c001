// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package assistant

import (
	"bufio"
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
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
)

const (
	completionsPath = "/chat/completions"
	dataPrefix      = "data: "
	doneSentinel    = "[DONE]"

	maxErrorBodySize = 16 * 1024
	maxLineSize      = 1 << 20
)

// ProviderError is a non-2xx response from the chat-completions endpoint.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("chat provider returned status %d: %s", e.Status, e.Message)
}

// TokenFunc receives each streamed token as it arrives.
type TokenFunc func(token string)

// Completer streams one chat completion and returns the accumulated text.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage, onToken TokenFunc) (string, error)
}

// StreamClient talks to an OpenAI-compatible chat-completions endpoint with
// stream enabled.
type StreamClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	breaker  *breaker.Breaker[string]
	logger   zerolog.Logger
}

// NewStreamClient creates a client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStreamClient(cfg *config.AssistantConfig, logger zerolog.Logger) (*StreamClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("assistant base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &StreamClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + completionsPath,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		breaker: breaker.New[string]("assistant", breaker.Settings{
			IsSuccessful: func(err error) bool {
				if err == nil || errors.Is(err, context.Canceled) {
					return true
				}
				var pe *ProviderError
				return errors.As(err, &pe) && pe.Status < 500 && pe.Status != http.StatusTooManyRequests
			},
		}, logger),
		logger: logger.With().Str("component", "assistant-stream").Logger(),
	}, nil
}

type completionRequest struct {
	Model    string               `json:"model,omitempty"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete posts messages and accumulates the streamed reply.
func (c *StreamClient) Complete(ctx context.Context, messages []models.ChatMessage, onToken TokenFunc) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	return c.breaker.Execute(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("request completion: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return "", &ProviderError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return ReadStream(resp.Body, onToken)
	})
}

// ReadStream consumes server-sent events until [DONE] or EOF. Lines that
// are not data lines or do not decode are skipped.
func ReadStream(r io.Reader, onToken TokenFunc) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var reply strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneSentinel {
			break
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil || len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		reply.WriteString(token)
		metrics.AssistantTokens.Inc()
		if onToken != nil {
			onToken(token)
		}
	}
	if err := scanner.Err(); err != nil {
		return reply.String(), fmt.Errorf("read completion stream: %w", err)
	}
	return reply.String(), nil
}

var _ Completer = (*StreamClient)(nil)
