// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package assistant

import (
	"bytes"
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

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/breaker"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
)

const (
	speechAPIKeyHeader = "xi-api-key"
	maxAudioSize       = 20 << 20
)

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text is required")

	// ErrEmptyAudio is returned when the provider answered without audio.
	ErrEmptyAudio = errors.New("empty audio buffer received")
)

// VoiceSettings are the synthesis tuning knobs.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings favour clear web playback.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: 0.75, SimilarityBoost: 0.75, Style: 0.5, UseSpeakerBoost: true}
}

// SpeechClient calls an ElevenLabs-style text-to-speech endpoint and
// returns MPEG audio.
type SpeechClient struct {
	endpoint string
	apiKey   string
	modelID  string
	settings VoiceSettings
	http     *http.Client
	breaker  *breaker.Breaker[[]byte]
	logger   zerolog.Logger
}

// NewSpeechClient creates a client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSpeechClient(cfg *config.SpeechConfig, logger zerolog.Logger) (*SpeechClient, error) {
	if cfg.BaseURL == "" || cfg.VoiceID == "" {
		return nil, errors.New("speech base URL and voice id are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/text-to-speech/" + url.PathEscape(cfg.VoiceID)
	if cfg.OutputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(cfg.OutputFormat)
	}
	return &SpeechClient{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		modelID:  cfg.ModelID,
		settings: DefaultVoiceSettings(),
		http:     &http.Client{Timeout: timeout},
		breaker: breaker.New[[]byte]("speech", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyText)
			},
		}, logger),
		logger: logger.With().Str("component", "speech").Logger(),
	}, nil
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to audio.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	payload, err := json.Marshal(speechRequest{Text: text, ModelID: c.modelID, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	audio, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set(speechAPIKeyHeader, c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request speech: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, &ProviderError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrEmptyAudio
		}
		return data, nil
	})
	if err != nil {
		metrics.SpeechRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SpeechRequests.WithLabelValues("success").Inc()
	c.logger.Debug().Int("bytes", len(audio)).Int("text_len", len(text)).Msg("speech synthesized")
	return audio, nil
}

var _ Synthesizer = (*SpeechClient)(nil)
