// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateUpstream,
		c.validateDiversifier,
		c.validateAssistant,
		c.validateStore,
		c.validateRecommend,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if err := validateHTTPURL(c.Upstream.BaseURL); err != nil {
		return fmt.Errorf("QLOO_API_URL is invalid: %w", err)
	}
	if c.Server.IsProduction() && c.Upstream.APIKey == "" {
		return fmt.Errorf("QLOO_API_KEY is required in production")
	}
	if c.Upstream.RateLimitPerSecond < 0 {
		return fmt.Errorf("QLOO_RATE_LIMIT must not be negative")
	}
	if c.Upstream.Take < 1 {
		return fmt.Errorf("QLOO_TAKE must be at least 1, got %d", c.Upstream.Take)
	}
	return nil
}

func (c *Config) validateDiversifier() error {
	d := c.Diversifier
	if d.Lambda < 0 || d.Lambda > 1 {
		return fmt.Errorf("DIVERSIFY_LAMBDA must be in [0, 1], got %f", d.Lambda)
	}
	if d.TotalCount < 1 {
		return fmt.Errorf("DIVERSIFY_TOTAL must be at least 1, got %d", d.TotalCount)
	}
	if d.HighAffinityCount < 0 || d.HighAffinityCount > d.TotalCount {
		return fmt.Errorf("DIVERSIFY_HIGH must be in [0, %d], got %d", d.TotalCount, d.HighAffinityCount)
	}
	if !d.Enabled {
		return nil
	}
	if err := validateHTTPURL(d.URL); err != nil {
		return fmt.Errorf("DIVERSIFY_URL is invalid: %w", err)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("DIVERSIFY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateAssistant() error {
	if !c.Assistant.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Assistant.BaseURL); err != nil {
		return fmt.Errorf("OPENAI_BASE_URL is invalid: %w", err)
	}
	if c.Assistant.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when OPENAI_ENABLED=true")
	}
	if c.Assistant.HistoryTurns < 0 {
		return fmt.Errorf("ASSISTANT_HISTORY must not be negative")
	}
	if c.Speech.Enabled && c.Speech.APIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is required when ELEVENLABS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory":
		return nil
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the badger backend")
		}
		if c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1 {
			return fmt.Errorf("STORE_GC_RATIO must be in (0, 1), got %f", c.Store.GCDiscardRatio)
		}
		return nil
	default:
		return fmt.Errorf("STORE_BACKEND must be badger or memory, got %q", c.Store.Backend)
	}
}

func (c *Config) validateRecommend() error {
	if c.Recommend.ReorderLimit < 1 {
		return fmt.Errorf("REORDER_LIMIT must be at least 1, got %d", c.Recommend.ReorderLimit)
	}
	if c.Recommend.Jitter < 0 {
		return fmt.Errorf("REORDER_JITTER must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing")
	}
	return nil
}
