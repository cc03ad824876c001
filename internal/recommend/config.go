// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Config contains all configuration for the recommendation orchestrator.
type Config struct {
	// Diversify holds the options forwarded to the diversification engine.
	Diversify DiversifyConfig `json:"diversify"`

	// Reorder contains re-ranking parameters.
	Reorder ReorderConfig `json:"reorder"`

	// UpstreamTake is the page size requested from the upstream when a
	// location filter applies.
	// Default: 15.
	UpstreamTake int `json:"upstream_take"`

	// DefaultCity is used when a profile has no current location.
	// Default: "Toronto".
	DefaultCity string `json:"default_city"`

	// Seed seeds the jitter source. If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// DiversifyConfig controls background diversification.
type DiversifyConfig struct {
	// Enabled controls whether diversification runs after a query.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TotalCount is the size of the diversified list.
	// Default: 8.
	TotalCount int `json:"total_count"`

	// HighAffinityCount is the number of slots reserved for top-affinity items.
	// Default: 3.
	HighAffinityCount int `json:"high_affinity_count"`

	// Lambda balances relevance vs. diversity, 1.0 = pure relevance.
	// Default: 0.7.
	Lambda float64 `json:"lambda"`

	// Timeout is the hard wall-clock budget of one pass.
	// Default: 30s.
	Timeout time.Duration `json:"timeout"`
}

// Options returns the wire options of one diversification pass.
func (d DiversifyConfig) Options() DiversifyOptions {
	return DiversifyOptions{
		TotalCount:        d.TotalCount,
		HighAffinityCount: d.HighAffinityCount,
		Lambda:            d.Lambda,
	}
}

// ReorderConfig contains re-ranking parameters.
type ReorderConfig struct {
	// Limit caps the re-ranked list.
	// Default: 15.
	Limit int `json:"limit"`

	// Jitter is the exclusive upper bound of the uniform tie-breaking noise.
	// Default: 5.
	Jitter float64 `json:"jitter"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Diversify: DiversifyConfig{
			Enabled:           true,
			TotalCount:        8,
			HighAffinityCount: 3,
			Lambda:            0.7,
			Timeout:           30 * time.Second,
		},
		Reorder: ReorderConfig{
			Limit:  15,
			Jitter: 5,
		},
		UpstreamTake: 15,
		DefaultCity:  "Toronto",
		Seed:         42,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Diversify.TotalCount < 1 {
		return fmt.Errorf("diversify.total_count must be positive, got %d", c.Diversify.TotalCount)
	}
	if c.Diversify.HighAffinityCount < 0 || c.Diversify.HighAffinityCount > c.Diversify.TotalCount {
		return fmt.Errorf("diversify.high_affinity_count must be in [0, %d], got %d",
			c.Diversify.TotalCount, c.Diversify.HighAffinityCount)
	}
	if c.Diversify.Lambda < 0 || c.Diversify.Lambda > 1 {
		return fmt.Errorf("diversify.lambda must be in [0, 1], got %f", c.Diversify.Lambda)
	}
	if c.Diversify.Timeout <= 0 {
		return fmt.Errorf("diversify.timeout must be positive, got %v", c.Diversify.Timeout)
	}
	if c.Reorder.Limit < 1 {
		return fmt.Errorf("reorder.limit must be positive, got %d", c.Reorder.Limit)
	}
	if c.Reorder.Jitter < 0 {
		return fmt.Errorf("reorder.jitter must be non-negative, got %f", c.Reorder.Jitter)
	}
	if c.UpstreamTake < 1 {
		return fmt.Errorf("upstream_take must be positive, got %d", c.UpstreamTake)
	}
	if c.DefaultCity == "" {
		return fmt.Errorf("default_city is required")
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}

// MarshalJSON renders the diversification timeout as a duration string.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type diversify struct {
		DiversifyConfig
		Timeout string `json:"timeout"`
	}
	return json.Marshal(&struct {
		*Alias
		Diversify diversify `json:"diversify"`
	}{
		Alias:     (*Alias)(c),
		Diversify: diversify{DiversifyConfig: c.Diversify, Timeout: c.Diversify.Timeout.String()},
	})
}
