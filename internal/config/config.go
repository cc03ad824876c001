// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package config loads CulturalQuest configuration with koanf.
//
// Sources are layered in increasing priority: built-in defaults, an optional
// YAML file (CONFIG_PATH or one of DefaultConfigPaths), then environment
// variables listed in envMappings.
package config

import "time"

// Config is the root configuration tree.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Upstream    UpstreamConfig    `koanf:"upstream"`
	Diversifier DiversifierConfig `koanf:"diversifier"`
	Assistant   AssistantConfig   `koanf:"assistant"`
	Speech      SpeechConfig      `koanf:"speech"`
	Store       StoreConfig       `koanf:"store"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// UpstreamConfig configures the taste-graph recommender client.
type UpstreamConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitPerSecond bounds outbound calls. Zero disables the limiter.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	RateLimitBurst     int     `koanf:"rate_limit_burst"`

	// CacheTTL keeps identical upstream responses for this long. Zero disables caching.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Take is the result count requested for location-filtered queries.
	Take int `koanf:"take"`
}

// DiversifierConfig configures both the diversification client used by the
// API server and the standalone diversifier process.
type DiversifierConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	TotalCount        int     `koanf:"total_count"`
	HighAffinityCount int     `koanf:"high_affinity_count"`
	Lambda            float64 `koanf:"lambda"`

	// ListenPort is used by cmd/diversifier only.
	ListenPort int `koanf:"listen_port"`
}

// AssistantConfig configures the streaming chat-completions endpoint.
type AssistantConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`

	// HistoryTurns is how many prior conversation turns go into the prompt.
	HistoryTurns int `koanf:"history_turns"`
}

// SpeechConfig configures optional text-to-speech forwarding.
type SpeechConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	VoiceID      string        `koanf:"voice_id"`
	ModelID      string        `koanf:"model_id"`
	OutputFormat string        `koanf:"output_format"`
	Timeout      time.Duration `koanf:"timeout"`
}

// StoreConfig selects and tunes the per-user state store.
type StoreConfig struct {
	// Backend is "badger" or "memory".
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`

	// GCSchedule is a robfig/cron spec for badger value-log GC.
	GCSchedule     string  `koanf:"gc_schedule"`
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
}

// RecommendConfig tunes the re-ranker and orchestrator.
type RecommendConfig struct {
	ReorderLimit int     `koanf:"reorder_limit"`
	Jitter       float64 `koanf:"jitter"`

	// SimilarityGroupsPath points to a YAML keyword table. Empty uses built-in groups.
	SimilarityGroupsPath  string `koanf:"similarity_groups_path"`
	WatchSimilarityGroups bool   `koanf:"watch_similarity_groups"`

	DefaultCity string `koanf:"default_city"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// IsProduction reports whether the server runs with production checks.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
