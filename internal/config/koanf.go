// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/culturalquest/config.yaml",
	"/etc/culturalquest/config.yml",
}

// ConfigPathEnvVar names the variable that points at an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Upstream: UpstreamConfig{
			BaseURL:            "https://hackathon.api.qloo.com",
			Timeout:            20 * time.Second,
			RateLimitPerSecond: 5,
			RateLimitBurst:     10,
			CacheTTL:           2 * time.Minute,
			Take:               15,
		},
		Diversifier: DiversifierConfig{
			Enabled:           true,
			URL:               "http://127.0.0.1:8090",
			Timeout:           30 * time.Second,
			TotalCount:        8,
			HighAffinityCount: 3,
			Lambda:            0.7,
			ListenPort:        8090,
		},
		Assistant: AssistantConfig{
			Enabled:      false,
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			Timeout:      60 * time.Second,
			HistoryTurns: 4,
		},
		Speech: SpeechConfig{
			Enabled:      false,
			BaseURL:      "https://api.elevenlabs.io/v1",
			VoiceID:      "gs0tAILXbY5DNrJrsM6F",
			ModelID:      "eleven_multilingual_v2",
			OutputFormat: "mp3_44100_128",
			Timeout:      30 * time.Second,
		},
		Store: StoreConfig{
			Backend:        "badger",
			Path:           "/data/culturalquest",
			GCSchedule:     "@every 10m",
			GCDiscardRatio: 0.5,
		},
		Recommend: RecommendConfig{
			ReorderLimit: 15,
			Jitter:       5,
			DefaultCity:  "Toronto",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads defaults, the optional YAML file and environment
// overrides, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string
// from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"qloo_api_url":         "upstream.base_url",
	"qloo_api_key":         "upstream.api_key",
	"qloo_timeout":         "upstream.timeout",
	"qloo_rate_limit":      "upstream.rate_limit_per_second",
	"qloo_rate_burst":      "upstream.rate_limit_burst",
	"qloo_cache_ttl":       "upstream.cache_ttl",
	"qloo_take":            "upstream.take",
	"diversify_enabled":    "diversifier.enabled",
	"diversify_url":        "diversifier.url",
	"diversify_timeout":    "diversifier.timeout",
	"diversify_total":      "diversifier.total_count",
	"diversify_high":       "diversifier.high_affinity_count",
	"diversify_lambda":     "diversifier.lambda",
	"diversify_port":       "diversifier.listen_port",
	"openai_enabled":       "assistant.enabled",
	"openai_base_url":      "assistant.base_url",
	"openai_api_key":       "assistant.api_key",
	"openai_model":         "assistant.model",
	"openai_timeout":       "assistant.timeout",
	"assistant_history":    "assistant.history_turns",
	"elevenlabs_enabled":   "speech.enabled",
	"elevenlabs_base_url":  "speech.base_url",
	"elevenlabs_api_key":   "speech.api_key",
	"elevenlabs_voice_id":  "speech.voice_id",
	"store_backend":        "store.backend",
	"store_path":           "store.path",
	"store_gc_schedule":    "store.gc_schedule",
	"store_gc_ratio":       "store.gc_discard_ratio",
	"reorder_limit":        "recommend.reorder_limit",
	"reorder_jitter":       "recommend.jitter",
	"similarity_groups":    "recommend.similarity_groups_path",
	"similarity_watch":     "recommend.watch_similarity_groups",
	"default_city":         "recommend.default_city",
	"cors_origins":         "security.cors_origins",
	"rate_limit_requests":  "security.rate_limit_reqs",
	"rate_limit_window":    "security.rate_limit_window",
	"disable_rate_limit":   "security.rate_limit_disabled",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile invokes callback whenever path changes on disk.
//
//	err := config.WatchConfigFile(path, func() { reloadGroups(path) })
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
