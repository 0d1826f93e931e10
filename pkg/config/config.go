// SPDX-License-Identifier: Apache-2.0

// Package config loads assistant configuration from defaults, an optional
// YAML file, and ASSISTANT_-prefixed environment variables, in that order.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Agent     AgentConfig     `koanf:"agent"`
	Search    SearchConfig    `koanf:"search"`
	Calendar  CalendarConfig  `koanf:"calendar"`
	Memory    MemoryConfig    `koanf:"memory"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Server    ServerConfig    `koanf:"server"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // openai, ollama, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
}

type AgentConfig struct {
	MaxIterations  int `koanf:"max_iterations"`
	TimeoutSeconds int `koanf:"timeout_seconds"`
	HistoryWindow  int `koanf:"history_window"`
}

// Timeout returns the loop wall-clock budget as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type SearchConfig struct {
	BaseURL    string `koanf:"base_url"`
	APIKey     string `koanf:"api_key"`
	MaxResults int    `koanf:"max_results"`
}

type CalendarConfig struct {
	DBPath        string `koanf:"db_path"`
	DefaultUserID string `koanf:"default_user_id"`
}

type MemoryConfig struct {
	Enabled          bool    `koanf:"enabled"`
	QdrantAddr       string  `koanf:"qdrant_addr"`
	Collection       string  `koanf:"collection"`
	EmbedderBaseURL  string  `koanf:"embedder_base_url"`
	EmbedderModel    string  `koanf:"embedder_model"`
	TopK             int     `koanf:"top_k"`
	ScoreThreshold   float64 `koanf:"score_threshold"`
	ConversationPath string  `koanf:"conversation_path"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "openai")
	k.Set("llm.model", "qwen/qwen3-32b")
	k.Set("llm.base_url", "https://openrouter.ai/api/v1")
	k.Set("llm.temperature", 0.7)

	k.Set("agent.max_iterations", 10)
	k.Set("agent.timeout_seconds", 40)
	k.Set("agent.history_window", 7)

	k.Set("search.base_url", "https://api.tavily.com")
	k.Set("search.max_results", 5)

	k.Set("calendar.db_path", "assistant.db")
	k.Set("calendar.default_user_id", "user-1")

	k.Set("memory.enabled", false)
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "study_materials")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")
	k.Set("memory.top_k", 4)
	k.Set("memory.score_threshold", 0.6)

	k.Set("telemetry.exporter", "stdout")

	k.Set("server.addr", ":8000")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV. Sections are single words, so only the first
	// underscore separates section from key and the rest stay literal:
	// ASSISTANT_AGENT_MAX_ITERATIONS -> agent.max_iterations.
	if err := k.Load(env.Provider("ASSISTANT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ASSISTANT_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
