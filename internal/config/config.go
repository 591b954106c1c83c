// Package config loads application configuration from an optional YAML file
// with environment variable overrides for credentials and endpoints.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GeminiConfig configures the generation and embedding backend.
type GeminiConfig struct {
	APIKey      string `yaml:"-"` // env only, never from file
	Model       string `yaml:"model"`
	EmbedModel  string `yaml:"embed_model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// MilvusConfig contains connection details for the vector store. An empty
// host selects the in-memory store.
type MilvusConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Collection string `yaml:"collection"`
	Dim        int    `yaml:"dim"`
}

// AssistantConfig configures prompt assembly and retrieval behavior.
type AssistantConfig struct {
	HistoryTurns   int `yaml:"history_turns"`
	TopK           int `yaml:"top_k"`
	MaxPromptChars int `yaml:"max_prompt_chars"`
}

// RateLimitConfig bounds requests per principal over a sliding window.
type RateLimitConfig struct {
	Limit      int `yaml:"limit"`
	WindowSecs int `yaml:"window_secs"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	TelegramToken string          `yaml:"-"` // env only
	Gemini        GeminiConfig    `yaml:"gemini"`
	Milvus        MilvusConfig    `yaml:"milvus"`
	Assistant     AssistantConfig `yaml:"assistant"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Enrollments   string          `yaml:"-"` // env only, principal:course pairs
	Debug         bool            `yaml:"debug"`
}

// Load reads a config from the given path. A missing file returns defaults.
// Environment variables override file values in both cases.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.Gemini.EmbedModel == "" {
		cfg.Gemini.EmbedModel = "text-embedding-004"
	}
	if cfg.Gemini.TimeoutSecs == 0 {
		cfg.Gemini.TimeoutSecs = 10
	}
	if cfg.Milvus.Port == "" {
		cfg.Milvus.Port = "19530"
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = "lesson_chunks"
	}
	if cfg.Milvus.Dim == 0 {
		cfg.Milvus.Dim = 768
	}
	if cfg.Assistant.HistoryTurns == 0 {
		cfg.Assistant.HistoryTurns = 5
	}
	if cfg.Assistant.TopK == 0 {
		cfg.Assistant.TopK = 5
	}
	if cfg.Assistant.MaxPromptChars == 0 {
		cfg.Assistant.MaxPromptChars = 6500
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 20
	}
	if cfg.RateLimit.WindowSecs == 0 {
		cfg.RateLimit.WindowSecs = 300
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.TelegramToken = os.Getenv("TG_BOT_TOKEN")
	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Enrollments = os.Getenv("ENROLLMENTS")
	if v := os.Getenv("MILVUS_HOST"); v != "" {
		cfg.Milvus.Host = v
	}
	if v := os.Getenv("MILVUS_PORT"); v != "" {
		cfg.Milvus.Port = v
	}
	if v := os.Getenv("LOG_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}
