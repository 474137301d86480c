// Package config loads the application configuration from an optional
// YAML file with environment variable overrides.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// QdrantConfig contains connection details for the vector store.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
}

// OllamaConfig selects the embedding model.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// ChatwootConfig contains the conversation platform credentials.
type ChatwootConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIToken  string `yaml:"api_token"`
	AccountID int64  `yaml:"account_id"`
}

// AssistantConfig holds the retrieval defaults.
type AssistantConfig struct {
	TopK    int  `yaml:"top_k"`
	Private bool `yaml:"private"`
}

// Config is the root application configuration.
type Config struct {
	Port       string          `yaml:"port"`
	CORSOrigin string          `yaml:"cors_origin"`
	NATSURL    string          `yaml:"nats_url"`
	CorpusPath string          `yaml:"corpus_path"`
	Qdrant     QdrantConfig    `yaml:"qdrant"`
	Ollama     OllamaConfig    `yaml:"ollama"`
	Chatwoot   ChatwootConfig  `yaml:"chatwoot"`
	Assistant  AssistantConfig `yaml:"assistant"`
}

func defaults() *Config {
	return &Config{
		Port:       "8080",
		CORSOrigin: "*",
		NATSURL:    "nats://localhost:4222",
		CorpusPath: "./data/knowledge_base.csv",
		Qdrant: QdrantConfig{
			Addr:       "localhost:6334",
			Collection: "support_kb",
		},
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "nomic-embed-text",
		},
		Chatwoot: ChatwootConfig{
			BaseURL: "http://localhost:3000",
		},
		Assistant: AssistantConfig{
			TopK:    3,
			Private: true,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	if cfg.Assistant.TopK <= 0 {
		cfg.Assistant.TopK = 3
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("PORT", &cfg.Port)
	envStr("CORS_ORIGIN", &cfg.CORSOrigin)
	envStr("NATS_URL", &cfg.NATSURL)
	envStr("KNOWLEDGE_BASE_PATH", &cfg.CorpusPath)
	envStr("QDRANT_ADDR", &cfg.Qdrant.Addr)
	envStr("QDRANT_COLLECTION", &cfg.Qdrant.Collection)
	envStr("OLLAMA_URL", &cfg.Ollama.URL)
	envStr("OLLAMA_MODEL", &cfg.Ollama.Model)
	envStr("CHATWOOT_BASE_URL", &cfg.Chatwoot.BaseURL)
	envStr("CHATWOOT_API_TOKEN", &cfg.Chatwoot.APIToken)
	envInt64("CHATWOOT_ACCOUNT_ID", &cfg.Chatwoot.AccountID)
	envInt("ASSISTANT_TOP_K", &cfg.Assistant.TopK)
	envBool("ASSISTANT_PRIVATE", &cfg.Assistant.Private)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
