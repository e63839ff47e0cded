package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener and logging.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	LogLevel        string `yaml:"log_level"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PineconeConfig points at a Pinecone index data plane.
type PineconeConfig struct {
	Host        string `yaml:"host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Namespace   string `yaml:"namespace"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PgvectorConfig stores listings in Postgres with the vector extension.
type PgvectorConfig struct {
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	Pgvector *PgvectorConfig `yaml:"pgvector,omitempty"`
}

// ChatModelConfig holds the endpoint of a chat-completion model.
type ChatModelConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig selects the model that writes the answers.
type LLMConfig struct {
	Type            string           `yaml:"type"`
	MaxOutputTokens int              `yaml:"max_output_tokens"`
	Gemini          *ChatModelConfig `yaml:"gemini,omitempty"`
	OpenAI          *ChatModelConfig `yaml:"openai,omitempty"`
}

type RetrievalConfig struct {
	TopK           int `yaml:"top_k"`
	Candidates     int `yaml:"candidates"`
	HistoryPrompts int `yaml:"history_prompts"`
}

type ConversationConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// CatalogConfig names where the laptop listings come from.
type CatalogConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

type SeedingConfig struct {
	BatchSize    int  `yaml:"batch_size"`
	BatchDelayMS int  `yaml:"batch_delay_ms"`
	OnStartup    bool `yaml:"on_startup"`
}

// EventsConfig enables the NATS publisher when NatsURL is set.
type EventsConfig struct {
	NatsURL       string `yaml:"nats_url"`
	NatsToken     string `yaml:"nats_token"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Embedder     EmbedderConfig     `yaml:"embedder"`
	VectorStore  VectorStoreConfig  `yaml:"vector_store"`
	LLM          LLMConfig          `yaml:"llm"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Seeding      SeedingConfig      `yaml:"seeding"`
	Events       EventsConfig       `yaml:"events"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/laptoprag/config.yaml.
// If neither exists it returns the defaults without writing anything; the
// returned path is empty in that case.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg, err := Load(userPath)
	return cfg, "", err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "laptoprag", "config.yaml"), nil
}

// Validate rejects unknown backend types and settings the server cannot start with.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Embedder.Type {
	case "tfidf", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder type %q", c.Embedder.Type))
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			errs = append(errs, errors.New("vector_store.qdrant.url is required"))
		}
	case "pinecone":
		if c.VectorStore.Pinecone == nil || c.VectorStore.Pinecone.Host == "" {
			errs = append(errs, errors.New("vector_store.pinecone.host is required"))
		}
	case "pgvector":
		if c.VectorStore.Pgvector == nil || c.VectorStore.Pgvector.DatabaseURL == "" {
			errs = append(errs, errors.New("vector_store.pgvector.database_url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown vector store type %q", c.VectorStore.Type))
	}
	switch c.LLM.Type {
	case "gemini":
	case "openai":
		if c.LLM.OpenAI == nil || c.LLM.OpenAI.Model == "" {
			errs = append(errs, errors.New("llm.openai.model is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm type %q", c.LLM.Type))
	}
	switch c.Catalog.Type {
	case "file", "sqlite":
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("catalog.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog type %q", c.Catalog.Type))
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Server.LogLevel))
	}
	return errors.Join(errs...)
}

// SeedBatchDelay converts the configured delay to a duration.
func (c *AppConfig) SeedBatchDelay() time.Duration {
	return time.Duration(c.Seeding.BatchDelayMS) * time.Millisecond
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:       ServerConfig{Addr: ":8080", LogLevel: "info", ShutdownTimeout: 10},
		Embedder:     EmbedderConfig{Type: "tfidf"},
		VectorStore:  VectorStoreConfig{Type: "memory"},
		LLM:          LLMConfig{Type: "gemini"},
		Retrieval:    RetrievalConfig{TopK: 10, HistoryPrompts: 1},
		Conversation: ConversationConfig{MaxTurns: 20},
		Catalog:      CatalogConfig{Type: "file", Path: "data/laptops.yaml"},
		Seeding:      SeedingConfig{BatchSize: 20, BatchDelayMS: 500},
		Events:       EventsConfig{SubjectPrefix: "laptoprag"},
		Metrics:      MetricsConfig{Namespace: "laptoprag"},
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("LAPTOPRAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Events.NatsURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.VectorStore.Type == "pgvector" {
		if cfg.VectorStore.Pgvector == nil {
			cfg.VectorStore.Pgvector = &PgvectorConfig{}
		}
		cfg.VectorStore.Pgvector.DatabaseURL = v
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if v := os.Getenv("QDRANT_URL"); v != "" {
			cfg.VectorStore.Qdrant.URL = v
		}
		if v := os.Getenv("QDRANT_API_KEY"); v != "" {
			cfg.VectorStore.Qdrant.APIKey = v
		}
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.together.xyz/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "TOGETHER_AI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "togethercomputer/m2-bert-80M-8k-retrieval"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "laptops"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if p := cfg.VectorStore.Pinecone; p != nil {
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "PINECONE_API_KEY"
		}
		if p.TimeoutSecs == 0 {
			p.TimeoutSecs = 15
		}
	}
	if p := cfg.VectorStore.Pgvector; p != nil && p.Table == "" {
		p.Table = "laptop_listings"
	}
	if cfg.LLM.MaxOutputTokens <= 0 {
		cfg.LLM.MaxOutputTokens = 2048
	}
	if cfg.LLM.Type == "gemini" {
		if cfg.LLM.Gemini == nil {
			cfg.LLM.Gemini = &ChatModelConfig{}
		}
		if cfg.LLM.Gemini.APIKeyEnv == "" {
			cfg.LLM.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
		}
		if cfg.LLM.Gemini.Model == "" {
			cfg.LLM.Gemini.Model = "gemini-1.5-pro"
		}
		if cfg.LLM.Gemini.TimeoutSecs == 0 {
			cfg.LLM.Gemini.TimeoutSecs = 60
		}
	}
	if o := cfg.LLM.OpenAI; o != nil {
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 60
		}
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Retrieval.Candidates < cfg.Retrieval.TopK {
		cfg.Retrieval.Candidates = 2 * cfg.Retrieval.TopK
	}
	if cfg.Retrieval.HistoryPrompts <= 0 {
		cfg.Retrieval.HistoryPrompts = 1
	}
	if cfg.Conversation.MaxTurns <= 0 {
		cfg.Conversation.MaxTurns = 20
	}
	if cfg.Seeding.BatchSize <= 0 {
		cfg.Seeding.BatchSize = 20
	}
	if cfg.Seeding.BatchDelayMS < 0 {
		cfg.Seeding.BatchDelayMS = 0
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "laptoprag"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "laptoprag"
	}
}
