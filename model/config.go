package model

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/siherrmann/ragengine/helper"
	"gopkg.in/yaml.v3"
)

const (
	StoreTypeMemory   = "memory"
	StoreTypeSQLite   = "sqlite"
	StoreTypePostgres = "postgres"

	ProviderTypeOllama = "ollama"
	ProviderTypeOpenAI = "openai"
	ProviderTypeHugot  = "hugot"
)

// Destinations for engine logs.
const (
	LogOutputStdout = "stdout"
	LogOutputStderr = "stderr"
)

const (
	DefaultNResults    = 30
	DefaultMaxDistance = 0.8
)

// AskConfig represents configuration for retrieval before answering
type AskConfig struct {
	// Number of nearest documents requested from the collection
	NResults int `json:"n_results" yaml:"n_results"`
	// Documents with a distance of MaxDistance or more are dropped
	MaxDistance float64 `json:"max_distance" yaml:"max_distance"`
}

// DefaultAskConfig returns the default retrieval configuration
func DefaultAskConfig() AskConfig {
	return AskConfig{
		NResults:    DefaultNResults,
		MaxDistance: DefaultMaxDistance,
	}
}

// ChunkerConfig configures the text splitter.
type ChunkerConfig struct {
	Capacity int `yaml:"capacity"`
	Overlap  int `yaml:"overlap"`
}

// StoreConfig selects the collection backend.
// PostgreSQL connection settings come from the environment.
type StoreConfig struct {
	Type         string `yaml:"type"`
	EmbeddingDim int    `yaml:"embedding_dim"`
}

// ProviderConfig configures an embedding or generation provider.
type ProviderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the request timeout, zero meaning no timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// APIKey reads the api key from the configured environment variable.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// EngineConfig is the complete engine configuration, usually read from YAML.
type EngineConfig struct {
	CollectionName string         `yaml:"collection_name"`
	PersistPath    string         `yaml:"persist_path"`
	Store          StoreConfig    `yaml:"store"`
	Embedder       ProviderConfig `yaml:"embedder"`
	Generator      ProviderConfig `yaml:"generator"`
	Chunker        ChunkerConfig  `yaml:"chunker"`
	Ask            AskConfig      `yaml:"ask"`
	LogLevel       string         `yaml:"log_level"`
	LogOutput      string         `yaml:"log_output"` // stdout (default) or stderr
}

// DefaultEngineConfig returns a configuration using local Ollama models
// and an in-memory collection.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		CollectionName: "default",
		Store: StoreConfig{
			Type:         StoreTypeMemory,
			EmbeddingDim: 768,
		},
		Embedder: ProviderConfig{
			Type:        ProviderTypeOllama,
			Model:       "nomic-embed-text:latest",
			BaseURL:     "http://localhost:11434",
			TimeoutSecs: 60,
		},
		Generator: ProviderConfig{
			Type:        ProviderTypeOllama,
			Model:       "gemma3:4b",
			BaseURL:     "http://localhost:11434",
			TimeoutSecs: 300,
		},
		Chunker: ChunkerConfig{
			Capacity: 100,
			Overlap:  50,
		},
		Ask:      DefaultAskConfig(),
		LogLevel: "info",
	}
}

// LoadEngineConfig reads a YAML file on top of DefaultEngineConfig.
// A persist path without an explicit store type selects SQLite.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	config := DefaultEngineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read config", err)
	}

	// Store type is derived from persist_path when the file leaves it out.
	config.Store.Type = ""
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, helper.NewError("parse config", err)
	}
	if config.Store.Type == "" {
		config.Store.Type = StoreTypeMemory
		if config.PersistPath != "" {
			config.Store.Type = StoreTypeSQLite
		}
	}

	err = config.Validate()
	if err != nil {
		return nil, helper.NewError("validate config", err)
	}

	return config, nil
}

// LogWriter returns where engine logs are written.
func (c *EngineConfig) LogWriter() io.Writer {
	if c.LogOutput == LogOutputStderr {
		return os.Stderr
	}
	return os.Stdout
}

// Validate checks the configuration for values the engine cannot work with.
func (c *EngineConfig) Validate() error {
	if c.CollectionName == "" {
		return fmt.Errorf("collection_name must not be empty")
	}

	switch c.Store.Type {
	case StoreTypeMemory, StoreTypePostgres:
	case StoreTypeSQLite:
		if c.PersistPath == "" {
			return fmt.Errorf("persist_path is required for store type %s", StoreTypeSQLite)
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	if c.Store.Type == StoreTypePostgres && c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("store.embedding_dim must be positive for store type %s", StoreTypePostgres)
	}

	switch c.Embedder.Type {
	case ProviderTypeOllama, ProviderTypeOpenAI, ProviderTypeHugot:
	default:
		return fmt.Errorf("unsupported embedder type: %s", c.Embedder.Type)
	}

	switch c.Generator.Type {
	case ProviderTypeOllama, ProviderTypeOpenAI:
	default:
		return fmt.Errorf("unsupported generator type: %s", c.Generator.Type)
	}

	if c.Chunker.Capacity <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Capacity {
		return fmt.Errorf("chunker requires capacity > 0 and 0 <= overlap < capacity, got %d/%d", c.Chunker.Capacity, c.Chunker.Overlap)
	}

	switch c.LogOutput {
	case "", LogOutputStdout, LogOutputStderr:
	default:
		return fmt.Errorf("unsupported log_output: %s", c.LogOutput)
	}

	if c.Ask.NResults < 0 {
		return fmt.Errorf("ask.n_results must not be negative")
	}

	return nil
}
