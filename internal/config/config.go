package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Prompts struct {
	// Extraction is a template with two %s verbs: the field schema
	// listing and the chunk text.
	Extraction string `toml:"extraction"`
	// Date is a template with one %s verb: the raw date string.
	Date string `toml:"date"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type ConcurrencyConfig struct {
	// MaxExtractions caps in-flight extractor calls per document.
	MaxExtractions int `toml:"max_extractions"`
}

type DedupeConfig struct {
	// SimilarityThreshold: items with cosine similarity at or above this
	// value collapse into one representative.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

type DatesConfig struct {
	// Layouts are tried in order against the whole input string.
	Layouts []string `toml:"layouts"`
	// LLMFallback enables the slow high-recall parse for strings no
	// layout matches.
	LLMFallback       bool `toml:"llm_fallback"`
	LLMTimeoutSeconds int  `toml:"llm_timeout_seconds"`
}

type ChunkingConfig struct {
	WindowSize int `toml:"window_size"`
	Overlap    int `toml:"overlap"`
}

type ArchiveConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Dedupe      DedupeConfig      `toml:"dedupe"`
	Dates       DatesConfig       `toml:"dates"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Archive     ArchiveConfig     `toml:"archive"`
	Prompts     Prompts           `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config usable without a file on disk.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Concurrency.MaxExtractions < 1 {
		c.Concurrency.MaxExtractions = 5
	}
	if c.Dedupe.SimilarityThreshold <= 0 || c.Dedupe.SimilarityThreshold > 1 {
		c.Dedupe.SimilarityThreshold = 0.9
	}
	if len(c.Dates.Layouts) == 0 {
		c.Dates.Layouts = []string{
			"2006-01-02",
			"01/02/2006",
			"02-01-2006",
			"January 2, 2006",
			"Jan 2, 2006",
			"2 January 2006",
			"2 Jan 2006",
		}
	}
	if c.Dates.LLMTimeoutSeconds < 1 {
		c.Dates.LLMTimeoutSeconds = 15
	}
	if c.Chunking.WindowSize < 1 {
		c.Chunking.WindowSize = 4000
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.WindowSize {
		c.Chunking.Overlap = 200
	}
}
