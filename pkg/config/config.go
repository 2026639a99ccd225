// Package config loads the optional YAML configuration shared by the commands.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file-level configuration
type Config struct {
	DuckDB   DuckDBConfig   `yaml:"duckdb"`
	NATS     NATSConfig     `yaml:"nats"`
	Milvus   MilvusConfig   `yaml:"milvus"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Verbose  bool           `yaml:"verbose"`
}

type DuckDBConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	URL        string        `yaml:"url"`
	Stream     string        `yaml:"stream"`
	Consumer   string        `yaml:"consumer"`
	AckWait    time.Duration `yaml:"ack_wait"`
	MaxDeliver int           `yaml:"max_deliver"`
}

type MilvusConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`
}

type AnalysisConfig struct {
	PatternCount  int  `yaml:"pattern_count"`
	ExactMatch    bool `yaml:"exact_match"`
	ReferenceYear int  `yaml:"reference_year"`
	CellWidth     int  `yaml:"cell_width"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		DuckDB: DuckDBConfig{Path: "soicau.duckdb"},
		NATS: NATSConfig{
			URL:        "nats://localhost:4222",
			Stream:     "soicau",
			Consumer:   "soicau-worker",
			AckWait:    30 * time.Second,
			MaxDeliver: 3,
		},
		Milvus: MilvusConfig{
			Address:    "localhost:19530",
			Collection: "pair_profiles",
			TopK:       20,
		},
		Analysis: AnalysisConfig{
			PatternCount:  2,
			ExactMatch:    false,
			ReferenceYear: time.Now().Year(),
			CellWidth:     5,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values a file may have broken
func (c Config) Validate() error {
	if c.Analysis.PatternCount < 0 {
		return fmt.Errorf("analysis.pattern_count must not be negative, got %d", c.Analysis.PatternCount)
	}
	if c.Analysis.CellWidth < 0 {
		return fmt.Errorf("analysis.cell_width must not be negative, got %d", c.Analysis.CellWidth)
	}
	if c.Milvus.TopK < 0 {
		return fmt.Errorf("milvus.top_k must not be negative, got %d", c.Milvus.TopK)
	}
	return nil
}

// ApplyFlags lets explicitly set command-line flags win over file values.
// overrides maps a flag name to the setter copying that flag's value.
func ApplyFlags(fs *flag.FlagSet, overrides map[string]func()) {
	fs.Visit(func(f *flag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set()
		}
	})
}
