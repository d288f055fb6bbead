// Package config provides configuration loading and structs for ontomatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ontomatch/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool                 `yaml:"debug"`
	Storage  StorageConfig        `yaml:"storage"`
	Mapping  MappingConfig        `yaml:"mapping"`
	Scoring  ScoringConfig        `yaml:"scoring"`
	Entities MappingConfiguration `yaml:"entities"`
}

// StorageConfig holds paths for the target database and search indices.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexDir     string `yaml:"index_dir"`
}

// MappingConfig holds suggestion funnel and batch settings.
type MappingConfig struct {
	MaxSuggestions int `yaml:"max_suggestions"`
	// MinScore drops suggestions below this normalized score. 0 accepts everything.
	MinScore float64 `yaml:"min_score"`
	// AcceptAnyFinalStage lets similar-ontology results bypass MinScore.
	AcceptAnyFinalStage bool `yaml:"accept_any_final_stage"`
	// ResultWindow caps the hits taken from the index per query.
	ResultWindow int `yaml:"result_window"`
	// Workers bounds how many entities of a batch are mapped concurrently.
	Workers int `yaml:"workers"`
}

// ScoringConfig holds score calculator constants.
type ScoringConfig struct {
	// FuzzyTokenThreshold is the edit budget under which two tokens count as equal.
	// Unset means DefaultFuzzyTokenThreshold; 0 allows exact token matches only.
	FuzzyTokenThreshold *int `yaml:"fuzzy_token_threshold"`
	// SynonymDamping scales synonym matches and must lie in (0, 1). 0 means the default.
	SynonymDamping float64 `yaml:"synonym_damping"`
}

// TokenThreshold returns the configured token edit budget, or the default when unset.
func (s ScoringConfig) TokenThreshold() int {
	if s.FuzzyTokenThreshold == nil {
		return DefaultFuzzyTokenThreshold
	}
	return *s.FuzzyTokenThreshold
}

// Damping returns the configured synonym damping, or the default when unset.
func (s ScoringConfig) Damping() float64 {
	if s.SynonymDamping == 0 {
		return DefaultSynonymDamping
	}
	return s.SynonymDamping
}

// Validate rejects a negative token threshold and a synonym damping outside (0, 1).
func (s ScoringConfig) Validate() error {
	if s.TokenThreshold() < 0 {
		return fmt.Errorf("%w: fuzzy_token_threshold must not be negative, got %d",
			models.ErrMalformedConfiguration, s.TokenThreshold())
	}
	if d := s.Damping(); d <= 0 || d >= 1 {
		return fmt.Errorf("%w: synonym_damping must be between 0 and 1 exclusive, got %v",
			models.ErrMalformedConfiguration, d)
	}
	return nil
}

// Load reads and parses the config file at path, expands paths, applies defaults,
// and validates the entity mapping configuration.
// Returns an error if the file cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Entities.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
