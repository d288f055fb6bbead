package config

import "runtime"

// Default settings.
const (
	DefaultMaxSuggestions      = 10
	DefaultResultWindow        = 50
	DefaultFuzzyTokenThreshold = 2
	DefaultSynonymDamping      = 0.99
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ontomatch/data/db/targets.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/ontomatch/data/indices"
	}
	if cfg.Mapping.MaxSuggestions == 0 {
		cfg.Mapping.MaxSuggestions = DefaultMaxSuggestions
	}
	if cfg.Mapping.ResultWindow == 0 {
		cfg.Mapping.ResultWindow = DefaultResultWindow
	}
	if cfg.Mapping.Workers == 0 {
		cfg.Mapping.Workers = runtime.NumCPU()
	}
	if cfg.Scoring.FuzzyTokenThreshold == nil {
		threshold := DefaultFuzzyTokenThreshold
		cfg.Scoring.FuzzyTokenThreshold = &threshold
	}
	if cfg.Scoring.SynonymDamping == 0 {
		cfg.Scoring.SynonymDamping = DefaultSynonymDamping
	}
}
