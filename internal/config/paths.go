package config

import (
	"os"
	"path/filepath"
)

// Paths contains commonly used file paths.
type Paths struct {
	Database string // Main SQLite database
	Cache    string // Badger cache directory
	Logs     string // Log directory
	Config   string // Config file
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = filepath.Join(cfg.BaseDir, "cache")
	}
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "eveuniverse.db"),
		Cache:    cacheDir,
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
		Config:   filepath.Join(cfg.BaseDir, "config.yaml"),
	}
}

// DefaultBaseDir returns the default base directory (~/.eveuniverse).
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eveuniverse"
	}
	return filepath.Join(home, ".eveuniverse")
}
