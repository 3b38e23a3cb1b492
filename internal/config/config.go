// Package config loads dendro's YAML configuration and environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chriscorrea/dendro/internal/lingo"
	"github.com/chriscorrea/dendro/internal/pipeline"
)

// Defaults used when neither the file nor the environment sets a value.
const (
	DefaultPath         = "dendro.yaml"
	DefaultAddr         = ":8080"
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 4 << 20
)

// Config is the top-level YAML structure.
type Config struct {
	Addr         string `yaml:"addr"`
	LogLevel     string `yaml:"logLevel"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes"`
	// StopwordFile is a stoplist (`terms: [...]`) merged into the defaults'
	// custom stopwords. Relative paths resolve against the config file.
	StopwordFile string `yaml:"stopwordFile"`
	// Defaults are run options applied under every request's own options.
	Defaults pipeline.Options `yaml:"defaults"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:         DefaultAddr,
		LogLevel:     DefaultLogLevel,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Load reads the YAML file at path. A missing file is not an error: the
// built-in defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No config file, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	if cfg.StopwordFile != "" {
		file := cfg.StopwordFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(path), file)
		}
		terms, err := LoadStoplist(file)
		if err != nil {
			return nil, err
		}
		cfg.Defaults.CustomStopwords = append(cfg.Defaults.CustomStopwords, terms...)
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	slog.Debug("Loaded config", "path", path, "stopwords", len(cfg.Defaults.CustomStopwords))
	return cfg, nil
}

// FromEnv loads the file named by DENDRO_CONFIG (default dendro.yaml) and
// applies DENDRO_ADDR, DENDRO_LOG_LEVEL and DENDRO_MAX_BODY_BYTES on top.
func FromEnv() (*Config, error) {
	cfg, err := Load(getenv("DENDRO_CONFIG", DefaultPath))
	if err != nil {
		return nil, err
	}
	cfg.Addr = getenv("DENDRO_ADDR", cfg.Addr)
	cfg.LogLevel = getenv("DENDRO_LOG_LEVEL", cfg.LogLevel)
	cfg.MaxBodyBytes = getenvInt("DENDRO_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	return cfg, nil
}

// LoadStoplist reads a YAML stoplist file.
func LoadStoplist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stoplist %q: %w", path, err)
	}
	terms, err := lingo.ParseStoplist(data)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return terms, nil
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
