// Package config manages the ~/.scaffolder/ directory and its config file.
//
// Directory layout:
//
//	~/.scaffolder/
//	    config.yaml      # template source, output location, logging, server
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file inside Dir().
const FileName = "config.yaml"

// SourceKinds lists the template source kinds a config may name.
var SourceKinds = []string{"dir", "http", "gcs"}

// Config is the persisted CLI configuration.
type Config struct {
	Source      Source `yaml:"source"`
	Output      string `yaml:"output"`
	ArchiveName string `yaml:"archive_name"`
	Concurrency int    `yaml:"concurrency"`
	Log         Log    `yaml:"log"`
	Server      Server `yaml:"server"`
}

// Source selects a template provider and holds its answers to the
// provider's configuration questions.
type Source struct {
	Kind     string            `yaml:"kind"`
	Settings map[string]string `yaml:"settings,omitempty"`
}

type Log struct {
	Mode string `yaml:"mode"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Source: Source{
			Kind:     "dir",
			Settings: map[string]string{"root": "./templates"},
		},
		Output:      ".",
		ArchiveName: "mini_lisp.zip",
		Concurrency: 8,
		Log:         Log{Mode: "dev"},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// Dir returns the base ~/.scaffolder directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".scaffolder"), nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Init creates ~/.scaffolder/. It is not an error if it already exists.
func Init() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file, falling back to Default when it does not
// exist, then applies environment overrides and validates the result.
// Fields missing from the file keep their defaults.
func Load() (Config, error) {
	cfg := Default()
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		// Settings in the file replace the default settings wholesale.
		defaults := cfg.Source.Settings
		cfg.Source.Settings = nil
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.Source.Settings == nil && cfg.Source.Kind == Default().Source.Kind {
			cfg.Source.Settings = defaults
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to the config file, creating the directory if needed.
func Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := Init(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCAFFOLDER_SOURCE_KIND"); v != "" {
		if v != c.Source.Kind {
			c.Source.Settings = nil
		}
		c.Source.Kind = v
	}
	if v := os.Getenv("SCAFFOLDER_SOURCE_ROOT"); v != "" {
		if c.Source.Settings == nil {
			c.Source.Settings = map[string]string{}
		}
		c.Source.Settings[rootKey(c.Source.Kind)] = v
	}
	if v := os.Getenv("SCAFFOLDER_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("SCAFFOLDER_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("SCAFFOLDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SCAFFOLDER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAFFOLDER_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	return nil
}

// rootKey is the setting SCAFFOLDER_SOURCE_ROOT fills for a source kind.
func rootKey(kind string) string {
	switch kind {
	case "http":
		return "base_url"
	case "gcs":
		return "bucket"
	default:
		return "root"
	}
}

// Validate rejects configurations the CLI cannot run with.
func (c Config) Validate() error {
	known := false
	for _, k := range SourceKinds {
		if c.Source.Kind == k {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: unknown source kind %q (want one of %s)", c.Source.Kind, strings.Join(SourceKinds, ", "))
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: concurrency must be positive, got %d", c.Concurrency)
	}
	if strings.TrimSpace(c.ArchiveName) == "" || strings.ContainsAny(c.ArchiveName, `/\`) {
		return fmt.Errorf("config: archive_name %q must be a plain file name", c.ArchiveName)
	}
	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "development", "prod", "production", "off", "none":
	default:
		return fmt.Errorf("config: unknown log mode %q", c.Log.Mode)
	}
	return nil
}
