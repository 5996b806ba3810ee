package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// driving the background feed refresh loop.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// WindowDays is the default query window length when a request does
	// not supply its own bounds.
	WindowDays int `yaml:"window_days" json:"window_days"`

	// SourcesPath is the path of the feed-source store document.
	SourcesPath string `yaml:"sources_path" json:"sources_path"`

	// JobsPath is the path of the cron-job store document.
	JobsPath string `yaml:"jobs_path" json:"jobs_path"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/15 * * * *",
		WindowDays:  30,
		SourcesPath: "/etc/feedcal/sources.yaml",
		JobsPath:    "/etc/feedcal/jobs.yaml",
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.SourcesPath == "" {
		c.SourcesPath = def.SourcesPath
	}
	if c.JobsPath == "" {
		c.JobsPath = def.JobsPath
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: a default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, ending with 0600 permissions.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".feedcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
