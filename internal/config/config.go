package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.assessrec/assessrec.yaml.
type Config struct {
	CatalogPath string  `yaml:"catalog_path"`
	DataDir     string  `yaml:"data_dir,omitempty"`
	TopK        int     `yaml:"top_k,omitempty"`
	Oversample  int     `yaml:"oversample,omitempty"`
	MinScore    float64 `yaml:"min_score,omitempty"`
	Listen      string  `yaml:"listen,omitempty"`
	ShowScores  bool    `yaml:"show_scores,omitempty"`
}

// HomeDir returns the absolute path to ~/.assessrec/.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".assessrec"), nil
}

// ConfigPath returns the absolute path to ~/.assessrec/assessrec.yaml.
func ConfigPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "assessrec.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first assessrec init.
func DefaultConfig() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CatalogPath: filepath.Join(dir, "catalog.json"),
		DataDir:     dir,
		TopK:        10,
		Oversample:  3,
		MinScore:    0,
		Listen:      ":8080",
	}, nil
}

// IndexDir returns the directory holding the serving index artifacts.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "index")
}

// CatalogDBPath returns the path of the normalized-catalog SQLite database.
func (c *Config) CatalogDBPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// EffectiveTopK returns the configured default result count, or 10.
func (c *Config) EffectiveTopK() int {
	if c.TopK > 0 {
		return c.TopK
	}
	return 10
}

// EffectiveOversample returns the retrieval oversampling factor, or 3.
// Retrieval fetches k*oversample candidates to leave room for deduplication.
func (c *Config) EffectiveOversample() int {
	if c.Oversample > 0 {
		return c.Oversample
	}
	return 3
}

// Load reads and parses ~/.assessrec/assessrec.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	cfg.CatalogPath, err = ExpandPath(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	cfg.DataDir, err = ExpandPath(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		dir, err := HomeDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.assessrec/assessrec.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
