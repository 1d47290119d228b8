package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the lattice.yaml file format. Every field has a flag
// equivalent; flags win over file values.
type Config struct {
	URL   string            `yaml:"url"`
	Query map[string]string `yaml:"query"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	DebounceMS int `yaml:"debounce_ms"`

	UploadEndpoint string `yaml:"upload_endpoint"`

	Scripts struct {
		Enabled bool `yaml:"enabled"`
		Stdlib  bool `yaml:"stdlib"`
	} `yaml:"scripts"`
}

// DefaultConfigPath is searched when --config is not given.
const DefaultConfigPath = "lattice.yaml"

// LoadConfig reads a YAML config file. A missing file at the default path
// is not an error; a missing explicit path is.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Debounce converts the configured window, 0 meaning library default.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
