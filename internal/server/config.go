package server

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr      = ":8090"
	defaultMaxFrames = 1000
)

type Config struct {
	Addr      string `yaml:"addr"`
	IndexPath string `yaml:"index"`
	// MaxFrames caps the page size of the frames endpoint.
	MaxFrames int `yaml:"max_frames"`
}

// DefaultConfig reads PSINDEX_ADDR and falls back to :8090.
func DefaultConfig() Config {
	return Config{
		Addr:      envOr("PSINDEX_ADDR", defaultAddr),
		MaxFrames: defaultMaxFrames,
	}
}

// LoadConfigFile reads a YAML config file over the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return normalizeConfig(cfg), nil
}

func normalizeConfig(cfg Config) Config {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		cfg.Addr = envOr("PSINDEX_ADDR", defaultAddr)
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = defaultMaxFrames
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
