// Package config loads the dispatchd configuration from a yaml or json
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fleetops/dispatchd/core/metrics"
	"github.com/fleetops/dispatchd/infra/mqtt"
)

type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	Storage  StorageConfig  `json:"storage"`
	Realtime RealtimeConfig `json:"realtime"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Metrics  metrics.Config `json:"metrics"`
}

// HTTPConfig defines the listener for the REST and websocket surface.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend selects the store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the sqlite database file location.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "dispatchd.db"
	}
}

// Validate checks mandatory fields.
func (c StorageConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// RealtimeConfig tunes the websocket hub.
type RealtimeConfig struct {
	// WriteTimeoutSeconds bounds each subscriber send.
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *RealtimeConfig) SetDefaults() {
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 5
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("D_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "d_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Storage.SetDefaults()
	cfg.Realtime.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
