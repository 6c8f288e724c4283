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

	"github.com/kilianp07/wcs/core/metrics"
	"github.com/kilianp07/wcs/core/orchestrator"
	"github.com/kilianp07/wcs/infra/mqtt"
	"github.com/kilianp07/wcs/infra/store"
)

type Config struct {
	MQTT         mqtt.Config         `json:"mqtt"`
	Database     store.Config        `json:"database"`
	Orchestrator orchestrator.Config `json:"orchestrator"`
	Metrics      metrics.Config      `json:"metrics"`
	Logging      LoggingConfig       `json:"logging"`
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
	if err := k.Load(env.Provider("WCS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "wcs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	cfg.Orchestrator.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks fields the wiring cannot default.
func (c Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.Orchestrator.LanePriority) == 0 {
		return fmt.Errorf("orchestrator.lane_priority must name at least one lane")
	}
	return nil
}
