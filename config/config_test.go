package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "wcs"
  shuttle_id: "sh1"
  username: "user"
  password: "pass"
  use_tls: false
database:
  driver: "sqlite"
  dsn: "wcs.db"
orchestrator:
  lane_priority: ["L1", "L2"]
  order_by: "column"
  max_event_depth: 6
  ack_timeout_seconds: 3
metrics:
  prometheus_enabled: true
  prometheus_port: ":9100"
logging:
  level: "debug"
  format: "console"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "wcs"},
		{"shuttle_id", cfg.MQTT.ShuttleID, "sh1"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"driver", cfg.Database.Driver, "sqlite"},
		{"dsn", cfg.Database.DSN, "wcs.db"},
		{"lanes", len(cfg.Orchestrator.LanePriority), 2},
		{"order_by", cfg.Orchestrator.OrderBy, "column"},
		{"max_event_depth", cfg.Orchestrator.MaxEventDepth, 6},
		{"ack_timeout", cfg.Orchestrator.AckTimeoutSeconds, 3},
		{"prom_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prom_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"log_level", cfg.Logging.Level, "debug"},
		{"log_format", cfg.Logging.Format, "console"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `database:
  driver: "sqlite"
  dsn: ":memory:"
orchestrator:
  lane_priority: ["L1"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults not applied: %+v", cfg.Logging)
	}
	if cfg.Orchestrator.OrderBy == "" || cfg.Orchestrator.AckTimeoutSeconds != 5 {
		t.Errorf("orchestrator defaults not applied: %+v", cfg.Orchestrator)
	}
}

func TestLoadRejectsMissingLanes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `database:
  driver: "sqlite"
  dsn: ":memory:"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
