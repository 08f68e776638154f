package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
environment: test
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
  shutdown_timeout: 15s
backend:
  type: kafka
kafka:
  brokers: ["localhost:9092"]
  topic: recommendations
agents:
  endpoints:
    fundamental: http://localhost:8001
    technical: http://localhost:8002
    sentiment: http://localhost:8003
    macro: http://localhost:8004
    regulatory: http://localhost:8005
  timeout: 20s
advisor:
  timeout: 30s
  cache_ttl: 5m
watchlist:
  enabled: false
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "test" {
		t.Errorf("environment = %q", c.Environment)
	}
	if c.Backend.Type != "kafka" {
		t.Errorf("backend = %q", c.Backend.Type)
	}
	if len(c.Agents.Endpoints) != 5 {
		t.Errorf("endpoints = %d, want 5", len(c.Agents.Endpoints))
	}
	if c.Advisor.CacheTTL.Minutes() != 5 {
		t.Errorf("cache_ttl = %v", c.Advisor.CacheTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing environment", func(c *Config) { c.Environment = "" }, true},
		{"unknown backend", func(c *Config) { c.Backend.Type = "postgres" }, true},
		{"clickhouse backend", func(c *Config) { c.Backend.Type = "clickhouse" }, false},
		{"no agents", func(c *Config) { c.Agents.Endpoints = nil }, true},
		{"empty agent url", func(c *Config) { c.Agents.Endpoints["macro"] = "" }, true},
		{"watchlist without tickers", func(c *Config) { c.Watchlist.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, sampleConfig))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND", "clickhouse")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AGENT_MACRO_URL", "http://macro.internal:9000")

	c, err := LoadWithEnv(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Errorf("port = %d", c.Server.Port)
	}
	if c.Backend.Type != "clickhouse" {
		t.Errorf("backend = %q", c.Backend.Type)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", c.Kafka.Brokers)
	}
	if c.Agents.Endpoints["macro"] != "http://macro.internal:9000" {
		t.Errorf("macro endpoint = %q", c.Agents.Endpoints["macro"])
	}
}
