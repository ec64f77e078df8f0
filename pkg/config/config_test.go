package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
provider:
  url: http://gateway:9090
analysis:
  fetch_timeout: 3s
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Provider.Type != "http" || c.Archive.Type != "none" || c.Server.Port != 8080 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Analysis.FetchTimeout != 3*time.Second || c.Analysis.RetryBackoff != 250*time.Millisecond {
		t.Fatalf("analysis = %+v", c.Analysis)
	}
	if c.Kafka.RefreshTopic == "" || c.Logger.Level != "info" {
		t.Fatalf("kafka/logger defaults missing")
	}
	if c.Backtest.RiskFreeRate != 0.02 || c.Search.CatalogPath != "" {
		t.Fatalf("backtest/search defaults = %+v %+v", c.Backtest, c.Search)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"http needs url", func(c *Config) { c.Provider.URL = "" }, "provider.url"},
		{"bad provider", func(c *Config) { c.Provider.Type = "csv" }, "provider.type"},
		{"bad archive", func(c *Config) { c.Archive.Type = "postgres" }, "archive.type"},
		{"clickhouse host", func(c *Config) { c.Archive.Type = "clickhouse" }, "clickhouse.host"},
		{"kafka brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
		{"redis addr", func(c *Config) { c.Cache.Redis.Enabled = true }, "cache.redis.addr"},
		{"queue needs redis", func(c *Config) { c.Queue.Enabled = true }, "cache.redis.addr"},
		{"timeout", func(c *Config) { c.Analysis.FetchTimeout = -time.Second }, "analysis.fetch_timeout"},
		{"risk free rate", func(c *Config) { c.Backtest.RiskFreeRate = 1.5 }, "backtest.risk_free_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			c.Provider.URL = "http://gateway"
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want mention of %s", err, tc.want)
			}
		})
	}

	c := Default()
	c.Provider.URL = "http://gateway"
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "archive:\n  type: sqlite\n")
	envPath := writeFile(t, dir, ".env", "PROVIDER_URL=http://from-dotenv\nEQUITYLENS_PORT=9191\n")

	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PROVIDER_API_KEY", "secret")
	// godotenv must not clobber variables already in the environment
	t.Setenv("EQUITYLENS_PORT", "7070")
	t.Cleanup(func() { os.Unsetenv("PROVIDER_URL") })

	c, err := LoadWithEnv(cfgPath, envPath)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Provider.URL != "http://from-dotenv" || c.Provider.APIKey != "secret" {
		t.Fatalf("provider = %+v", c.Provider)
	}
	if c.Server.Port != 7070 {
		t.Fatalf("port = %d, want process env to win", c.Server.Port)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("kafka = %+v", c.Kafka.Brokers)
	}
	if c.Archive.Type != "sqlite" {
		t.Fatalf("yaml value lost: %s", c.Archive.Type)
	}
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PROVIDER_URL", "http://gateway")
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Provider.URL != "http://gateway" || c.Environment != "development" {
		t.Fatalf("unexpected config: %+v", c)
	}
}
