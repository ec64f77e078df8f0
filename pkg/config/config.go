package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	applogger "EquityLens/pkg/logger"
	"EquityLens/pkg/tracing"
)

type Config struct {
	Environment string           `yaml:"environment"`
	Logger      applogger.Config `yaml:"logger"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Tracing  tracing.Config `yaml:"tracing"`
	Analysis struct {
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
		SinkTimeout  time.Duration `yaml:"sink_timeout"`
		Parallelism  int           `yaml:"parallelism"`
		MaxBatch     int           `yaml:"max_batch"`
	} `yaml:"analysis"`
	Backtest struct {
		RiskFreeRate float64 `yaml:"risk_free_rate"`
	} `yaml:"backtest"`
	// Search.CatalogPath points at a YAML symbol catalog; empty uses the
	// built-in list.
	Search struct {
		CatalogPath string `yaml:"catalog_path"`
	} `yaml:"search"`
	Provider struct {
		Type       string        `yaml:"type"` // http | clickhouse
		URL        string        `yaml:"url"`
		APIKey     string        `yaml:"api_key"`
		Timeout    time.Duration `yaml:"timeout"`
		RateBurst  float64       `yaml:"rate_burst"`
		RatePerSec float64       `yaml:"rate_per_sec"`
	} `yaml:"provider"`
	Archive struct {
		Type       string `yaml:"type"` // none | sqlite | clickhouse
		SQLitePath string `yaml:"sqlite_path"`
		Table      string `yaml:"table"`
	} `yaml:"archive"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		MemoryTTL     time.Duration `yaml:"memory_ttl"`
		RemoteTimeout time.Duration `yaml:"remote_timeout"`
	} `yaml:"cache"`
	// Queue is the Redis job queue carrying refresh requests when Kafka is
	// off. It shares the cache.redis connection settings.
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Prefix     string        `yaml:"prefix"`
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		ResultsTopic string   `yaml:"results_topic"`
		RefreshTopic string   `yaml:"refresh_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		InitSchema       bool          `yaml:"init_schema"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration that runs with no external services other
// than the HTTP provider.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads .env files (when present), then the YAML file, then
// applies environment overrides. An empty path starts from Default.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	c := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := parse(path)
			if err != nil {
				return nil, err
			}
			c = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// loadDotEnv never overrides variables already set in the process.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EQUITYLENS_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("EQUITYLENS_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("EQUITYLENS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EQUITYLENS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("EQUITYLENS_PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("EQUITYLENS_ARCHIVE"); v != "" {
		c.Archive.Type = v
	}
	if v := os.Getenv("EQUITYLENS_SYMBOL_CATALOG"); v != "" {
		c.Search.CatalogPath = v
	}
	if v := os.Getenv("PROVIDER_URL"); v != "" {
		c.Provider.URL = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SlowThreshold == 0 {
		c.Server.SlowThreshold = 2 * time.Second
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "equitylens"
	}
	if c.Analysis.FetchTimeout == 0 {
		c.Analysis.FetchTimeout = 10 * time.Second
	}
	if c.Analysis.RetryBackoff == 0 {
		c.Analysis.RetryBackoff = 250 * time.Millisecond
	}
	if c.Analysis.SinkTimeout == 0 {
		c.Analysis.SinkTimeout = 5 * time.Second
	}
	if c.Analysis.Parallelism == 0 {
		c.Analysis.Parallelism = 4
	}
	if c.Analysis.MaxBatch == 0 {
		c.Analysis.MaxBatch = 50
	}
	if c.Backtest.RiskFreeRate == 0 {
		c.Backtest.RiskFreeRate = 0.02
	}
	if c.Provider.Type == "" {
		c.Provider.Type = "http"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 15 * time.Second
	}
	if c.Provider.RateBurst == 0 {
		c.Provider.RateBurst = 5
	}
	if c.Archive.Type == "" {
		c.Archive.Type = "none"
	}
	if c.Archive.SQLitePath == "" {
		c.Archive.SQLitePath = "equitylens.db"
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "analysis_results"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "equitylens"
	}
	if c.Cache.Redis.PoolSize == 0 {
		c.Cache.Redis.PoolSize = 10
	}
	if c.Cache.MemoryMaxSize == 0 {
		c.Cache.MemoryMaxSize = 1000
	}
	if c.Cache.MemoryTTL == 0 {
		c.Cache.MemoryTTL = time.Minute
	}
	if c.Cache.RemoteTimeout == 0 {
		c.Cache.RemoteTimeout = 500 * time.Millisecond
	}
	if c.Queue.Prefix == "" {
		c.Queue.Prefix = "equitylens:queue"
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.RetryLimit == 0 {
		c.Queue.RetryLimit = 3
	}
	if c.Queue.RetryDelay == 0 {
		c.Queue.RetryDelay = 10 * time.Second
	}
	if c.Kafka.ResultsTopic == "" {
		c.Kafka.ResultsTopic = "equitylens.analysis.results"
	}
	if c.Kafka.RefreshTopic == "" {
		c.Kafka.RefreshTopic = "equitylens.analysis.refresh"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "snappy"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "equitylens"
	}
	if c.Kafka.Consumer.Workers == 0 {
		c.Kafka.Consumer.Workers = 4
	}
	if c.ClickHouse.Port == 0 {
		c.ClickHouse.Port = 9000
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "equitylens"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case "http":
		if c.Provider.URL == "" {
			return fmt.Errorf("provider.url is required for the http provider")
		}
	case "clickhouse":
	default:
		return fmt.Errorf("provider.type must be 'http' or 'clickhouse', got '%s'", c.Provider.Type)
	}
	switch c.Archive.Type {
	case "none", "sqlite", "clickhouse":
	default:
		return fmt.Errorf("archive.type must be 'none', 'sqlite' or 'clickhouse', got '%s'", c.Archive.Type)
	}
	if c.NeedsClickHouse() && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.NeedsRedis() && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis or the job queue is enabled")
	}
	for name, d := range map[string]time.Duration{
		"analysis.fetch_timeout": c.Analysis.FetchTimeout,
		"analysis.sink_timeout":  c.Analysis.SinkTimeout,
		"provider.timeout":       c.Provider.Timeout,
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Backtest.RiskFreeRate < 0 || c.Backtest.RiskFreeRate >= 1 {
		return fmt.Errorf("backtest.risk_free_rate must be in [0, 1)")
	}
	if c.Analysis.RetryBackoff < 0 {
		return fmt.Errorf("analysis.retry_backoff cannot be negative")
	}
	return nil
}

// NeedsClickHouse reports whether any configured adapter uses ClickHouse.
func (c *Config) NeedsClickHouse() bool {
	return c.Provider.Type == "clickhouse" || c.Archive.Type == "clickhouse"
}

// NeedsRedis reports whether the remote cache or the job queue is on.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Redis.Enabled || c.Queue.Enabled
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
