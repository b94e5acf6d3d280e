package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for floatcheck.
type Config struct {
	MarketURL string `yaml:"market_url"`
	Headless  bool   `yaml:"headless"`
	UserAgent string `yaml:"user_agent"`
	LogLevel  string `yaml:"log_level"`

	// HTTP API
	APIPort string `yaml:"api_port"`

	// Inspection backend. When BackendAddr is set the gRPC relay is used,
	// otherwise BackendURL is called directly.
	BackendURL      string        `yaml:"backend_url"`
	BackendAddr     string        `yaml:"backend_addr"`
	BackendInterval time.Duration `yaml:"backend_interval"`
	GRPCPort        string        `yaml:"grpc_port"`

	// NATS
	UseNATS bool   `yaml:"use_nats"`
	NATSURL string `yaml:"nats_url"`

	// Timing
	PollInterval  time.Duration `yaml:"poll_interval"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	BridgeTimeout time.Duration `yaml:"bridge_timeout"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		MarketURL: "https://steamcommunity.com/market/listings/730/AK-47%20%7C%20Redline%20%28Field-Tested%29",
		Headless:  false,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		LogLevel: "info",

		APIPort: "8080",

		BackendURL:      "https://api.csgofloat.com",
		BackendInterval: 250 * time.Millisecond,
		GRPCPort:        "8081",

		NATSURL: "nats://localhost:4222",

		PollInterval:  100 * time.Millisecond,
		ScanInterval:  500 * time.Millisecond,
		BridgeTimeout: 10 * time.Second,
		FetchTimeout:  30 * time.Second,
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the processor cannot run with.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %s", c.ScanInterval)
	}
	if c.BridgeTimeout <= 0 {
		return fmt.Errorf("bridge_timeout must be positive, got %s", c.BridgeTimeout)
	}
	if c.BackendURL == "" && c.BackendAddr == "" {
		return fmt.Errorf("either backend_url or backend_addr is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.MarketURL = getEnv("MARKET_URL", cfg.MarketURL)
	cfg.Headless = getEnvBool("HEADLESS", cfg.Headless)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.BackendAddr = getEnv("BACKEND_ADDR", cfg.BackendAddr)
	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.UseNATS = getEnvBool("USE_NATS", cfg.UseNATS)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.BridgeTimeout = getEnvDuration("BRIDGE_TIMEOUT", cfg.BridgeTimeout)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
