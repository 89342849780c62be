// Package config loads service configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cart storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `yaml:"service_name"`
	ListenAddr  string `yaml:"listen_addr"`
	LogLevel    string `yaml:"log_level"`
	TLS         struct {
		CertFile string `yaml:"cert_file"`
		KeyFile  string `yaml:"key_file"`
	} `yaml:"tls"`

	DatabaseURL string `yaml:"database_url"`

	Cart struct {
		Backend      string        `yaml:"backend"`
		SQLitePath   string        `yaml:"sqlite_path"`
		RedisAddr    string        `yaml:"redis_addr"`
		RedisTTL     time.Duration `yaml:"redis_ttl"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		// IdleTimeout releases carts unused for this long. Zero keeps them
		// open until shutdown.
		IdleTimeout time.Duration `yaml:"idle_timeout"`
	} `yaml:"cart"`

	Orders struct {
		// Repository is "memory" or "postgres".
		Repository     string   `yaml:"repository"`
		SendGridAPIKey string   `yaml:"sendgrid_api_key"`
		From           string   `yaml:"from"`
		To             string   `yaml:"to"`
		CC             []string `yaml:"cc"`
		MaxRetries     int      `yaml:"max_retries"`
	} `yaml:"orders"`

	AI struct {
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"ai"`

	Tracing struct {
		Host        string  `yaml:"host"`
		Probability float64 `yaml:"probability"`
	} `yaml:"tracing"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	var c Config
	c.ServiceName = "sufikitchen"
	c.ListenAddr = ":8443"
	c.LogLevel = "info"
	c.Cart.Backend = BackendSQLite
	c.Cart.SQLitePath = "cart.db"
	c.Cart.RedisTTL = 30 * 24 * time.Hour
	c.Cart.WriteTimeout = 5 * time.Second
	c.Cart.IdleTimeout = 30 * time.Minute
	c.Orders.Repository = BackendMemory
	c.Orders.MaxRetries = 3
	c.AI.Model = "gpt-4o-mini"
	c.AI.Temperature = 0.7
	c.AI.MaxTokens = 1024
	c.Tracing.Probability = 1.0
	return c
}

// Load reads path (if non-empty) over the defaults, then applies the
// process environment.
func Load(path string) (Config, error) {
	return LoadFrom(path, os.LookupEnv)
}

// LoadFrom is Load with an explicit environment lookup.
func LoadFrom(path string, lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("TLS_CERT_FILE", &c.TLS.CertFile)
	str("TLS_KEY_FILE", &c.TLS.KeyFile)
	str("DATABASE_URL", &c.DatabaseURL)
	str("CART_BACKEND", &c.Cart.Backend)
	str("SQLITE_PATH", &c.Cart.SQLitePath)
	str("REDIS_ADDR", &c.Cart.RedisAddr)
	str("ORDER_REPOSITORY", &c.Orders.Repository)
	str("SENDGRID_API_KEY", &c.Orders.SendGridAPIKey)
	str("ORDER_FROM", &c.Orders.From)
	str("ORDER_TO", &c.Orders.To)
	str("OPENAI_API_KEY", &c.AI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.BaseURL)
	str("OPENAI_MODEL", &c.AI.Model)
	str("OTEL_HOST", &c.Tracing.Host)

	if v, ok := lookup("ORDER_CC"); ok && v != "" {
		c.Orders.CC = nil
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				c.Orders.CC = append(c.Orders.CC, addr)
			}
		}
	}
	dur := func(name string, dst *time.Duration) error {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
		return nil
	}
	if err := dur("REDIS_TTL", &c.Cart.RedisTTL); err != nil {
		return err
	}
	if err := dur("CART_IDLE_TIMEOUT", &c.Cart.IdleTimeout); err != nil {
		return err
	}
	if v, ok := lookup("OTEL_PROBABILITY"); ok && v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OTEL_PROBABILITY: %w", err)
		}
		c.Tracing.Probability = p
	}
	return nil
}

// Validate checks values that would otherwise fail at first use.
func (c Config) Validate() error {
	switch c.Cart.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Cart.RedisAddr == "" {
			return fmt.Errorf("cart backend redis requires REDIS_ADDR")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("cart backend postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown cart backend %q", c.Cart.Backend)
	}
	switch c.Orders.Repository {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("order repository postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown order repository %q", c.Orders.Repository)
	}
	if c.Cart.IdleTimeout < 0 {
		return fmt.Errorf("cart idle timeout must not be negative")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("tls needs both cert_file and key_file")
	}
	if c.Tracing.Probability < 0 || c.Tracing.Probability > 1 {
		return fmt.Errorf("tracing probability %v out of range [0,1]", c.Tracing.Probability)
	}
	return nil
}
