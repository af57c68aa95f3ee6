// Package config loads server and client settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the reporting server.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port int    `env:"PORT"    envDefault:"3001"`

	WarehouseDriver  string `env:"WAREHOUSE_DRIVER"        envDefault:"sqlserver"`
	MSSQLDSN         string `env:"MSSQL_CONNECTION_STRING"`
	WarehouseDSN     string `env:"WAREHOUSE_DSN"`
	WarehouseSchema  string `env:"WAREHOUSE_SCHEMA"        envDefault:"bi"`
	DBRequestTimeout int    `env:"DB_REQUEST_TIMEOUT_MS"   envDefault:"5000"`

	CacheTTLSeconds      int `env:"CACHE_TTL_SECONDS"       envDefault:"15"`
	RangeCacheTTLSeconds int `env:"RANGE_CACHE_TTL_SECONDS" envDefault:"60"`

	Sectors           []string `env:"SECTORS"             envSeparator:","`
	Timezone          string   `env:"TIMEZONE"            envDefault:"America/Argentina/Buenos_Aires"`
	DefaultWindowDays int      `env:"DEFAULT_WINDOW_DAYS" envDefault:"30"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// DefaultConfig returns the settings used when no variable is set.
func DefaultConfig() *Config {
	cfg := &Config{}
	// parsing against an empty environment only applies envDefault tags
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic("config: invalid defaults: " + err.Error())
	}
	return cfg
}

// Load reads Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Sectors = cleanList(cfg.Sectors)
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.WarehouseDriver {
	case "sqlserver", "sqlite":
	default:
		return fmt.Errorf("WAREHOUSE_DRIVER must be sqlserver or sqlite, got %q", c.WarehouseDriver)
	}
	if c.DSN() == "" {
		return fmt.Errorf("MSSQL_CONNECTION_STRING or WAREHOUSE_DSN is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	return nil
}

// DSN returns the warehouse connection string, preferring
// MSSQL_CONNECTION_STRING.
func (c *Config) DSN() string {
	if dsn := strings.TrimSpace(c.MSSQLDSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(c.WarehouseDSN)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.DBRequestTimeout) * time.Millisecond
}

// CacheTTL is the cache-wide TTL. Zero or less disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RangeCacheTTL caps the TTL of requests with an explicit date range.
func (c *Config) RangeCacheTTL() time.Duration {
	return time.Duration(c.RangeCacheTTLSeconds) * time.Second
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ClientConfig holds settings for the polling dashboard.
type ClientConfig struct {
	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:3001"`
	RefreshSeconds int    `env:"REFRESH_SECONDS"  envDefault:"30"`
	FetchTimeoutMS int    `env:"FETCH_TIMEOUT_MS" envDefault:"4000"`
}

// LoadClient reads ClientConfig from the process environment.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.BackendBaseURL = strings.TrimRight(strings.TrimSpace(cfg.BackendBaseURL), "/")
	return cfg, nil
}

func (c *ClientConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

func (c *ClientConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
