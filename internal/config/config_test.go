package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, "sqlserver", cfg.WarehouseDriver)
	assert.Equal(t, "bi", cfg.WarehouseSchema)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout())
	assert.Equal(t, 15*time.Second, cfg.CacheTTL())
	assert.Equal(t, time.Minute, cfg.RangeCacheTTL())
	assert.Equal(t, 30, cfg.DefaultWindowDays)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Timezone)
	assert.Empty(t, cfg.Sectors)
	assert.True(t, cfg.OTelEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("WAREHOUSE_DRIVER", "sqlite")
	t.Setenv("MSSQL_CONNECTION_STRING", "")
	t.Setenv("WAREHOUSE_DSN", "file:bi.db")
	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("SECTORS", " Sector-A, ,Sector-B ")
	t.Setenv("DB_REQUEST_TIMEOUT_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, "file:bi.db", cfg.DSN())
	assert.Zero(t, cfg.CacheTTL())
	assert.Equal(t, []string{"Sector-A", "Sector-B"}, cfg.Sectors)
	assert.Equal(t, 250*time.Millisecond, cfg.QueryTimeout())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	assert.ErrorContains(t, err, "parse env:")
}

func TestDSNPrefersMSSQLConnectionString(t *testing.T) {
	cfg := &Config{MSSQLDSN: " Server=db;Database=WMS ", WarehouseDSN: "file:other.db"}
	assert.Equal(t, "Server=db;Database=WMS", cfg.DSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) { c.MSSQLDSN = "Server=db" }, ""},
		{"missing dsn", func(c *Config) {}, "WAREHOUSE_DSN is required"},
		{"bad driver", func(c *Config) { c.MSSQLDSN = "x"; c.WarehouseDriver = "oracle" }, "WAREHOUSE_DRIVER"},
		{"bad port", func(c *Config) { c.MSSQLDSN = "x"; c.Port = 70000 }, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://bi.local:3001/")
	t.Setenv("REFRESH_SECONDS", "10")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://bi.local:3001", cfg.BackendBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 4*time.Second, cfg.FetchTimeout())
}
