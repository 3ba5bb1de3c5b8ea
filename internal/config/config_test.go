package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.InDelta(t, 100.0, cfg.DefaultMinBuy, 0.001)
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.MarketDataURL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "@every 15m", cfg.PriceRefreshCron)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("PORTFOLIO_CURRENCY", "USD")
	t.Setenv("DEFAULT_MIN_BUY_AMOUNT", "25.5")
	t.Setenv("ALLOWED_ORIGIN", "https://example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "USD", cfg.Currency)
	assert.InDelta(t, 25.5, cfg.DefaultMinBuy, 0.001)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DEFAULT_MIN_BUY_AMOUNT", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.InDelta(t, 100.0, cfg.DefaultMinBuy, 0.001)
}

func TestLoadResolvesDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORTFOLIO_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:          8000,
			Currency:      "EUR",
			DefaultMinBuy: 100,
			Backup:        &BackupConfig{},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"empty currency", func(c *Config) { c.Currency = "" }, true},
		{"negative min buy", func(c *Config) { c.DefaultMinBuy = -1 }, true},
		{"backup without bucket", func(c *Config) { c.Backup.Enabled = true }, true},
		{"backup with bucket", func(c *Config) {
			c.Backup.Enabled = true
			c.Backup.Bucket = "backups"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadBackupConfig(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("BACKUP_BUCKET", "my-backups")
	t.Setenv("BACKUP_REGION", "us-east-1")
	t.Setenv("BACKUP_PREFIX", "prod")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Backup)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, "my-backups", cfg.Backup.Bucket)
	assert.Equal(t, "us-east-1", cfg.Backup.Region)
	assert.Equal(t, "prod", cfg.Backup.Prefix)
}
