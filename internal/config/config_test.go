package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 20, cfg.Pipeline.HistoryCapacity)
	assert.Equal(t, []string{"Ilcom", "Gandalf PG", "Gandalf SKA", "Ogrodnik"}, cfg.Pipeline.Warehouses)
	assert.Equal(t, 365, cfg.Pipeline.HorizonDays)
	assert.Equal(t, "host=localhost port=5432 user=pipeline password= dbname=pipeline_db sslmode=disable", cfg.DSN())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_READ_TIMEOUT", "5s")
	t.Setenv("PIPELINE_WAREHOUSES", "North, South ,")
	t.Setenv("PIPELINE_HISTORY_CAPACITY", "5")
	t.Setenv("PIPELINE_USE_RECENT_SALES_PEAK", "true")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, 5*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, []string{"North", "South"}, cfg.Pipeline.Warehouses)
	assert.Equal(t, 5, cfg.Pipeline.HistoryCapacity)
	assert.True(t, cfg.Pipeline.UseRecentSalesPeak)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  port: 7000
  write_timeout: 45s
pipeline:
  transit_days: 60
  warehouses: [Main, Overflow]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	// 環境変数がファイルより優先
	assert.Equal(t, 7001, cfg.API.Port)
	assert.Equal(t, 45*time.Second, cfg.API.WriteTimeout)
	assert.Equal(t, 60, cfg.Pipeline.TransitDays)
	assert.Equal(t, 89, cfg.Pipeline.ReadyLeadDays)
	assert.Equal(t, []string{"Main", "Overflow"}, cfg.Pipeline.Warehouses)
	assert.Equal(t, "debug", cfg.Logging.Level)

	pc := cfg.PipelineConfig()
	pc.Warehouses[0] = "changed"
	assert.Equal(t, "Main", cfg.Pipeline.Warehouses[0])
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"無効なストレージ", func(c *Config) { c.Storage.Driver = "redis" }},
		{"ホスト未指定", func(c *Config) { c.Database.Host = "" }},
		{"無効なDBポート", func(c *Config) { c.Database.Port = 70000 }},
		{"無効なAPIポート", func(c *Config) { c.API.Port = 0 }},
		{"倉庫なし", func(c *Config) { c.Pipeline.Warehouses = nil }},
		{"履歴上限0", func(c *Config) { c.Pipeline.HistoryCapacity = 0 }},
		{"無効なログレベル", func(c *Config) { c.Logging.Level = "trace" }},
		{"無効なログフォーマット", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			require.NoError(t, cfg.Validate())
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// メモリストレージではDB設定は不要
	cfg := defaults()
	cfg.Storage.Driver = "memory"
	cfg.Database.Host = ""
	assert.NoError(t, cfg.Validate())
}
