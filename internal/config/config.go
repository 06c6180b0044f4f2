package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
)

// Config holds application configuration
// アプリケーション設定を保持
type Config struct {
	Database DatabaseConfig   `yaml:"database"`
	API      APIConfig        `yaml:"api"`
	Storage  StorageConfig    `yaml:"storage"`
	Pipeline inventory.Config `yaml:"pipeline"`
	Logging  LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database configuration
// データベース設定を保持
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// APIConfig holds API server configuration
// APIサーバー設定を保持
type APIConfig struct {
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	EnableCORS    bool          `yaml:"enable_cors"`
	EnableMetrics bool          `yaml:"enable_metrics"`
}

// StorageConfig selects the persistence backend
// 永続化バックエンドの選択
type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres, memory
}

// LoggingConfig holds logging configuration
// ログ設定を保持
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, ファイルパス
}

// Load loads configuration from .env, an optional YAML file and environment variables.
// Environment variables win over the file.
// .env、YAMLファイル、環境変数から設定を読み込み
func Load() (*Config, error) {
	// .envは任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env読み込みに失敗しました: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定バリデーションに失敗しました: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "pipeline",
			DBName:  "pipeline_db",
			SSLMode: "disable",
		},
		API: APIConfig{
			Port:          8080,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
			IdleTimeout:   60 * time.Second,
			EnableCORS:    true,
			EnableMetrics: true,
		},
		Storage:  StorageConfig{Driver: "postgres"},
		Pipeline: *inventory.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// loadFile overlays the YAML file at path onto c
// YAMLファイルの内容を設定に重ねる
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイル読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイル解析に失敗しました: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.API.Port = getEnvAsInt("API_PORT", c.API.Port)
	c.API.ReadTimeout = getEnvAsDuration("API_READ_TIMEOUT", c.API.ReadTimeout)
	c.API.WriteTimeout = getEnvAsDuration("API_WRITE_TIMEOUT", c.API.WriteTimeout)
	c.API.IdleTimeout = getEnvAsDuration("API_IDLE_TIMEOUT", c.API.IdleTimeout)
	c.API.EnableCORS = getEnvAsBool("API_ENABLE_CORS", c.API.EnableCORS)
	c.API.EnableMetrics = getEnvAsBool("API_ENABLE_METRICS", c.API.EnableMetrics)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)

	p := &c.Pipeline
	p.HistoryCapacity = getEnvAsInt("PIPELINE_HISTORY_CAPACITY", p.HistoryCapacity)
	p.Warehouses = getEnvAsList("PIPELINE_WAREHOUSES", p.Warehouses)
	p.TransitDays = getEnvAsInt("PIPELINE_TRANSIT_DAYS", p.TransitDays)
	p.ReadyLeadDays = getEnvAsInt("PIPELINE_READY_LEAD_DAYS", p.ReadyLeadDays)
	p.PostProductionDays = getEnvAsInt("PIPELINE_POST_PRODUCTION_DAYS", p.PostProductionDays)
	p.PipelineDays = getEnvAsInt("PIPELINE_DAYS", p.PipelineDays)
	p.HorizonDays = getEnvAsInt("PIPELINE_HORIZON_DAYS", p.HorizonDays)
	p.SalesWindowDays = getEnvAsInt("PIPELINE_SALES_WINDOW_DAYS", p.SalesWindowDays)
	p.UseRecentSalesPeak = getEnvAsBool("PIPELINE_USE_RECENT_SALES_PEAK", p.UseRecentSalesPeak)
	p.DefaultLeadTimeDays = getEnvAsInt("PIPELINE_DEFAULT_LEAD_TIME_DAYS", p.DefaultLeadTimeDays)
	p.DefaultSafetyStockDays = getEnvAsInt("PIPELINE_DEFAULT_SAFETY_STOCK_DAYS", p.DefaultSafetyStockDays)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
}

// Validate validates the configuration
// 設定をバリデーション
func (c *Config) Validate() error {
	// ストレージ設定チェック
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		// データベース設定チェック
		if c.Database.Host == "" {
			return fmt.Errorf("データベースホストが指定されていません")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("無効なデータベースポート: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("データベースユーザーが指定されていません")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("データベース名が指定されていません")
		}
	default:
		return fmt.Errorf("無効なストレージドライバー: %s", c.Storage.Driver)
	}

	// API設定チェック
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("無効なAPIポート: %d", c.API.Port)
	}

	// パイプライン設定チェック
	if len(c.Pipeline.Warehouses) == 0 {
		return fmt.Errorf("倉庫が指定されていません")
	}
	if c.Pipeline.HistoryCapacity <= 0 {
		return fmt.Errorf("履歴上限は1以上である必要があります")
	}
	if c.Pipeline.HorizonDays <= 0 {
		return fmt.Errorf("シミュレーション期間は1以上である必要があります")
	}
	if c.Pipeline.SalesWindowDays <= 0 {
		return fmt.Errorf("販売期間は1以上である必要があります")
	}

	// ログ設定チェック
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("無効なログレベル: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("無効なログフォーマット: %s", c.Logging.Format)
	}

	return nil
}

// DSN generates PostgreSQL Data Source Name
// PostgreSQLデータソース名を生成
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// PipelineConfig returns a copy of the pipeline engine settings
// パイプラインエンジン設定のコピーを返す
func (c *Config) PipelineConfig() *inventory.Config {
	p := c.Pipeline
	p.Warehouses = append([]string(nil), c.Pipeline.Warehouses...)
	return &p
}

// ヘルパー関数

// getEnv gets environment variable with default value
// デフォルト値付きで環境変数を取得
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
// デフォルト値付きで環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean with default value
// デフォルト値付きで環境変数をbooleanとして取得
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets environment variable as duration with default value
// デフォルト値付きで環境変数をdurationとして取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList gets a comma separated environment variable as a list
// カンマ区切りの環境変数をリストとして取得
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
