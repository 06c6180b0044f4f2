package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nemonet1337/zaiPipeline/internal/config"
)

// New builds a zap logger from the logging configuration
// ログ設定からzapロガーを構築
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("無効なログレベル: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Output != "" {
		zc.OutputPaths = []string{cfg.Output}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("ロガー初期化に失敗しました: %w", err)
	}
	return logger, nil
}
