package main

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiPipeline/internal/config"
	"github.com/nemonet1337/zaiPipeline/internal/logging"
)

func main() {
	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	logger.Info("zaiPipeline マイグレーション実行ツール",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	// 接続テスト
	if err := db.Ping(); err != nil {
		logger.Fatal("データベースpingに失敗しました", zap.Error(err))
	}

	// マイグレーションディレクトリの確認
	migrationDir := "migrations"
	if len(os.Args) > 1 {
		migrationDir = os.Args[1]
	}

	if _, err := os.Stat(migrationDir); os.IsNotExist(err) {
		logger.Fatal("マイグレーションディレクトリが見つかりません", zap.String("dir", migrationDir))
	}

	m := &migrator{db: db, logger: logger}

	// マイグレーション履歴テーブルの作成
	if err := m.createMigrationTable(); err != nil {
		logger.Fatal("マイグレーション履歴テーブル作成に失敗しました", zap.Error(err))
	}

	// マイグレーション実行
	if err := m.run(migrationDir); err != nil {
		logger.Fatal("マイグレーション実行に失敗しました", zap.Error(err))
	}

	logger.Info("すべてのマイグレーションが完了しました")
}

type migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

// createMigrationTable マイグレーション履歴テーブルを作成
func (m *migrator) createMigrationTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) NOT NULL UNIQUE,
			executed_at TIMESTAMP NOT NULL DEFAULT NOW(),
			checksum VARCHAR(64) NOT NULL
		)`

	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("マイグレーション履歴テーブル作成エラー: %w", err)
	}
	return nil
}

// run マイグレーションを実行
func (m *migrator) run(migrationDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("マイグレーションファイル検索エラー: %w", err)
	}

	if len(files) == 0 {
		m.logger.Warn("マイグレーションファイルが見つかりません", zap.String("dir", migrationDir))
		return nil
	}

	// ファイル名でソート
	sort.Strings(files)

	executed, err := m.executedMigrations()
	if err != nil {
		return fmt.Errorf("実行済みマイグレーション取得エラー: %w", err)
	}

	for _, file := range files {
		filename := filepath.Base(file)

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("ファイル読み込みエラー %s: %w", filename, err)
		}
		checksum := calculateChecksum(content)

		if recorded, ok := executed[filename]; ok {
			if recorded != checksum {
				m.logger.Warn("実行済みマイグレーションが変更されています",
					zap.String("file", filename),
					zap.String("recorded", recorded),
					zap.String("current", checksum),
				)
			}
			m.logger.Debug("スキップ (実行済み)", zap.String("file", filename))
			continue
		}

		if err := m.apply(filename, content, checksum); err != nil {
			return err
		}
		m.logger.Info("完了", zap.String("file", filename))
	}

	return nil
}

// apply runs one migration file and records it inside a single transaction
func (m *migrator) apply(filename string, content []byte, checksum string) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始エラー %s: %w", filename, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("マイグレーション実行エラー %s: %w", filename, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (filename, checksum) VALUES ($1, $2)",
		filename, checksum,
	); err != nil {
		return fmt.Errorf("マイグレーション履歴記録エラー %s: %w", filename, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションコミットエラー %s: %w", filename, err)
	}
	return nil
}

// executedMigrations 実行済みマイグレーションとチェックサムを取得
func (m *migrator) executedMigrations() (map[string]string, error) {
	executed := make(map[string]string)

	rows, err := m.db.Query("SELECT filename, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename, checksum string
		if err := rows.Scan(&filename, &checksum); err != nil {
			return nil, err
		}
		executed[filename] = checksum
	}

	return executed, rows.Err()
}

// calculateChecksum ファイル内容のSHA-256チェックサムを計算
func calculateChecksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
