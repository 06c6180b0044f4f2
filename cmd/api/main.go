package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiPipeline/internal/config"
	"github.com/nemonet1337/zaiPipeline/internal/logging"
	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
	"github.com/nemonet1337/zaiPipeline/pkg/inventory/storage"
)

func main() {
	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	// ログ設定
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	// ストレージ接続
	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("ストレージ初期化に失敗しました", zap.Error(err))
	}
	defer store.Close()

	// パイプラインマネージャー初期化
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	manager, err := inventory.NewManager(ctx, store, logger, cfg.PipelineConfig())
	cancel()
	if err != nil {
		logger.Fatal("パイプラインマネージャー初期化に失敗しました", zap.Error(err))
	}

	// HTTPハンドラー設定
	metrics := newAPIMetrics()
	handlers := NewHandlers(manager, metrics, logger)
	router := setupRouter(handlers, cfg.API)

	// HTTPサーバー設定
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	// グレースフルシャットダウン設定
	go func() {
		logger.Info("パイプラインAPIサーバーを開始します",
			zap.Int("port", cfg.API.Port),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー開始に失敗しました", zap.Error(err))
		}
	}()

	// シャットダウンシグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// グレースフルシャットダウン
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンに失敗しました", zap.Error(err))
	}

	logger.Info("サーバーが正常に停止しました")
}

// openStorage builds the configured persistence backend
// 設定された永続化バックエンドを構築
func openStorage(cfg *config.Config, logger *zap.Logger) (inventory.Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStorage(nil), nil
	default:
		pg, err := storage.NewPostgreSQLStorage(cfg.DSN(), logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
}

// setupRouter sets up HTTP routes
// HTTPルートを設定
func setupRouter(handlers *Handlers, apiCfg config.APIConfig) *mux.Router {
	router := mux.NewRouter()

	// ヘルスチェック
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	if apiCfg.EnableMetrics {
		router.Handle("/metrics", handlers.metrics.handler()).Methods("GET")
	}

	// API v1ルート
	api := router.PathPrefix("/api/v1").Subrouter()

	// 商品管理
	api.HandleFunc("/products", handlers.ListProducts).Methods("GET")
	api.HandleFunc("/products", handlers.CreateProduct).Methods("POST")
	api.HandleFunc("/products/{sku}", handlers.GetProduct).Methods("GET")
	api.HandleFunc("/products/{sku}", handlers.UpdateProduct).Methods("PUT")
	api.HandleFunc("/products/{sku}", handlers.DeleteProduct).Methods("DELETE")
	api.HandleFunc("/products/{sku}/color", handlers.SetProductColor).Methods("PUT")
	api.HandleFunc("/products/{sku}/note", handlers.SetProductNote).Methods("PUT")

	// 予測
	api.HandleFunc("/products/{sku}/metrics", handlers.GetProductMetrics).Methods("GET")
	api.HandleFunc("/metrics", handlers.ListMetrics).Methods("GET")

	// バッチ操作
	api.HandleFunc("/batches", handlers.ListBatches).Methods("GET")
	api.HandleFunc("/orders", handlers.CreateOrder).Methods("POST")
	api.HandleFunc("/batches/{id}", handlers.GetBatch).Methods("GET")
	api.HandleFunc("/batches/{id}", handlers.UpdateBatch).Methods("PUT")
	api.HandleFunc("/batches/{id}", handlers.DeleteBatch).Methods("DELETE")
	api.HandleFunc("/batches/{id}/move", handlers.MoveBatch).Methods("POST")
	api.HandleFunc("/batches/{id}/warehouse", handlers.ConfirmWarehouse).Methods("POST")
	api.HandleFunc("/batches/{id}/split", handlers.SplitBatch).Methods("POST")
	api.HandleFunc("/batches/{id}/fields/{field}", handlers.UpdateBatchField).Methods("PUT")

	// 一括取込
	api.HandleFunc("/import/products", handlers.ImportProducts).Methods("POST")
	api.HandleFunc("/import/stock", handlers.ImportStock).Methods("POST")

	// 履歴
	api.HandleFunc("/history", handlers.GetHistory).Methods("GET")
	api.HandleFunc("/history", handlers.TakeSnapshot).Methods("POST")
	api.HandleFunc("/history/undo", handlers.Undo).Methods("POST")
	api.HandleFunc("/history/restore", handlers.RestoreSnapshot).Methods("POST")

	// CORS設定
	if apiCfg.EnableCORS {
		router.Use(corsMiddleware)
	}

	// ログ機能
	router.Use(loggingMiddleware(handlers.logger))
	router.Use(handlers.metrics.instrument)

	return router
}

// corsMiddleware allows browser clients from any origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
// HTTPリクエストをログ出力するミドルウェア
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// リクエスト処理
			next.ServeHTTP(w, r)

			// ログ出力
			logger.Info("HTTPリクエスト",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
