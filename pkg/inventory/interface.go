package inventory

import (
	"context"
	"time"
)

// LifecycleEngine defines the batch lifecycle operations
// バッチのライフサイクル操作を定義
type LifecycleEngine interface {
	// ステータス遷移 - Status transitions
	ApplyMove(ctx context.Context, batchID string, target Status) (MoveOutcome, error)
	ConfirmWarehouse(ctx context.Context, batchID, warehouse string) error
	Split(ctx context.Context, batchID string, moveQuantity float64, target Status, warehouse string) error

	// バッチ編集 - Batch edits
	CreateOrder(ctx context.Context, skuOrEAN string, quantity float64) (*Batch, error)
	DeleteBatch(ctx context.Context, batchID string) error
	UpdateBatchField(ctx context.Context, batchID string, field BatchField, value string) error
	UpdateBatch(ctx context.Context, batchID string, update BatchUpdate) error

	// 照会 - Inquiry
	GetBatch(ctx context.Context, batchID string) (*Batch, error)
	ListBatches(ctx context.Context) []Batch
}

// ProductManager defines interface for product management
// 商品管理のインターフェースを定義
type ProductManager interface {
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, sku string) error
	SetProductColor(ctx context.Context, sku string, color ColorKey) error
	SetProductNote(ctx context.Context, sku, note string) error
	GetProduct(ctx context.Context, sku string) (*Product, error)
	ListProducts(ctx context.Context) []Product

	// 一括取込 - Bulk import of already parsed records
	ImportProducts(ctx context.Context, records []ProductRecord) (*ImportReport, error)
	ImportStock(ctx context.Context, records []StockRecord) (*ImportReport, error)
}

// ForecastEngine defines the read-only metrics projection
// 読み取り専用の予測指標を定義
type ForecastEngine interface {
	ComputeMetrics(ctx context.Context, sku string) (*ProductMetrics, error)
	ComputeAllMetrics(ctx context.Context) []ProductMetrics
}

// HistoryManager defines snapshot and undo operations
// スナップショットと元に戻す操作を定義
type HistoryManager interface {
	Snapshot() HistorySnapshot
	PushSnapshot() HistorySnapshot
	Restore(ctx context.Context, snap HistorySnapshot) error
	Undo(ctx context.Context) (*HistorySnapshot, error)
	HistoryLen() int
}

// Storage is the persistence hook for the full entity set
// エンティティ全体の永続化フック
type Storage interface {
	Load(ctx context.Context) (*EntitySet, error)
	Save(ctx context.Context, set *EntitySet) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

// Clock returns the current time; injected so forecasts are reproducible
// 現在時刻を返す（予測の再現性のため注入可能）
type Clock func() time.Time
