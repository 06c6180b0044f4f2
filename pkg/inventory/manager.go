package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Manager owns the product and batch collections and implements every engine interface
// 商品とバッチのコレクションを所有し、全エンジンインターフェースを実装
type Manager struct {
	mu       sync.Mutex
	products map[string]*Product // SKU -> 商品
	batches  map[string]*Batch   // ID -> バッチ
	history  *history

	storage Storage     // 永続化フック
	logger  *zap.Logger // ログ
	config  *Config     // 設定
	now     Clock
}

// すべてのインターフェースを実装することを明示
var (
	_ LifecycleEngine = (*Manager)(nil)
	_ ProductManager  = (*Manager)(nil)
	_ ForecastEngine  = (*Manager)(nil)
	_ HistoryManager  = (*Manager)(nil)
)

// Config holds configuration for the pipeline engine
// パイプラインエンジンの設定を保持
type Config struct {
	HistoryCapacity        int      `yaml:"history_capacity"`          // 元に戻す履歴の上限
	Warehouses             []string `yaml:"warehouses"`                // 倉庫名一覧
	TransitDays            int      `yaml:"transit_days"`              // 標準輸送日数
	ReadyLeadDays          int      `yaml:"ready_lead_days"`           // 出荷準備から入庫までの日数
	PostProductionDays     int      `yaml:"post_production_days"`      // 生産完了から入庫までの日数
	PipelineDays           int      `yaml:"pipeline_days"`             // 生産開始から入庫までの日数
	HorizonDays            int      `yaml:"horizon_days"`              // シミュレーション期間
	SalesWindowDays        int      `yaml:"sales_window_days"`         // 販売実績の期間
	UseRecentSalesPeak     bool     `yaml:"use_recent_sales_peak"`     // 直近1ヶ月の販売ペースも考慮
	DefaultLeadTimeDays    int      `yaml:"default_lead_time_days"`    // 取込時のリードタイム既定値
	DefaultSafetyStockDays int      `yaml:"default_safety_stock_days"` // 取込時の安全在庫日数既定値
}

// DefaultConfig returns the standard pipeline constants
// 標準のパイプライン定数を返す
func DefaultConfig() *Config {
	return &Config{
		HistoryCapacity:        DefaultHistoryCapacity,
		Warehouses:             append([]string(nil), DefaultWarehouses...),
		TransitDays:            75,
		ReadyLeadDays:          89,
		PostProductionDays:     89,
		PipelineDays:           134,
		HorizonDays:            365,
		SalesWindowDays:        180,
		DefaultLeadTimeDays:    75,
		DefaultSafetyStockDays: 14,
	}
}

// withDefaults fills zero values from DefaultConfig
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.HistoryCapacity <= 0 {
		out.HistoryCapacity = d.HistoryCapacity
	}
	if len(out.Warehouses) == 0 {
		out.Warehouses = d.Warehouses
	}
	if out.TransitDays <= 0 {
		out.TransitDays = d.TransitDays
	}
	if out.ReadyLeadDays <= 0 {
		out.ReadyLeadDays = d.ReadyLeadDays
	}
	if out.PostProductionDays <= 0 {
		out.PostProductionDays = d.PostProductionDays
	}
	if out.PipelineDays <= 0 {
		out.PipelineDays = d.PipelineDays
	}
	if out.HorizonDays <= 0 {
		out.HorizonDays = d.HorizonDays
	}
	if out.SalesWindowDays <= 0 {
		out.SalesWindowDays = d.SalesWindowDays
	}
	if out.DefaultLeadTimeDays <= 0 {
		out.DefaultLeadTimeDays = d.DefaultLeadTimeDays
	}
	if out.DefaultSafetyStockDays <= 0 {
		out.DefaultSafetyStockDays = d.DefaultSafetyStockDays
	}
	return &out
}

// Option customises a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		m.now = clock
	}
}

// NewManager creates a pipeline manager and loads the initial entity set from storage
// パイプラインマネージャーを作成し、ストレージから初期データを読み込む
func NewManager(ctx context.Context, storage Storage, logger *zap.Logger, config *Config, opts ...Option) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()

	m := &Manager{
		products: make(map[string]*Product),
		batches:  make(map[string]*Batch),
		history:  newHistory(config.HistoryCapacity),
		storage:  storage,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if storage != nil {
		set, err := storage.Load(ctx)
		if err != nil {
			return nil, NewStorageError("load", "初期データの読み込みに失敗しました", err)
		}
		if set != nil {
			m.restore(HistorySnapshot{Products: set.Products, Batches: set.Batches})
		}
	}

	m.logger.Info("パイプラインマネージャー初期化完了",
		zap.Int("products", len(m.products)),
		zap.Int("batches", len(m.batches)),
	)

	return m, nil
}

// Snapshot returns a deep copy of the current entity set
// 現在のエンティティ全体のディープコピーを返す
func (m *Manager) Snapshot() HistorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capture()
}

// PushSnapshot records the current entity set as an undo point and returns it.
// Callers that group several operations into one undo step push once up front.
// 現在の状態を履歴に積む
func (m *Manager) PushSnapshot() HistorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.capture()
	m.history.push(snap)
	m.logger.Debug("スナップショットを履歴に追加しました", zap.Int("length", m.history.len()))
	return snap
}

// Restore replaces the entity set with the given snapshot. The replaced state
// becomes an undo point.
// 指定スナップショットの状態に戻す（置き換え前の状態は履歴に積む）
func (m *Manager) Restore(ctx context.Context, snap HistorySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range snap.Batches {
		if _, ok := lo.Find(snap.Products, func(p Product) bool { return p.SKU == snap.Batches[i].ProductSKU }); !ok {
			return NewBusinessRuleError("batch_product_exists", "バッチの商品がスナップショットに存在しません",
				snap.Batches[i].ID, nil)
		}
	}

	err := m.mutate(ctx, "restore", true, func() error {
		m.restore(snap)
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("スナップショットを復元しました",
		zap.Time("snapshot_at", snap.CreatedAt),
		zap.Int("products", len(snap.Products)),
		zap.Int("batches", len(snap.Batches)),
	)
	return nil
}

// Undo restores the most recent snapshot; nil when history is empty
// 直近のスナップショットを復元（履歴が空の場合はnil）
func (m *Manager) Undo(ctx context.Context) (*HistorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.history.pop()
	if !ok {
		return nil, nil
	}

	current := m.capture()
	m.restore(snap)
	if err := m.persist(ctx); err != nil {
		m.restore(current)
		m.history.push(snap)
		return nil, err
	}

	m.logger.Info("元に戻す操作完了",
		zap.Time("snapshot_at", snap.CreatedAt),
		zap.Int("remaining", m.history.len()),
	)

	return &snap, nil
}

// HistoryLen returns the number of undo snapshots available
func (m *Manager) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.len()
}

// ヘルパーメソッド

// mutate runs apply under the snapshot-then-apply discipline and persists the result.
// A failed save restores the pre-mutation state.
// スナップショット取得後に変更を適用し、結果を永続化
func (m *Manager) mutate(ctx context.Context, operation string, snapshot bool, apply func() error) error {
	pre := m.capture()

	if err := apply(); err != nil {
		m.restore(pre)
		return err
	}

	if snapshot {
		m.history.push(pre)
	}

	if err := m.persist(ctx); err != nil {
		m.restore(pre)
		if snapshot {
			m.history.pop()
		}
		m.logger.Error("変更の保存に失敗したため元の状態に戻しました",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// persist hands the full entity set to the storage hook
func (m *Manager) persist(ctx context.Context) error {
	if m.storage == nil {
		return nil
	}
	set := &EntitySet{
		Products: lo.Map(m.productList(), func(p Product, _ int) Product { return p.Clone() }),
		Batches:  lo.Map(m.batchList(), func(b Batch, _ int) Batch { return b.Clone() }),
	}
	if err := m.storage.Save(ctx, set); err != nil {
		return NewStorageError("save", "エンティティの保存に失敗しました", err)
	}
	return nil
}

func (m *Manager) capture() HistorySnapshot {
	return newSnapshot(m.productList(), m.batchList(), m.now())
}

// restore replaces both collections with copies from the snapshot
func (m *Manager) restore(s HistorySnapshot) {
	m.products = make(map[string]*Product, len(s.Products))
	for _, p := range s.Products {
		c := p.Clone()
		m.products[c.SKU] = &c
	}
	m.batches = make(map[string]*Batch, len(s.Batches))
	for _, b := range s.Batches {
		c := b.Clone()
		m.batches[c.ID] = &c
	}
}

// productList returns products ordered by SKU
func (m *Manager) productList() []Product {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// batchList returns batches ordered by ID
func (m *Manager) batchList() []Batch {
	out := make([]Batch, 0, len(m.batches))
	for _, b := range m.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) today() time.Time {
	return Day(m.now())
}

// resolveWarehouse matches a configured warehouse name, case-insensitively
// 設定済みの倉庫名と照合（大文字小文字を区別しない）
func (m *Manager) resolveWarehouse(name string) (string, bool) {
	return lo.Find(m.config.Warehouses, func(w string) bool {
		return strings.EqualFold(w, strings.TrimSpace(name))
	})
}

// findStockBucket returns the stock batch of sku at warehouse, ignoring excludeID
func (m *Manager) findStockBucket(sku, warehouse, excludeID string) *Batch {
	var found *Batch
	for _, b := range m.batches {
		if b.ID == excludeID || b.ProductSKU != sku || b.Status != StatusStock || b.Warehouse != warehouse {
			continue
		}
		if found == nil || b.ID < found.ID {
			found = b
		}
	}
	return found
}
