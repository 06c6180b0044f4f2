// Package inventory provides the supply pipeline batch engine and the
// per-product forecasting and reorder decision projection.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Status is the pipeline stage of a batch
// バッチのパイプライン段階
type Status string

const (
	StatusPlanned      Status = "planned"       // 生産計画
	StatusInProduction Status = "in_production" // 生産中
	StatusTransit      Status = "transit"       // 輸送中
	StatusReady        Status = "ready"         // 出荷準備完了
	StatusOrdered      Status = "ordered"       // 発注済み
	StatusStock        Status = "stock"         // 在庫
)

// AllStatuses lists every pipeline stage
var AllStatuses = []Status{
	StatusPlanned,
	StatusInProduction,
	StatusTransit,
	StatusReady,
	StatusOrdered,
	StatusStock,
}

// FinishType is the surface finish category of a product
// 商品の表面仕上げ区分
type FinishType string

const (
	FinishPoler   FinishType = "Poler"
	FinishMat     FinishType = "Mat"
	FinishCarving FinishType = "Carving"
	FinishLappato FinishType = "Lappato"
	FinishOther   FinishType = "Inne"
)

// ColorKey is a tag color from the fixed palette
// 固定パレットのタグカラー
type ColorKey string

const (
	ColorRed    ColorKey = "red"
	ColorOrange ColorKey = "orange"
	ColorYellow ColorKey = "yellow"
	ColorGreen  ColorKey = "green"
	ColorBlue   ColorKey = "blue"
	ColorPurple ColorKey = "purple"
	ColorPink   ColorKey = "pink"
	ColorCyan   ColorKey = "cyan"
	ColorGray   ColorKey = "gray"
	ColorBrown  ColorKey = "brown"
)

// DefaultWarehouses are the stock sites used when no list is configured
var DefaultWarehouses = []string{"Ilcom", "Gandalf PG", "Gandalf SKA", "Ogrodnik"}

// Product is a SKU tracked through the pipeline
// パイプラインで追跡される商品（SKU）
type Product struct {
	SKU             string     `json:"sku" db:"sku"`                               // SKU（不変）
	Name            string     `json:"name" db:"name"`                             // 商品名
	EAN             string     `json:"ean" db:"ean"`                               // EANコード
	Dimension       string     `json:"dimension" db:"dimension"`                   // 寸法
	Finish          FinishType `json:"finish" db:"finish"`                         // 仕上げ
	Supplier        string     `json:"supplier" db:"supplier"`                     // 仕入先
	Sales6Months    float64    `json:"sales_6_months" db:"sales_6_months"`         // 直近6ヶ月販売量
	Sales1Month     *float64   `json:"sales_1_month,omitempty" db:"sales_1_month"` // 直近1ヶ月販売量
	DaysInStock     *int       `json:"days_in_stock,omitempty" db:"days_in_stock"` // 実在庫日数（販売期間の除数）
	LeadTimeDays    int        `json:"lead_time_days" db:"lead_time_days"`         // リードタイム（日）
	SafetyStockDays int        `json:"safety_stock_days" db:"safety_stock_days"`   // 安全在庫日数
	Color           ColorKey   `json:"color,omitempty" db:"color"`                 // タグカラー
	Note            string     `json:"note,omitempty" db:"note"`                   // ダッシュボードメモ
}

// Batch is a quantity of one product at one pipeline stage
// 一つのパイプライン段階にある商品の数量
type Batch struct {
	ID                    string     `json:"id" db:"id"`
	ProductSKU            string     `json:"product_sku" db:"product_sku"`
	Quantity              float64    `json:"quantity" db:"quantity"` // 数量（m²）
	Status                Status     `json:"status" db:"status"`
	PlannedProductionDate *time.Time `json:"planned_production_date,omitempty" db:"planned_production_date"`
	ProductionStartDate   *time.Time `json:"production_start_date,omitempty" db:"production_start_date"`
	ProductionEndDate     *time.Time `json:"production_end_date,omitempty" db:"production_end_date"`
	TransitStartDate      *time.Time `json:"transit_start_date,omitempty" db:"transit_start_date"`
	ETA                   *time.Time `json:"eta,omitempty" db:"eta"`
	OrderDate             *time.Time `json:"order_date,omitempty" db:"order_date"`
	ContainerNo           string     `json:"container_no,omitempty" db:"container_no"`
	VesselName            string     `json:"vessel_name,omitempty" db:"vessel_name"`
	Warehouse             string     `json:"warehouse,omitempty" db:"warehouse"` // status=stockの場合のみ有効
	Color                 ColorKey   `json:"color,omitempty" db:"color"`
}

// EntitySet is the full product and batch collection exchanged with storage
// ストレージとやり取りする全エンティティ
type EntitySet struct {
	Products []Product `json:"products"`
	Batches  []Batch   `json:"batches"`
}

// HistorySnapshot is an immutable deep copy of the entity set used for undo
// 元に戻す操作用のエンティティ全体のディープコピー
type HistorySnapshot struct {
	Products  []Product `json:"products"`
	Batches   []Batch   `json:"batches"`
	CreatedAt time.Time `json:"created_at"`
}

// MoveResult describes what ApplyMove did with a move intent
// 移動要求の処理結果
type MoveResult string

const (
	MoveCompleted        MoveResult = "completed"                // 即時完了
	MovePendingWarehouse MoveResult = "pending_warehouse_choice" // 倉庫選択待ち
	MovePendingSplit     MoveResult = "pending_split"            // 分割数量待ち
	MoveRejected         MoveResult = "rejected"                 // 同一ステータス
)

// MoveOutcome is returned by ApplyMove
type MoveOutcome struct {
	Result MoveResult `json:"result"`
	// SuggestedQuantity is the full batch quantity offered for a pending split
	SuggestedQuantity float64 `json:"suggested_quantity,omitempty"`
}

// BatchField names a batch attribute editable in place
// その場で編集可能なバッチ属性
type BatchField string

const (
	FieldQuantity              BatchField = "quantity"
	FieldETA                   BatchField = "eta"
	FieldOrderDate             BatchField = "orderDate"
	FieldPlannedProductionDate BatchField = "plannedProductionDate"
	FieldProductionStartDate   BatchField = "productionStartDate"
	FieldProductionEndDate     BatchField = "productionEndDate"
	FieldTransitStartDate      BatchField = "transitStartDate"
	FieldContainerNo           BatchField = "containerNo"
	FieldVesselName            BatchField = "vesselName"
	FieldColor                 BatchField = "color"
	FieldWarehouse             BatchField = "warehouse"
)

// BatchUpdate carries a whole-form batch edit; nil fields are cleared
// バッチ編集フォームの内容（nilのフィールドはクリア）
type BatchUpdate struct {
	Quantity              float64    `json:"quantity"`
	ETA                   *time.Time `json:"eta,omitempty"`
	OrderDate             *time.Time `json:"order_date,omitempty"`
	PlannedProductionDate *time.Time `json:"planned_production_date,omitempty"`
	ProductionEndDate     *time.Time `json:"production_end_date,omitempty"`
	ContainerNo           string     `json:"container_no,omitempty"`
	VesselName            string     `json:"vessel_name,omitempty"`
	Warehouse             string     `json:"warehouse,omitempty"`
}

// Decision is the reorder recommendation for a product
// 商品の発注判断
type Decision string

const (
	DecisionCriticalLow Decision = "CRITICAL LOW" // 入荷予定なし・安全在庫以下
	DecisionWait        Decision = "WAIT"         // 輸送中の入荷を待つ
	DecisionUrgentGap   Decision = "URGENT GAP"   // 入荷前に欠品
	DecisionOrderNow    Decision = "ORDER NOW"    // 発注点割れ
	DecisionOK          Decision = "OK"
)

// ProductMetrics is the read-only forecast projection for one product
// 商品ごとの予測指標（読み取り専用）
type ProductMetrics struct {
	SKU                    string     `json:"sku"`
	TotalStock             float64    `json:"total_stock"`
	TotalInTransit         float64    `json:"total_in_transit"`
	QtyReady               float64    `json:"qty_ready"`
	QtyInProduction        float64    `json:"qty_in_production"`
	QtyPlanned             float64    `json:"qty_planned"`
	QtyOrdered             float64    `json:"qty_ordered"`
	DailySales             float64    `json:"daily_sales"`
	DaysInventoryOnHand    float64    `json:"days_inventory_on_hand"`
	ReorderPoint           float64    `json:"reorder_point"`
	LeadTimeDemand         float64    `json:"lead_time_demand"`
	SafetyStockQty         float64    `json:"safety_stock_qty"`
	NextArrivalDate        *time.Time `json:"next_arrival_date"`
	DaysToNextArrival      *int       `json:"days_to_next_arrival"`
	PredictedStockoutDate  *time.Time `json:"predicted_stockout_date"`
	DaysToStockout         *int       `json:"days_to_stockout"`
	StockoutGap            bool       `json:"stockout_gap"`
	OldestOrderDate        *time.Time `json:"oldest_order_date"`
	PlannedProductionStart *time.Time `json:"planned_production_start"`
	PredictedProductionEnd *time.Time `json:"predicted_production_end"`
	Decision               Decision   `json:"decision"`
}

// NewBatchID generates a new batch ID
// 新しいバッチIDを生成
func NewBatchID() string {
	return uuid.New().String()
}

// Clone returns a deep copy of the batch
// バッチのディープコピーを返す
func (b Batch) Clone() Batch {
	c := b
	c.PlannedProductionDate = cloneTime(b.PlannedProductionDate)
	c.ProductionStartDate = cloneTime(b.ProductionStartDate)
	c.ProductionEndDate = cloneTime(b.ProductionEndDate)
	c.TransitStartDate = cloneTime(b.TransitStartDate)
	c.ETA = cloneTime(b.ETA)
	c.OrderDate = cloneTime(b.OrderDate)
	return c
}

// Clone returns a deep copy of the product
// 商品のディープコピーを返す
func (p Product) Clone() Product {
	c := p
	if p.Sales1Month != nil {
		v := *p.Sales1Month
		c.Sales1Month = &v
	}
	if p.DaysInStock != nil {
		v := *p.DaysInStock
		c.DaysInStock = &v
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
