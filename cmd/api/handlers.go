package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
)

// PipelineService is everything the HTTP surface calls into
// HTTP層が呼び出すパイプライン操作
type PipelineService interface {
	inventory.LifecycleEngine
	inventory.ProductManager
	inventory.ForecastEngine
	inventory.HistoryManager
}

// Handlers holds HTTP handlers for the pipeline API
// パイプラインAPI用のHTTPハンドラーを保持
type Handlers struct {
	service PipelineService
	metrics *apiMetrics
	logger  *zap.Logger
}

// NewHandlers creates new HTTP handlers
// 新しいHTTPハンドラーを作成
func NewHandlers(service PipelineService, metrics *apiMetrics, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// APIResponse represents standard API response format
// 標準的なAPIレスポンス形式を表現
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MoveRequest represents a drag of a batch onto another status column
// バッチのステータス移動リクエスト
type MoveRequest struct {
	Status inventory.Status `json:"status"`
}

// WarehouseRequest represents the warehouse chosen for an arriving batch
// 入庫倉庫の選択リクエスト
type WarehouseRequest struct {
	Warehouse string `json:"warehouse"`
}

// SplitRequest represents a partial move of a batch
// バッチ分割リクエスト
type SplitRequest struct {
	Quantity  float64          `json:"quantity"`
	Status    inventory.Status `json:"status"`
	Warehouse string           `json:"warehouse"`
}

// OrderRequest represents a new supplier order
// 新規発注リクエスト
type OrderRequest struct {
	Product  string  `json:"product"` // SKUまたはEAN
	Quantity float64 `json:"quantity"`
}

// FieldRequest represents an in-place batch field edit
type FieldRequest struct {
	Value string `json:"value"`
}

// ColorRequest represents a product color tag change
type ColorRequest struct {
	Color inventory.ColorKey `json:"color"`
}

// NoteRequest represents a product dashboard note change
type NoteRequest struct {
	Note string `json:"note"`
}

// HealthCheck handles health check requests
// ヘルスチェックリクエストを処理
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "zaiPipeline",
	})
}

// 商品

// ListProducts handles product list requests
// 商品一覧リクエストを処理
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, h.service.ListProducts(r.Context()))
}

// CreateProduct handles product creation requests
// 商品作成リクエストを処理
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product inventory.Product
	if !h.decode(w, r, &product) {
		return
	}
	if err := h.service.CreateProduct(r.Context(), &product); err != nil {
		h.fail(w, "create_product", err)
		return
	}
	h.metrics.operation("create_product", nil)
	h.sendCreated(w, product)
}

// GetProduct handles product fetch requests
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), mux.Vars(r)["sku"])
	if err != nil {
		h.sendError(w, statusFor(err), err.Error())
		return
	}
	h.sendSuccess(w, product)
}

// UpdateProduct handles product update requests; the SKU comes from the path
// 商品更新リクエストを処理
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var product inventory.Product
	if !h.decode(w, r, &product) {
		return
	}
	product.SKU = mux.Vars(r)["sku"]
	if err := h.service.UpdateProduct(r.Context(), &product); err != nil {
		h.fail(w, "update_product", err)
		return
	}
	h.metrics.operation("update_product", nil)
	h.sendSuccess(w, product)
}

// DeleteProduct handles product deletion requests
// 商品削除リクエストを処理
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), mux.Vars(r)["sku"]); err != nil {
		h.fail(w, "delete_product", err)
		return
	}
	h.metrics.operation("delete_product", nil)
	h.sendSuccess(w, map[string]string{"message": "商品を削除しました"})
}

// SetProductColor handles color tag requests
func (h *Handlers) SetProductColor(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetProductColor(r.Context(), mux.Vars(r)["sku"], req.Color); err != nil {
		h.fail(w, "set_product_color", err)
		return
	}
	h.metrics.operation("set_product_color", nil)
	h.sendSuccess(w, map[string]string{"message": "カラーを更新しました"})
}

// SetProductNote handles dashboard note requests
func (h *Handlers) SetProductNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetProductNote(r.Context(), mux.Vars(r)["sku"], req.Note); err != nil {
		h.fail(w, "set_product_note", err)
		return
	}
	h.metrics.operation("set_product_note", nil)
	h.sendSuccess(w, map[string]string{"message": "メモを更新しました"})
}

// 予測

// GetProductMetrics handles the forecast of one product
// 商品の予測指標リクエストを処理
func (h *Handlers) GetProductMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.ComputeMetrics(r.Context(), mux.Vars(r)["sku"])
	if err != nil {
		h.sendError(w, statusFor(err), err.Error())
		return
	}
	h.sendSuccess(w, metrics)
}

// ListMetrics handles the forecast of every product and refreshes the decision gauge
// 全商品の予測指標リクエストを処理
func (h *Handlers) ListMetrics(w http.ResponseWriter, r *http.Request) {
	all := h.service.ComputeAllMetrics(r.Context())
	h.metrics.observeDecisions(all)
	h.sendSuccess(w, all)
}

// バッチ

// ListBatches handles batch list requests
func (h *Handlers) ListBatches(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, h.service.ListBatches(r.Context()))
}

// GetBatch handles batch fetch requests
func (h *Handlers) GetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.GetBatch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, statusFor(err), err.Error())
		return
	}
	h.sendSuccess(w, batch)
}

// CreateOrder handles new order requests
// 新規発注リクエストを処理
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	batch, err := h.service.CreateOrder(r.Context(), req.Product, req.Quantity)
	if err != nil {
		h.fail(w, "create_order", err)
		return
	}
	h.metrics.operation("create_order", nil)
	h.sendCreated(w, batch)
}

// UpdateBatch handles whole-form batch edits
// バッチ編集リクエストを処理
func (h *Handlers) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var update inventory.BatchUpdate
	if !h.decode(w, r, &update) {
		return
	}
	if err := h.service.UpdateBatch(r.Context(), mux.Vars(r)["id"], update); err != nil {
		h.fail(w, "update_batch", err)
		return
	}
	h.metrics.operation("update_batch", nil)
	h.GetBatch(w, r)
}

// DeleteBatch handles batch deletion requests
// バッチ削除リクエストを処理
func (h *Handlers) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBatch(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, "delete_batch", err)
		return
	}
	h.metrics.operation("delete_batch", nil)
	h.sendSuccess(w, map[string]string{"message": "バッチを削除しました"})
}

// MoveBatch handles status move requests
// ステータス移動リクエストを処理
func (h *Handlers) MoveBatch(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.service.ApplyMove(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.fail(w, "apply_move", err)
		return
	}
	h.metrics.operation("apply_move", nil)
	h.sendSuccess(w, outcome)
}

// ConfirmWarehouse handles the warehouse choice that completes a move into stock
// 入庫倉庫の確定リクエストを処理
func (h *Handlers) ConfirmWarehouse(w http.ResponseWriter, r *http.Request) {
	var req WarehouseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ConfirmWarehouse(r.Context(), mux.Vars(r)["id"], req.Warehouse); err != nil {
		h.fail(w, "confirm_warehouse", err)
		return
	}
	h.metrics.operation("confirm_warehouse", nil)
	h.sendSuccess(w, map[string]string{"message": "入庫が完了しました"})
}

// SplitBatch handles partial move requests
// バッチ分割リクエストを処理
func (h *Handlers) SplitBatch(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Split(r.Context(), mux.Vars(r)["id"], req.Quantity, req.Status, req.Warehouse); err != nil {
		h.fail(w, "split", err)
		return
	}
	h.metrics.operation("split", nil)
	h.sendSuccess(w, map[string]string{"message": "分割が完了しました"})
}

// UpdateBatchField handles in-place batch field edits
// バッチ項目のその場編集を処理
func (h *Handlers) UpdateBatchField(w http.ResponseWriter, r *http.Request) {
	var req FieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	if err := h.service.UpdateBatchField(r.Context(), vars["id"], inventory.BatchField(vars["field"]), req.Value); err != nil {
		h.fail(w, "update_batch_field", err)
		return
	}
	h.metrics.operation("update_batch_field", nil)
	h.GetBatch(w, r)
}

// 取込

// ImportProducts handles parsed product import rows
// 商品取込リクエストを処理
func (h *Handlers) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var records []inventory.ProductRecord
	if !h.decode(w, r, &records) {
		return
	}
	report, err := h.service.ImportProducts(r.Context(), records)
	if err != nil {
		h.fail(w, "import_products", err)
		return
	}
	h.metrics.operation("import_products", nil)
	h.sendSuccess(w, report)
}

// ImportStock handles parsed stock-level import rows
// 在庫取込リクエストを処理
func (h *Handlers) ImportStock(w http.ResponseWriter, r *http.Request) {
	var records []inventory.StockRecord
	if !h.decode(w, r, &records) {
		return
	}
	report, err := h.service.ImportStock(r.Context(), records)
	if err != nil {
		h.fail(w, "import_stock", err)
		return
	}
	h.metrics.operation("import_stock", nil)
	h.sendSuccess(w, report)
}

// 履歴

// GetHistory reports the undo stack depth
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	h.sendSuccess(w, map[string]int{"length": h.service.HistoryLen()})
}

// TakeSnapshot pushes the current entity set onto the undo stack
// 現在の状態を履歴に積み、そのスナップショットを返す
func (h *Handlers) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.service.PushSnapshot()
	h.metrics.operation("snapshot", nil)
	h.sendCreated(w, map[string]interface{}{
		"snapshot": snap,
		"length":   h.service.HistoryLen(),
	})
}

// RestoreSnapshot replaces the entity set with the posted snapshot
// 送信されたスナップショットの状態に戻す
func (h *Handlers) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap inventory.HistorySnapshot
	if !h.decode(w, r, &snap) {
		return
	}
	if err := h.service.Restore(r.Context(), snap); err != nil {
		h.fail(w, "restore", err)
		return
	}
	h.metrics.operation("restore", nil)
	h.sendSuccess(w, map[string]int{"length": h.service.HistoryLen()})
}

// Undo handles undo requests; an empty stack is not an error
// 元に戻すリクエストを処理
func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	restored, err := h.service.Undo(r.Context())
	if err != nil {
		h.fail(w, "undo", err)
		return
	}
	h.metrics.operation("undo", nil)
	h.sendSuccess(w, map[string]interface{}{
		"restored": restored != nil,
		"length":   h.service.HistoryLen(),
	})
}

// ヘルパーメソッド

// statusFor maps engine errors onto HTTP status codes
// エンジンのエラーをHTTPステータスコードに変換
func statusFor(err error) int {
	var (
		validationErr *inventory.ValidationError
		ruleErr       *inventory.BusinessRuleError
		storageErr    *inventory.StorageError
	)
	switch {
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	case errors.Is(err, inventory.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrDuplicateProduct):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrInvalidTransition), errors.As(err, &ruleErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidWarehouse),
		errors.Is(err, inventory.ErrInvalidStatus),
		errors.As(err, &validationErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail records a failed operation and sends the mapped error response
func (h *Handlers) fail(w http.ResponseWriter, operation string, err error) {
	h.metrics.operation(operation, err)
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("操作に失敗しました", zap.String("operation", operation), zap.Error(err))
	}
	h.sendError(w, code, err.Error())
}

// decode reads the JSON body into v and reports a 400 on failure
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return false
	}
	return true
}

// sendSuccess sends a successful API response
// 成功APIレスポンスを送信
func (h *Handlers) sendSuccess(w http.ResponseWriter, data interface{}) {
	h.send(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (h *Handlers) sendCreated(w http.ResponseWriter, data interface{}) {
	h.send(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// sendError sends an error API response
// エラーAPIレスポンスを送信
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.send(w, statusCode, APIResponse{Success: false, Error: message})
}

func (h *Handlers) send(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("レスポンス送信に失敗しました", zap.Error(err))
	}
}
