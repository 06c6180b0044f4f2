package inventory

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ApplyMove handles a drag-and-drop style status change
// ドラッグ＆ドロップによるステータス変更を処理
func (m *Manager) ApplyMove(ctx context.Context, batchID string, target Status) (MoveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !IsValidStatus(target) {
		return MoveOutcome{}, NewValidationError("status", "無効なステータスです", string(target), ErrInvalidStatus)
	}

	b, ok := m.batches[batchID]
	if !ok {
		return MoveOutcome{}, ErrBatchNotFound
	}

	if b.Status == target {
		return MoveOutcome{Result: MoveRejected}, nil
	}

	if result, deferred := deferredMoves[moveKey{b.Status, target}]; deferred {
		outcome := MoveOutcome{Result: result}
		if result == MovePendingSplit {
			outcome.SuggestedQuantity = b.Quantity
		}
		m.logger.Debug("ステータス遷移は追加入力待ちです",
			zap.String("batch_id", batchID),
			zap.String("from", string(b.Status)),
			zap.String("to", string(target)),
			zap.String("result", string(result)),
		)
		return outcome, nil
	}

	from := b.Status
	err := m.mutate(ctx, "move", true, func() error {
		enterStatus(b, target, m.today(), m.config)
		return nil
	})
	if err != nil {
		return MoveOutcome{}, err
	}

	m.logger.Info("ステータス遷移完了",
		zap.String("batch_id", batchID),
		zap.String("sku", b.ProductSKU),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)

	return MoveOutcome{Result: MoveCompleted}, nil
}

// ConfirmWarehouse completes a pending transit to stock move
// 輸送中から在庫への保留中の遷移を完了
func (m *Manager) ConfirmWarehouse(ctx context.Context, batchID, warehouse string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wh, ok := m.resolveWarehouse(warehouse)
	if !ok {
		return NewValidationError("warehouse", "無効な倉庫名です", warehouse, ErrInvalidWarehouse)
	}

	b, ok := m.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}
	if b.Status == StatusStock {
		return NewBusinessRuleError("already_in_stock", "バッチは既に在庫です", fmt.Sprintf("バッチID: %s", batchID), ErrInvalidTransition)
	}

	var mergedInto string
	err := m.mutate(ctx, "confirm_warehouse", true, func() error {
		if bucket := m.findStockBucket(b.ProductSKU, wh, b.ID); bucket != nil {
			bucket.Quantity = sumQuantities(bucket.Quantity, b.Quantity)
			delete(m.batches, b.ID)
			mergedInto = bucket.ID
			return nil
		}
		b.Status = StatusStock
		b.Warehouse = wh
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("入庫完了",
		zap.String("batch_id", batchID),
		zap.String("warehouse", wh),
		zap.String("merged_into", mergedInto),
	)

	return nil
}

// Split divides a batch into a remainder and a moved part at the target status
// バッチを残量と移動分に分割
func (m *Manager) Split(ctx context.Context, batchID string, moveQuantity float64, target Status, warehouse string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}

	if math.IsNaN(moveQuantity) || moveQuantity < 0 || moveQuantity > b.Quantity {
		return NewValidationError("quantity", "分割数量は0以上かつ元の数量以下である必要があります",
			strconv.FormatFloat(moveQuantity, 'f', -1, 64), ErrInvalidQuantity)
	}
	if !IsValidStatus(target) {
		return NewValidationError("status", "無効なステータスです", string(target), ErrInvalidStatus)
	}

	wh := ""
	if target == StatusStock && warehouse != "" {
		resolved, ok := m.resolveWarehouse(warehouse)
		if !ok {
			return NewValidationError("warehouse", "無効な倉庫名です", warehouse, ErrInvalidWarehouse)
		}
		wh = resolved
	}

	moved := roundQuantity(moveQuantity)
	if moved < QuantityEpsilon {
		// 移動数量0は変更なし
		return nil
	}
	remainder := subQuantities(b.Quantity, moved)
	foldRemainder := remainder <= QuantityEpsilon

	var createdID, mergedInto string
	err := m.mutate(ctx, "split", true, func() error {
		if wh != "" {
			if bucket := m.findStockBucket(b.ProductSKU, wh, b.ID); bucket != nil {
				bucket.Quantity = sumQuantities(bucket.Quantity, moved)
				mergedInto = bucket.ID
				if foldRemainder {
					delete(m.batches, b.ID)
				} else {
					b.Quantity = remainder
				}
				return nil
			}
		}

		nb := b.Clone()
		nb.ID = NewBatchID()
		nb.Quantity = moved
		if target != b.Status {
			enterStatus(&nb, target, m.today(), m.config)
		}
		if wh != "" {
			nb.Warehouse = wh
		}
		m.batches[nb.ID] = &nb
		createdID = nb.ID

		if foldRemainder {
			delete(m.batches, b.ID)
		} else {
			b.Quantity = remainder
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("バッチ分割完了",
		zap.String("batch_id", batchID),
		zap.Float64("moved", moved),
		zap.Float64("remainder", remainder),
		zap.String("target", string(target)),
		zap.String("created_id", createdID),
		zap.String("merged_into", mergedInto),
	)

	return nil
}

// CreateOrder creates an ordered batch for the product matching the SKU or EAN
// SKUまたはEANに一致する商品の発注バッチを作成
func (m *Manager) CreateOrder(ctx context.Context, skuOrEAN string, quantity float64) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	product := m.findProduct(skuOrEAN)
	if product == nil {
		return nil, ErrProductNotFound
	}

	batch := &Batch{
		ID:         NewBatchID(),
		ProductSKU: product.SKU,
		Quantity:   roundQuantity(quantity),
		Status:     StatusOrdered,
		OrderDate:  datePtr(m.today()),
	}

	err := m.mutate(ctx, "create_order", true, func() error {
		m.batches[batch.ID] = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("発注作成完了",
		zap.String("batch_id", batch.ID),
		zap.String("sku", product.SKU),
		zap.Float64("quantity", batch.Quantity),
	)

	out := batch.Clone()
	return &out, nil
}

// DeleteBatch removes a batch unconditionally
// バッチを無条件に削除
func (m *Manager) DeleteBatch(ctx context.Context, batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[batchID]; !ok {
		return ErrBatchNotFound
	}

	err := m.mutate(ctx, "delete_batch", true, func() error {
		delete(m.batches, batchID)
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("バッチ削除完了", zap.String("batch_id", batchID))
	return nil
}

type fieldSetter func(m *Manager, b *Batch, value string) error

func dateSetter(field BatchField, target func(b *Batch) **time.Time) fieldSetter {
	return func(_ *Manager, b *Batch, value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			*target(b) = nil
			return nil
		}
		d, err := ParseDate(value)
		if err != nil {
			return NewValidationError(string(field), "日付はYYYY-MM-DD形式である必要があります", value, err)
		}
		*target(b) = &d
		return nil
	}
}

var batchFieldSetters = map[BatchField]fieldSetter{
	FieldQuantity: func(_ *Manager, b *Batch, value string) error {
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return NewValidationError(string(FieldQuantity), "数量が数値ではありません", value, ErrInvalidQuantity)
		}
		if err := ValidateQuantity(q); err != nil {
			return err
		}
		b.Quantity = roundQuantity(q)
		return nil
	},
	FieldETA:                   dateSetter(FieldETA, func(b *Batch) **time.Time { return &b.ETA }),
	FieldOrderDate:             dateSetter(FieldOrderDate, func(b *Batch) **time.Time { return &b.OrderDate }),
	FieldPlannedProductionDate: dateSetter(FieldPlannedProductionDate, func(b *Batch) **time.Time { return &b.PlannedProductionDate }),
	FieldProductionStartDate:   dateSetter(FieldProductionStartDate, func(b *Batch) **time.Time { return &b.ProductionStartDate }),
	FieldProductionEndDate:     dateSetter(FieldProductionEndDate, func(b *Batch) **time.Time { return &b.ProductionEndDate }),
	FieldTransitStartDate:      dateSetter(FieldTransitStartDate, func(b *Batch) **time.Time { return &b.TransitStartDate }),
	FieldContainerNo: func(_ *Manager, b *Batch, value string) error {
		b.ContainerNo = strings.TrimSpace(value)
		return nil
	},
	FieldVesselName: func(_ *Manager, b *Batch, value string) error {
		b.VesselName = strings.TrimSpace(value)
		return nil
	},
	FieldColor: func(_ *Manager, b *Batch, value string) error {
		if err := ValidateColor(ColorKey(value)); err != nil {
			return err
		}
		b.Color = ColorKey(value)
		return nil
	},
	FieldWarehouse: func(m *Manager, b *Batch, value string) error {
		if strings.TrimSpace(value) == "" {
			b.Warehouse = ""
			return nil
		}
		wh, ok := m.resolveWarehouse(value)
		if !ok {
			return NewValidationError(string(FieldWarehouse), "無効な倉庫名です", value, ErrInvalidWarehouse)
		}
		b.Warehouse = wh
		return nil
	},
}

// UpdateBatchField edits one field in place; only color changes are snapshotted
// フィールドを一つ更新（カラー変更のみ履歴に保存）
func (m *Manager) UpdateBatchField(ctx context.Context, batchID string, field BatchField, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	setter, ok := batchFieldSetters[field]
	if !ok {
		return NewValidationError("field", "編集できないフィールドです", string(field), nil)
	}

	b, ok := m.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}

	updated := b.Clone()
	if err := setter(m, &updated, value); err != nil {
		return err
	}

	err := m.mutate(ctx, "update_batch_field", field == FieldColor, func() error {
		*b = updated
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("バッチフィールド更新完了",
		zap.String("batch_id", batchID),
		zap.String("field", string(field)),
		zap.String("value", value),
	)

	return nil
}

// UpdateBatch applies a whole-form batch edit
// バッチ編集フォームの内容を適用
func (m *Manager) UpdateBatch(ctx context.Context, batchID string, update BatchUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}
	if err := ValidateQuantity(update.Quantity); err != nil {
		return err
	}

	wh := ""
	if strings.TrimSpace(update.Warehouse) != "" {
		resolved, ok := m.resolveWarehouse(update.Warehouse)
		if !ok {
			return NewValidationError("warehouse", "無効な倉庫名です", update.Warehouse, ErrInvalidWarehouse)
		}
		wh = resolved
	}

	day := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		return datePtr(*t)
	}

	err := m.mutate(ctx, "update_batch", true, func() error {
		b.Quantity = roundQuantity(update.Quantity)
		b.ETA = day(update.ETA)
		b.OrderDate = day(update.OrderDate)
		b.PlannedProductionDate = day(update.PlannedProductionDate)
		b.ProductionEndDate = day(update.ProductionEndDate)
		b.ContainerNo = strings.TrimSpace(update.ContainerNo)
		b.VesselName = strings.TrimSpace(update.VesselName)
		b.Warehouse = wh
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("バッチ更新完了",
		zap.String("batch_id", batchID),
		zap.Float64("quantity", b.Quantity),
	)

	return nil
}

// GetBatch returns a copy of a batch
// バッチのコピーを取得
func (m *Manager) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	out := b.Clone()
	return &out, nil
}

// ListBatches returns copies of all batches ordered by ID
// すべてのバッチのコピーを取得
func (m *Manager) ListBatches(ctx context.Context) []Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.batchList()
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}
