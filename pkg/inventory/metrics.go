package inventory

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// ComputeMetrics projects the forecast for one product from the current batches
// 現在のバッチから商品の予測指標を算出
func (m *Manager) ComputeMetrics(ctx context.Context, sku string) (*ProductMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[sku]
	if !ok {
		return nil, ErrProductNotFound
	}
	metrics := BuildMetrics(p, m.batchList(), m.today(), m.config)
	return &metrics, nil
}

// ComputeAllMetrics projects the forecast for every product, ordered by SKU
// 全商品の予測指標を算出
func (m *Manager) ComputeAllMetrics(ctx context.Context) []ProductMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	batches := m.batchList()
	today := m.today()
	return lo.Map(m.productList(), func(p Product, _ int) ProductMetrics {
		return BuildMetrics(&p, batches, today, m.config)
	})
}

// BuildMetrics is the pure metrics projection for a product over all batches
// 商品と全バッチから予測指標を算出する純粋関数
func BuildMetrics(product *Product, allBatches []Batch, today time.Time, cfg *Config) ProductMetrics {
	cfg = cfg.withDefaults()
	today = Day(today)

	own := lo.Filter(allBatches, func(b Batch, _ int) bool { return b.ProductSKU == product.SKU })
	qty := func(s Status) float64 {
		return lo.SumBy(own, func(b Batch) float64 {
			if b.Status != s {
				return 0
			}
			return b.Quantity
		})
	}

	mt := ProductMetrics{
		SKU:             product.SKU,
		TotalStock:      qty(StatusStock),
		TotalInTransit:  qty(StatusTransit),
		QtyReady:        qty(StatusReady),
		QtyInProduction: qty(StatusInProduction),
		QtyPlanned:      qty(StatusPlanned),
		QtyOrdered:      qty(StatusOrdered),
	}

	mt.DailySales = DailySales(product, cfg)
	mt.DaysInventoryOnHand = NoSalesDaysOnHand
	if mt.DailySales >= MinDailySales {
		mt.DaysInventoryOnHand = mt.TotalStock / mt.DailySales
	}
	mt.ReorderPoint, mt.LeadTimeDemand, mt.SafetyStockQty = ReorderPoint(mt.DailySales, product.LeadTimeDays, product.SafetyStockDays)

	schedule := ScheduleArrivals(product, own, today, cfg)
	dates := schedule.Dates()
	if len(dates) > 0 {
		next := dates[0]
		days := daysBetween(today, next)
		mt.NextArrivalDate = &next
		mt.DaysToNextArrival = &days
	}

	if stockout, ok := Simulate(mt.TotalStock, mt.DailySales, schedule, today, cfg.HorizonDays); ok {
		mt.PredictedStockoutDate = &stockout.Date
		mt.DaysToStockout = lo.ToPtr(stockout.Days)
		// 最後の入荷予定日以前の欠品のみがギャップ
		mt.StockoutGap = len(dates) > 0 && !stockout.Date.After(dates[len(dates)-1])
	}

	mt.OldestOrderDate = earliest(own, StatusOrdered, func(b Batch) *time.Time { return b.OrderDate })
	mt.PlannedProductionStart = earliest(own, StatusPlanned, func(b Batch) *time.Time { return b.PlannedProductionDate })
	mt.PredictedProductionEnd = earliest(own, StatusInProduction, func(b Batch) *time.Time { return b.ProductionEndDate })

	mt.Decision = Classify(DecisionInputs{
		Stock:          mt.TotalStock,
		InTransit:      mt.TotalInTransit,
		OtherIncoming:  mt.QtyReady + mt.QtyInProduction + mt.QtyPlanned + mt.QtyOrdered,
		ReorderPoint:   mt.ReorderPoint,
		SafetyStockQty: mt.SafetyStockQty,
		StockoutGap:    mt.StockoutGap,
	})

	return mt
}

// earliest returns the earliest date picked from batches at the given status
func earliest(batches []Batch, status Status, pick func(Batch) *time.Time) *time.Time {
	var out *time.Time
	for _, b := range batches {
		if b.Status != status {
			continue
		}
		d := pick(b)
		if d == nil {
			continue
		}
		if out == nil || d.Before(*out) {
			out = datePtr(*d)
		}
	}
	return out
}
