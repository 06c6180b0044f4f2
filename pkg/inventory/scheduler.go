package inventory

import (
	"sort"
	"time"
)

// ArrivalSchedule maps a calendar day to the quantity becoming stock that day
// 日付ごとの入庫予定数量
type ArrivalSchedule map[time.Time]float64

// ScheduleArrivals predicts when every non-stock batch of the product becomes stock.
// Arrivals before today are clamped to today.
// 在庫以外の全バッチの入庫予定日を予測（過去日は今日に補正）
func ScheduleArrivals(product *Product, batches []Batch, today time.Time, cfg *Config) ArrivalSchedule {
	cfg = cfg.withDefaults()
	today = Day(today)
	schedule := make(ArrivalSchedule)

	for i := range batches {
		b := &batches[i]
		if b.ProductSKU != product.SKU {
			continue
		}
		h, ok := statusHandlers[b.Status]
		if !ok {
			continue
		}
		at, ok := h.arrival(b, product, today, cfg)
		if !ok {
			continue
		}
		at = Day(at)
		if at.Before(today) {
			at = today
		}
		schedule[at] += b.Quantity
	}

	return schedule
}

// Dates returns the scheduled days in ascending order
func (s ArrivalSchedule) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Total returns the total scheduled quantity
func (s ArrivalSchedule) Total() float64 {
	total := 0.0
	for _, q := range s {
		total += q
	}
	return total
}
