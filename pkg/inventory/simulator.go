package inventory

import (
	"math"
	"time"
)

// MinDailySales is the consumption rate below which nothing is considered sold
const MinDailySales = 0.01

// levelTolerance absorbs float drift when the projected level lands exactly on zero
const levelTolerance = 1e-9

// Stockout is the first simulated day on which stock goes negative
// 在庫が初めてマイナスになる日
type Stockout struct {
	Date time.Time
	Days int // 今日からの日数
}

// DailySales returns the product's daily consumption rate.
// The 6-month volume is spread over the sales window, or over DaysInStock capped to [1, window].
// 日次販売量を算出
func DailySales(p *Product, cfg *Config) float64 {
	cfg = cfg.withDefaults()
	window := cfg.SalesWindowDays
	if p.DaysInStock != nil {
		window = min(max(*p.DaysInStock, 1), cfg.SalesWindowDays)
	}
	daily := p.Sales6Months / float64(window)
	if cfg.UseRecentSalesPeak && p.Sales1Month != nil {
		daily = math.Max(daily, *p.Sales1Month/30)
	}
	return daily
}

// Simulate projects the stock level day by day over horizon days starting tomorrow.
// Each day the daily rate is consumed, then that day's arrivals are added;
// arrivals dated today are available on day one.
// 翌日から日ごとの在庫推移をシミュレーション
func Simulate(startStock, dailySales float64, schedule ArrivalSchedule, today time.Time, horizon int) (*Stockout, bool) {
	if dailySales < MinDailySales {
		return nil, false
	}
	today = Day(today)

	level := startStock + schedule[today]
	for day := 1; day <= horizon; day++ {
		date := addDays(today, day)
		level -= dailySales
		level += schedule[date]
		if level < -levelTolerance {
			return &Stockout{Date: date, Days: day}, true
		}
	}
	return nil, false
}
