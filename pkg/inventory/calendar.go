package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format accepted for batch dates
const DateLayout = "2006-01-02"

const (
	// QuantityEpsilon is the smallest quantity treated as non-zero
	QuantityEpsilon = 0.01
	// NoSalesDaysOnHand is reported as days of inventory when nothing sells
	NoSalesDaysOnHand = 999
)

// Day normalises t to midnight UTC of its calendar day
// 時刻をその日のUTC午前0時に正規化
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar day
// YYYY-MM-DD形式の日付を解析
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func addDays(t time.Time, days int) time.Time {
	return Day(t).AddDate(0, 0, days)
}

// daysBetween returns whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func datePtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}

// roundQuantity rounds to 2 decimal places
// 数量を小数点以下2桁に丸める
func roundQuantity(q float64) float64 {
	return decimal.NewFromFloat(q).Round(2).InexactFloat64()
}

// sumQuantities adds quantities exactly and rounds the result to 2 decimal places
func sumQuantities(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// subQuantities subtracts quantities exactly and rounds the result to 2 decimal places
func subQuantities(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}
