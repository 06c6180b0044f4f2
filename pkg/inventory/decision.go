package inventory

// DecisionInputs are the aggregated figures the classifier works from
// 判定に使用する集計値
type DecisionInputs struct {
	Stock          float64
	InTransit      float64
	OtherIncoming  float64 // ready + in_production + planned + ordered
	ReorderPoint   float64
	SafetyStockQty float64
	StockoutGap    bool // 既知の入荷が届く前に欠品する
}

// NetPosition is stock plus everything incoming from any stage
func (in DecisionInputs) NetPosition() float64 {
	return in.Stock + in.InTransit + in.OtherIncoming
}

// ReorderPoint returns lead-time demand plus safety-stock quantity
// 発注点 = リードタイム需要 + 安全在庫数量
func ReorderPoint(dailySales float64, leadTimeDays, safetyStockDays int) (rop, leadTimeDemand, safetyStockQty float64) {
	leadTimeDemand = dailySales * float64(leadTimeDays)
	safetyStockQty = dailySales * float64(safetyStockDays)
	return leadTimeDemand + safetyStockQty, leadTimeDemand, safetyStockQty
}

// Classify picks the first matching decision in priority order
// 優先順位に従って最初に一致する判定を返す
func Classify(in DecisionInputs) Decision {
	incoming := in.InTransit + in.OtherIncoming

	switch {
	case incoming <= 0 && in.Stock <= in.SafetyStockQty:
		return DecisionCriticalLow
	case in.StockoutGap && in.InTransit > 0:
		return DecisionWait
	case in.StockoutGap && in.OtherIncoming > 0:
		return DecisionUrgentGap
	case in.NetPosition() < in.ReorderPoint:
		return DecisionOrderNow
	default:
		return DecisionOK
	}
}
