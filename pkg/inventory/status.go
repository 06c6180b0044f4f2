package inventory

import "time"

// statusHandler holds the status-specific behaviour of the pipeline
// ステータスごとの振る舞い
type statusHandler struct {
	// enter stamps dates when a batch moves into the status
	enter func(b *Batch, today time.Time, cfg *Config)
	// arrival predicts the day the batch becomes usable stock; false for stock itself
	arrival func(b *Batch, p *Product, today time.Time, cfg *Config) (time.Time, bool)
}

var statusHandlers = map[Status]statusHandler{
	StatusPlanned: {
		arrival: func(b *Batch, _ *Product, today time.Time, cfg *Config) (time.Time, bool) {
			if b.PlannedProductionDate != nil {
				return addDays(*b.PlannedProductionDate, cfg.PipelineDays), true
			}
			return addDays(today, cfg.PipelineDays), true
		},
	},
	StatusInProduction: {
		enter: func(b *Batch, today time.Time, _ *Config) {
			b.ProductionStartDate = datePtr(today)
		},
		arrival: func(b *Batch, _ *Product, today time.Time, cfg *Config) (time.Time, bool) {
			if b.ProductionEndDate != nil {
				return addDays(*b.ProductionEndDate, cfg.PostProductionDays), true
			}
			return addDays(today, cfg.PipelineDays), true
		},
	},
	StatusTransit: {
		enter: func(b *Batch, today time.Time, cfg *Config) {
			b.TransitStartDate = datePtr(today)
			if b.ETA == nil {
				b.ETA = datePtr(addDays(today, cfg.TransitDays))
			}
		},
		arrival: func(b *Batch, _ *Product, today time.Time, cfg *Config) (time.Time, bool) {
			if b.ETA != nil {
				return Day(*b.ETA), true
			}
			return addDays(today, cfg.TransitDays), true
		},
	},
	StatusReady: {
		// ready batches carry no date of their own
		arrival: func(_ *Batch, _ *Product, today time.Time, cfg *Config) (time.Time, bool) {
			return addDays(today, cfg.ReadyLeadDays), true
		},
	},
	StatusOrdered: {
		enter: func(b *Batch, today time.Time, _ *Config) {
			if b.OrderDate == nil {
				b.OrderDate = datePtr(today)
			}
		},
		arrival: func(b *Batch, p *Product, today time.Time, _ *Config) (time.Time, bool) {
			from := today
			if b.OrderDate != nil {
				from = *b.OrderDate
			}
			return addDays(from, p.LeadTimeDays), true
		},
	},
	StatusStock: {
		arrival: func(*Batch, *Product, time.Time, *Config) (time.Time, bool) {
			return time.Time{}, false
		},
	},
}

type moveKey struct {
	from Status
	to   Status
}

// deferredMoves are transitions that need more input from the caller
// 呼び出し側からの追加入力が必要な遷移
var deferredMoves = map[moveKey]MoveResult{
	{StatusTransit, StatusStock}: MovePendingWarehouse,
	{StatusOrdered, StatusReady}: MovePendingSplit,
}

// IsValidStatus reports whether s is a known pipeline stage
func IsValidStatus(s Status) bool {
	_, ok := statusHandlers[s]
	return ok
}

// enterStatus switches the batch to the target status and runs its enter hook
func enterStatus(b *Batch, target Status, today time.Time, cfg *Config) {
	b.Status = target
	if h := statusHandlers[target]; h.enter != nil {
		h.enter(b, today, cfg)
	}
}
