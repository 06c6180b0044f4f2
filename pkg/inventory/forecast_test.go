package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySales(t *testing.T) {
	tests := []struct {
		name       string
		product    Product
		recentPeak bool
		want       float64
	}{
		{"180日窓", Product{Sales6Months: 360}, false, 2},
		{"実在庫日数で割る", Product{Sales6Months: 300, DaysInStock: lo.ToPtr(30)}, false, 10},
		{"実在庫日数の下限は1", Product{Sales6Months: 5, DaysInStock: lo.ToPtr(0)}, false, 5},
		{"実在庫日数の上限は180", Product{Sales6Months: 360, DaysInStock: lo.ToPtr(400)}, false, 2},
		{"直近ピークを無視", Product{Sales6Months: 360, Sales1Month: lo.ToPtr(300.0)}, false, 2},
		{"直近ピークを採用", Product{Sales6Months: 360, Sales1Month: lo.ToPtr(300.0)}, true, 10},
		{"直近が低い場合は6ヶ月", Product{Sales6Months: 360, Sales1Month: lo.ToPtr(30.0)}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UseRecentSalesPeak = tt.recentPeak
			assert.InDelta(t, tt.want, DailySales(&tt.product, cfg), 1e-9)
		})
	}
}

func TestScheduleArrivals(t *testing.T) {
	p := Product{SKU: "GRES-1", LeadTimeDays: 30}
	batches := []Batch{
		{ID: "t1", ProductSKU: "GRES-1", Quantity: 1, Status: StatusTransit, ETA: daysFromToday(10)},
		{ID: "t2", ProductSKU: "GRES-1", Quantity: 2, Status: StatusTransit},
		{ID: "r1", ProductSKU: "GRES-1", Quantity: 4, Status: StatusReady},
		{ID: "i1", ProductSKU: "GRES-1", Quantity: 8, Status: StatusInProduction, ProductionEndDate: daysFromToday(5)},
		{ID: "i2", ProductSKU: "GRES-1", Quantity: 16, Status: StatusInProduction},
		{ID: "p1", ProductSKU: "GRES-1", Quantity: 32, Status: StatusPlanned, PlannedProductionDate: daysFromToday(3)},
		{ID: "p2", ProductSKU: "GRES-1", Quantity: 64, Status: StatusPlanned},
		{ID: "o1", ProductSKU: "GRES-1", Quantity: 128, Status: StatusOrdered, OrderDate: daysFromToday(-40)},
		{ID: "o2", ProductSKU: "GRES-1", Quantity: 256, Status: StatusOrdered, OrderDate: daysFromToday(-10)},
		{ID: "t3", ProductSKU: "GRES-1", Quantity: 512, Status: StatusTransit, ETA: daysFromToday(-3)},
		stockBatch("s1", "GRES-1", 1000, "Ilcom"),
		{ID: "x1", ProductSKU: "OTHER", Quantity: 2000, Status: StatusTransit, ETA: daysFromToday(10)},
	}

	got := ScheduleArrivals(&p, batches, testToday, DefaultConfig())

	want := ArrivalSchedule{
		today():            128 + 512,
		*daysFromToday(10):  1,
		*daysFromToday(20):  256,
		*daysFromToday(75):  2,
		*daysFromToday(89):  4,
		*daysFromToday(94):  8,
		*daysFromToday(134): 16 + 64,
		*daysFromToday(137): 32,
	}
	assert.Equal(t, want, got)
	assert.Equal(t, today(), got.Dates()[0])
	assert.Len(t, got.Dates(), len(want))
	assert.Equal(t, 1023.0, got.Total())
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name     string
		stock    float64
		daily    float64
		schedule ArrivalSchedule
		horizon  int
		wantDays int
		wantOK   bool
	}{
		{"在庫0ちょうどは欠品ではない", 10, 1, nil, 365, 11, true},
		{"今日の入荷は1日目に加算", 0, 1, ArrivalSchedule{today(): 5}, 365, 6, true},
		{"入荷で欠品を回避", 10, 1, ArrivalSchedule{*daysFromToday(10): 1000}, 365, 0, false},
		{"入荷が一日遅い", 10, 1, ArrivalSchedule{*daysFromToday(12): 1000}, 365, 11, true},
		{"期間内に欠品なし", 1000, 1, nil, 365, 0, false},
		{"販売なし", 0, 0.009, nil, 365, 0, false},
		{"初日に欠品", 0, 2, nil, 365, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stockout, ok := Simulate(tt.stock, tt.daily, tt.schedule, testToday, tt.horizon)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, stockout)
				return
			}
			assert.Equal(t, tt.wantDays, stockout.Days)
			assert.Equal(t, *daysFromToday(tt.wantDays), stockout.Date)
		})
	}
}

func TestReorderPoint(t *testing.T) {
	rop, ltd, ssq := ReorderPoint(2, 30, 10)
	assert.Equal(t, 80.0, rop)
	assert.Equal(t, 60.0, ltd)
	assert.Equal(t, 20.0, ssq)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   DecisionInputs
		want Decision
	}{
		{
			name: "入荷なし・安全在庫以下は欠品ギャップより優先",
			in:   DecisionInputs{Stock: 0, SafetyStockQty: 10, ReorderPoint: 50, StockoutGap: true},
			want: DecisionCriticalLow,
		},
		{
			name: "輸送中があれば待機",
			in:   DecisionInputs{Stock: 5, InTransit: 10, OtherIncoming: 100, SafetyStockQty: 10, StockoutGap: true},
			want: DecisionWait,
		},
		{
			name: "輸送中なしで他段階の入荷あり",
			in:   DecisionInputs{Stock: 5, OtherIncoming: 100, SafetyStockQty: 10, StockoutGap: true},
			want: DecisionUrgentGap,
		},
		{
			name: "発注点割れ",
			in:   DecisionInputs{Stock: 50, ReorderPoint: 60, SafetyStockQty: 10},
			want: DecisionOrderNow,
		},
		{
			name: "発注点ちょうどはOK",
			in:   DecisionInputs{Stock: 50, ReorderPoint: 50, SafetyStockQty: 10},
			want: DecisionOK,
		},
		{
			name: "入荷予定を含めて発注点以上",
			in:   DecisionInputs{Stock: 60, OtherIncoming: 100, ReorderPoint: 80, SafetyStockQty: 20},
			want: DecisionOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestBuildMetrics_OrderedCoversDepletion(t *testing.T) {
	// 日販2、リードタイム30日、安全在庫10日 → 発注点80
	p := Product{SKU: "GRES-1", Sales6Months: 360, LeadTimeDays: 30, SafetyStockDays: 10}
	batches := []Batch{
		stockBatch("s1", "GRES-1", 60, "Ilcom"),
		{ID: "o1", ProductSKU: "GRES-1", Quantity: 100, Status: StatusOrdered, OrderDate: lo.ToPtr(today())},
	}

	mt := BuildMetrics(&p, batches, testToday, DefaultConfig())

	assert.Equal(t, 60.0, mt.TotalStock)
	assert.Equal(t, 100.0, mt.QtyOrdered)
	assert.Equal(t, 2.0, mt.DailySales)
	assert.Equal(t, 30.0, mt.DaysInventoryOnHand)
	assert.Equal(t, 80.0, mt.ReorderPoint)
	assert.Equal(t, 60.0, mt.LeadTimeDemand)
	require.NotNil(t, mt.NextArrivalDate)
	assert.Equal(t, *daysFromToday(30), *mt.NextArrivalDate)
	assert.Equal(t, 30, *mt.DaysToNextArrival)

	// 全入荷後の欠品はギャップではない
	require.NotNil(t, mt.PredictedStockoutDate)
	assert.Equal(t, 81, *mt.DaysToStockout)
	assert.False(t, mt.StockoutGap)
	assert.Equal(t, today(), *mt.OldestOrderDate)
	assert.Equal(t, DecisionOK, mt.Decision)
}

func TestBuildMetrics_Decisions(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		batches []Batch
		want    Decision
		gap     bool
	}{
		{
			name:    "入荷なし・在庫なし",
			product: Product{SKU: "A", Sales6Months: 180, LeadTimeDays: 30, SafetyStockDays: 10},
			want:    DecisionCriticalLow,
		},
		{
			name:    "輸送中の到着前に欠品",
			product: Product{SKU: "A", Sales6Months: 360, LeadTimeDays: 30, SafetyStockDays: 2},
			batches: []Batch{
				stockBatch("s1", "A", 10, "Ilcom"),
				{ID: "t1", ProductSKU: "A", Quantity: 100, Status: StatusTransit, ETA: daysFromToday(20)},
			},
			want: DecisionWait,
			gap:  true,
		},
		{
			name:    "発注分の到着前に欠品",
			product: Product{SKU: "A", Sales6Months: 360, LeadTimeDays: 30, SafetyStockDays: 2},
			batches: []Batch{
				stockBatch("s1", "A", 10, "Ilcom"),
				{ID: "o1", ProductSKU: "A", Quantity: 100, Status: StatusOrdered, OrderDate: lo.ToPtr(today())},
			},
			want: DecisionUrgentGap,
			gap:  true,
		},
		{
			name:    "入荷予定なしで発注点割れ",
			product: Product{SKU: "A", Sales6Months: 180, LeadTimeDays: 60, SafetyStockDays: 0},
			batches: []Batch{stockBatch("s1", "A", 50, "Ilcom")},
			want:    DecisionOrderNow,
		},
		{
			name:    "販売なし",
			product: Product{SKU: "A", Sales6Months: 0, LeadTimeDays: 60, SafetyStockDays: 10},
			batches: []Batch{stockBatch("s1", "A", 50, "Ilcom")},
			want:    DecisionOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := BuildMetrics(&tt.product, tt.batches, testToday, DefaultConfig())
			assert.Equal(t, tt.want, mt.Decision)
			assert.Equal(t, tt.gap, mt.StockoutGap)
		})
	}
}

func TestBuildMetrics_NoSales(t *testing.T) {
	p := Product{SKU: "A", Sales6Months: 1}
	mt := BuildMetrics(&p, []Batch{stockBatch("s1", "A", 50, "Ilcom")}, testToday, DefaultConfig())

	assert.Equal(t, float64(NoSalesDaysOnHand), mt.DaysInventoryOnHand)
	assert.Nil(t, mt.PredictedStockoutDate)
	assert.Nil(t, mt.DaysToStockout)
	assert.Nil(t, mt.NextArrivalDate)
	assert.Nil(t, mt.DaysToNextArrival)
}

func TestBuildMetrics_PipelineDates(t *testing.T) {
	p := Product{SKU: "A", Sales6Months: 180, LeadTimeDays: 30}
	batches := []Batch{
		{ID: "o1", ProductSKU: "A", Quantity: 10, Status: StatusOrdered, OrderDate: daysFromToday(-5)},
		{ID: "o2", ProductSKU: "A", Quantity: 10, Status: StatusOrdered, OrderDate: daysFromToday(-9)},
		{ID: "p1", ProductSKU: "A", Quantity: 10, Status: StatusPlanned, PlannedProductionDate: daysFromToday(7)},
		{ID: "p2", ProductSKU: "A", Quantity: 10, Status: StatusPlanned},
		{ID: "i1", ProductSKU: "A", Quantity: 10, Status: StatusInProduction, ProductionEndDate: daysFromToday(12)},
		{ID: "r1", ProductSKU: "A", Quantity: 10, Status: StatusReady},
	}

	mt := BuildMetrics(&p, batches, testToday, DefaultConfig())

	assert.Equal(t, *daysFromToday(-9), *mt.OldestOrderDate)
	assert.Equal(t, *daysFromToday(7), *mt.PlannedProductionStart)
	assert.Equal(t, *daysFromToday(12), *mt.PredictedProductionEnd)
	assert.Equal(t, 20.0, mt.QtyPlanned)
	assert.Equal(t, 10.0, mt.QtyInProduction)
	assert.Equal(t, 10.0, mt.QtyReady)
	assert.Equal(t, *daysFromToday(21), *mt.NextArrivalDate)
}

func TestManager_ComputeMetrics(t *testing.T) {
	ctx := context.Background()
	a := Product{SKU: "A", Sales6Months: 360, LeadTimeDays: 30, SafetyStockDays: 10}
	b := Product{SKU: "B", Sales6Months: 0}
	m, _ := newTestManager(t, []Product{b, a}, []Batch{stockBatch("s1", "A", 60, "Ilcom")})

	mt, err := m.ComputeMetrics(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 60.0, mt.TotalStock)
	assert.Equal(t, DecisionOrderNow, mt.Decision)

	all := m.ComputeAllMetrics(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].SKU)
	assert.Equal(t, "B", all[1].SKU)

	_, err = m.ComputeMetrics(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func BenchmarkBuildMetrics(b *testing.B) {
	p := Product{SKU: "A", Sales6Months: 900, LeadTimeDays: 75, SafetyStockDays: 14}
	statuses := []Status{StatusPlanned, StatusInProduction, StatusTransit, StatusReady, StatusOrdered, StatusStock}
	batches := make([]Batch, 0, 600)
	for i := 0; i < 600; i++ {
		batches = append(batches, Batch{
			ID:         fmt.Sprintf("b%04d", i),
			ProductSKU: "A",
			Quantity:   float64(i%50 + 1),
			Status:     statuses[i%len(statuses)],
			ETA:        lo.ToPtr(testToday.Add(time.Duration(i%90) * 24 * time.Hour)),
		})
	}
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildMetrics(&p, batches, testToday, cfg)
	}
}
