package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestManager_ImportProducts(t *testing.T) {
	ctx := context.Background()
	existing := fakeProduct()
	existing.SKU = "GRES-1"
	existing.LeadTimeDays = 0
	existing.SafetyStockDays = 21
	existing.Supplier = "Factory A"
	m, _ := newTestManager(t, []Product{existing}, nil)

	report, err := m.ImportProducts(ctx, []ProductRecord{
		{SKU: "GRES-1", Name: "Gres updated", Finish: "poler", Sales6Months: 360},
		{SKU: " GRES-2 ", Name: "", Finish: "unknown", Sales6Months: 90},
		{SKU: "", Name: "no sku"},
		{SKU: "bad sku", Name: "spaces"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, 3, report.Errors[1].Row)
	assert.Equal(t, 1, m.HistoryLen())

	updated, err := m.GetProduct(ctx, "GRES-1")
	require.NoError(t, err)
	assert.Equal(t, "Gres updated", updated.Name)
	assert.Equal(t, FinishPoler, updated.Finish)
	assert.Equal(t, 75, updated.LeadTimeDays)
	assert.Equal(t, 21, updated.SafetyStockDays)
	assert.Equal(t, "Factory A", updated.Supplier)

	added, err := m.GetProduct(ctx, "GRES-2")
	require.NoError(t, err)
	assert.Equal(t, "GRES-2", added.Name)
	assert.Equal(t, FinishOther, added.Finish)
	assert.Equal(t, "Import", added.Supplier)
	assert.Equal(t, 75, added.LeadTimeDays)
	assert.Equal(t, 14, added.SafetyStockDays)
}

func TestManager_ImportProducts_InvalidEAN(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil, nil)

	report, err := m.ImportProducts(ctx, []ProductRecord{
		{SKU: "GRES-1", EAN: " 5901234123457 "},
		{SKU: "GRES-2", EAN: "59012"},
		{SKU: "GRES-3", EAN: "ABCDEFGHIJKLM"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 1, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Error, "EAN")
	assert.Equal(t, 2, report.Errors[1].Row)

	p, err := m.GetProduct(ctx, "GRES-1")
	require.NoError(t, err)
	assert.Equal(t, "5901234123457", p.EAN)
	_, err = m.GetProduct(ctx, "GRES-2")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestManager_ImportStock(t *testing.T) {
	ctx := context.Background()
	p := fakeProduct()
	m, _ := newTestManager(t, []Product{p}, []Batch{stockBatch("s1", p.SKU, 10, "Ilcom")})

	report, err := m.ImportStock(ctx, []StockRecord{
		{SKU: p.SKU, Quantity: 5.555, Warehouse: "ILCOM"},
		{SKU: p.SKU, Quantity: 20, Warehouse: "Ogrodnik"},
		{SKU: "UNKNOWN", Quantity: 5, Warehouse: "Ilcom"},
		{SKU: p.SKU, Quantity: 0, Warehouse: "Ilcom"},
		{SKU: p.SKU, Quantity: 5, Warehouse: "Atlantis"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, 1, m.HistoryLen())

	bucket, err := m.GetBatch(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 15.56, bucket.Quantity)

	stock := batchesByStatus(m, StatusStock)
	require.Len(t, stock, 2)
	for _, b := range stock {
		if b.ID != "s1" {
			assert.Equal(t, "Ogrodnik", b.Warehouse)
			assert.Equal(t, 20.0, b.Quantity)
		}
	}

	// 一回の元に戻すで取込全体が取り消される
	_, err = m.Undo(ctx)
	require.NoError(t, err)
	assert.Len(t, m.ListBatches(ctx), 1)
}

func TestManager_ImportStock_NothingValid(t *testing.T) {
	ctx := context.Background()
	p := fakeProduct()
	m, storage := newTestManager(t, []Product{p}, nil)

	report, err := m.ImportStock(ctx, []StockRecord{{SKU: "UNKNOWN", Quantity: 5, Warehouse: "Ilcom"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, m.HistoryLen())
	storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
