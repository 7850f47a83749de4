package purchasing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/audit"
	"kirana-pos/internal/database"
	"kirana-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewEngine(db, audit.NewLogger(db)), db
}

func TestRecordExistingProductOverwritesPrices(t *testing.T) {
	e, db := newTestEngine(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 80, CostPrice: 60, StockQuantity: 5, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Wholesaler{Name: "Gupta Traders"}).Error)

	purchase, err := e.Record(nil, RecordInput{
		WholesalerID: 1,
		ProductID:    1,
		Quantity:     10,
		UnitCost:     65,
		SellingPrice: 85,
	})
	require.NoError(t, err)
	require.Len(t, purchase.Items, 1)
	assert.InDelta(t, 650, purchase.Items[0].TotalCost(), 0.001)

	// Last purchase sets price: stock added, both prices replaced.
	var p models.Product
	require.NoError(t, db.First(&p, 1).Error)
	assert.Equal(t, 15, p.StockQuantity)
	assert.InDelta(t, 65, p.CostPrice, 0.001)
	assert.InDelta(t, 85, p.Price, 0.001)

	// One stock audit and one price audit (the price moved).
	var stockRows, priceRows int64
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditStockChange).Count(&stockRows)
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditPriceChange).Count(&priceRows)
	assert.EqualValues(t, 1, stockRows)
	assert.EqualValues(t, 1, priceRows)
}

func TestRecordCreatesProductAndWholesaler(t *testing.T) {
	e, db := newTestEngine(t)

	purchase, err := e.Record(nil, RecordInput{
		WholesalerName:  "New Supplier",
		WholesalerPhone: "222",
		NewProductName:  "Jaggery 1kg",
		Quantity:        6,
		UnitCost:        40,
		SellingPrice:    55,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Supplier", purchase.Wholesaler.Name)

	var p models.Product
	require.NoError(t, db.Where("name = ?", "Jaggery 1kg").First(&p).Error)
	assert.True(t, p.IsActive)
	assert.Equal(t, 6, p.StockQuantity)
	assert.InDelta(t, 40, p.CostPrice, 0.001)
	assert.InDelta(t, 55, p.Price, 0.001)

	// A brand-new product gets no price_change audit; there was no old price.
	var priceRows int64
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditPriceChange).Count(&priceRows)
	assert.Zero(t, priceRows)

	// Same wholesaler name later resolves instead of duplicating.
	_, err = e.Record(nil, RecordInput{
		WholesalerName: "New Supplier",
		ProductID:      p.ID,
		Quantity:       1,
		UnitCost:       40,
		SellingPrice:   55,
	})
	require.NoError(t, err)
	var wCount int64
	db.Model(&models.Wholesaler{}).Count(&wCount)
	assert.EqualValues(t, 1, wCount)
}

func TestRecordValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Record(nil, RecordInput{WholesalerName: "X", NewProductName: "Y", Quantity: 1, UnitCost: 0, SellingPrice: 10})
	assert.True(t, apperr.IsValidation(err))

	_, err = e.Record(nil, RecordInput{WholesalerName: "X", NewProductName: "Y", Quantity: 1, UnitCost: 10, SellingPrice: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = e.Record(nil, RecordInput{NewProductName: "Y", Quantity: 1, UnitCost: 10, SellingPrice: 20})
	assert.True(t, apperr.IsValidation(err), "wholesaler required")

	_, err = e.Record(nil, RecordInput{WholesalerName: "X", Quantity: 1, UnitCost: 10, SellingPrice: 20})
	assert.True(t, apperr.IsValidation(err), "product required")
}

func TestRecordQuantityFloor(t *testing.T) {
	e, db := newTestEngine(t)

	_, err := e.Record(nil, RecordInput{
		WholesalerName: "X", NewProductName: "Salt", Quantity: 0, UnitCost: 10, SellingPrice: 12,
	})
	require.NoError(t, err)

	var p models.Product
	require.NoError(t, db.Where("name = ?", "Salt").First(&p).Error)
	assert.Equal(t, 1, p.StockQuantity)
}

func TestSuggested(t *testing.T) {
	e, db := newTestEngine(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	inThreeDays := now.AddDate(0, 0, 3)
	nextMonth := now.AddDate(0, 1, 0)

	require.NoError(t, db.Create(&models.Product{Name: "Low", StockQuantity: 2, ReorderThreshold: 5, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Expired", StockQuantity: 20, ReorderThreshold: 5, ExpiryDate: &yesterday, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Near", StockQuantity: 20, ReorderThreshold: 5, ExpiryDate: &inThreeDays, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Fine", StockQuantity: 20, ReorderThreshold: 5, ExpiryDate: &nextMonth, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Inactive", StockQuantity: 0, ReorderThreshold: 5, IsActive: false}).Error)

	rows, err := e.Suggested(now)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byName := map[string]Suggestion{}
	for _, r := range rows {
		byName[r.Product.Name] = r
	}

	low := byName["Low"]
	assert.True(t, low.LowStock)
	assert.Equal(t, 8, low.SuggestedQty) // 2*5 - 2

	exp := byName["Expired"]
	assert.True(t, exp.Expired)
	assert.False(t, exp.NearExpiry)
	assert.Equal(t, 0, exp.SuggestedQty) // stock above twice the threshold

	near := byName["Near"]
	assert.True(t, near.NearExpiry)
	assert.False(t, near.Expired)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	e, _ := newTestEngine(t)

	older := time.Now().AddDate(0, 0, -3)
	_, err := e.Record(nil, RecordInput{WholesalerName: "X", NewProductName: "A", Quantity: 1, UnitCost: 5, SellingPrice: 6, Date: older})
	require.NoError(t, err)
	_, err = e.Record(nil, RecordInput{WholesalerName: "X", NewProductName: "B", Quantity: 1, UnitCost: 5, SellingPrice: 6})
	require.NoError(t, err)

	items, err := e.Recent(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].Product.Name)
}
