package reports

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"kirana-pos/internal/database"
	"kirana-pos/internal/expenses"
	"kirana-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(db, expenses.NewLedger(db)), db
}

// seedSoldOrder creates an order in the given status with one snapshot line.
func seedSoldOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, at time.Time, productID uint, qty int, unitPrice, discount float64) *models.Order {
	t.Helper()
	order := models.Order{CustomerName: "Ravi", Status: status, CreatedAt: at}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		OrderID: order.ID, ProductID: productID, Quantity: qty,
		UnitPrice: unitPrice, DiscountAmount: discount,
	}).Error)
	return &order
}

func TestSalesStats(t *testing.T) {
	s, db := newTestService(t)
	window := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	mid := window.AddDate(0, 0, 10)
	end := window.AddDate(0, 1, 0)

	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 100, CostPrice: 60, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", Price: 50, CostPrice: 30, IsActive: true}).Error)

	// One order later returned: 2x Rice at 100 with 10 off, 1x Soap at 50.
	order := seedSoldOrder(t, db, models.StatusReturned, mid, 1, 2, 100, 10)
	require.NoError(t, db.Create(&models.OrderItem{OrderID: order.ID, ProductID: 2, Quantity: 1, UnitPrice: 50}).Error)

	// 1 unit of Rice came back inside the window.
	ret := models.OrderReturn{OrderID: order.ID, CreatedAt: mid.AddDate(0, 0, 2)}
	require.NoError(t, db.Create(&ret).Error)
	require.NoError(t, db.Create(&models.OrderReturnItem{OrderReturnID: ret.ID, ProductID: 1, Quantity: 1, UnitPrice: 100}).Error)

	// Pending orders never count.
	seedSoldOrder(t, db, models.StatusPending, mid, 1, 5, 100, 0)

	// Money out: one purchase and one expense in-window.
	purchase := models.Purchase{WholesalerID: 1, Date: mid}
	require.NoError(t, db.Create(&purchase).Error)
	require.NoError(t, db.Create(&models.PurchaseItem{PurchaseID: purchase.ID, ProductID: 1, Quantity: 10, UnitCost: 60}).Error)
	require.NoError(t, db.Create(&models.Expense{Date: mid, Category: models.ExpenseRent, Amount: 50}).Error)

	stats, err := s.SalesStats(window, end)
	require.NoError(t, err)

	// Revenue: (100-10)*2 + 50 - 100 = 130.
	assert.InDelta(t, 130, stats.Revenue, 0.001)
	// Profit: (100-60)*2 + (50-30) - (100-60) = 60.
	assert.InDelta(t, 60, stats.Profit, 0.001)
	assert.InDelta(t, 600, stats.Spent, 0.001)
	assert.InDelta(t, 50, stats.Expenses, 0.001)
	assert.InDelta(t, 10, stats.NetProfit, 0.001)
}

func TestGSTRowsCompletedOnly(t *testing.T) {
	s, db := newTestService(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	mid := start.AddDate(0, 0, 10)
	end := start.AddDate(0, 1, 0)

	require.NoError(t, db.Create(&models.Product{Name: "Soap", Price: 50, TaxRatePercent: 18, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 100, TaxRatePercent: 5, IsActive: true}).Error)

	seedSoldOrder(t, db, models.StatusCompleted, mid, 1, 2, 50, 0)
	seedSoldOrder(t, db, models.StatusCompleted, mid, 2, 1, 100, 5)
	// Returned and pending orders stay out of the GST summary.
	seedSoldOrder(t, db, models.StatusReturned, mid, 1, 9, 50, 0)
	seedSoldOrder(t, db, models.StatusPending, mid, 1, 9, 50, 0)

	rows, err := s.GSTRows(start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by product name.
	assert.Equal(t, "Rice", rows[0].Product)
	assert.InDelta(t, 100, rows[0].TaxableValue, 0.001) // discount ignored: taxable is unit price
	assert.InDelta(t, 5, rows[0].GSTAmount, 0.001)
	assert.Equal(t, "Soap", rows[1].Product)
	assert.InDelta(t, 100, rows[1].TaxableValue, 0.001)
	assert.InDelta(t, 18, rows[1].GSTAmount, 0.001)
}

func TestMoversNetOfReturns(t *testing.T) {
	s, db := newTestService(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	mid := start.AddDate(0, 0, 10)
	end := start.AddDate(0, 1, 0)

	require.NoError(t, db.Create(&models.Product{Name: "Rice", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", IsActive: true}).Error)

	order := seedSoldOrder(t, db, models.StatusReturned, mid, 1, 5, 100, 0)
	seedSoldOrder(t, db, models.StatusCompleted, mid, 2, 2, 50, 0)

	ret := models.OrderReturn{OrderID: order.ID, CreatedAt: mid}
	require.NoError(t, db.Create(&ret).Error)
	require.NoError(t, db.Create(&models.OrderReturnItem{OrderReturnID: ret.ID, ProductID: 1, Quantity: 4, UnitPrice: 100}).Error)

	top, err := s.TopSellers(start, end)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Soap", top[0].Name)
	assert.Equal(t, 2, top[0].Qty)
	assert.Equal(t, "Rice", top[1].Name)
	assert.Equal(t, 1, top[1].Qty) // 5 sold - 4 returned

	slow, err := s.SlowMovers(start, end)
	require.NoError(t, err)
	assert.Equal(t, "Rice", slow[0].Name)
}

func TestMoversReturnWithoutInWindowSale(t *testing.T) {
	s, db := newTestService(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	require.NoError(t, db.Create(&models.Product{Name: "Rice", IsActive: true}).Error)

	// Sold in July, returned on Aug 10: the window sees only the return,
	// so the net quantity goes negative.
	order := seedSoldOrder(t, db, models.StatusReturned, start.AddDate(0, 0, -15), 1, 5, 100, 0)
	ret := models.OrderReturn{OrderID: order.ID, CreatedAt: start.AddDate(0, 0, 9)}
	require.NoError(t, db.Create(&ret).Error)
	require.NoError(t, db.Create(&models.OrderReturnItem{OrderReturnID: ret.ID, ProductID: 1, Quantity: 4, UnitPrice: 100}).Error)

	slow, err := s.SlowMovers(start, end)
	require.NoError(t, err)
	require.Len(t, slow, 1)
	assert.Equal(t, "Rice", slow[0].Name)
	assert.Equal(t, -4, slow[0].Qty)
}

func TestHourlyCounts(t *testing.T) {
	s, db := newTestService(t)
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)

	seedSoldOrder(t, db, models.StatusCompleted, day.Add(9*time.Hour), 1, 1, 10, 0)
	seedSoldOrder(t, db, models.StatusCompleted, day.Add(9*time.Hour+30*time.Minute), 1, 1, 10, 0)
	seedSoldOrder(t, db, models.StatusCompleted, day.Add(18*time.Hour), 1, 1, 10, 0)
	seedSoldOrder(t, db, models.StatusPending, day.Add(9*time.Hour), 1, 1, 10, 0)

	counts, err := s.HourlyCounts(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[9])
	assert.Equal(t, 1, counts[18])
	assert.Equal(t, 0, counts[10])
}

func TestWeeklyTrends(t *testing.T) {
	s, db := newTestService(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local) // Friday

	require.NoError(t, db.Create(&models.Product{Name: "Rice", IsActive: true}).Error)

	thisWeek := WeekStart(now).Add(10 * time.Hour)
	lastWeek := thisWeek.AddDate(0, 0, -7)
	seedSoldOrder(t, db, models.StatusCompleted, thisWeek, 1, 3, 10, 0)
	seedSoldOrder(t, db, models.StatusCompleted, lastWeek, 1, 2, 10, 0)

	trends, weekStarts, err := s.WeeklyTrends([]uint{1}, 4, now)
	require.NoError(t, err)
	require.Len(t, weekStarts, 4)
	require.Len(t, trends, 1)
	require.Len(t, trends[0].Quantities, 4)
	assert.Equal(t, 3, trends[0].Quantities[3])
	assert.Equal(t, 2, trends[0].Quantities[2])
	assert.Equal(t, WeekStart(now), weekStarts[3])
}

func TestWeeklyTrendsAcrossDSTChange(t *testing.T) {
	s, db := newTestService(t)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Product{Name: "Rice", IsActive: true}).Error)

	// Clocks spring forward on 2026-03-08, so the week starting Monday
	// 2026-03-09 begins 167 hours after the one before it.
	now := time.Date(2026, 3, 13, 12, 0, 0, 0, loc) // Friday
	seedSoldOrder(t, db, models.StatusCompleted, time.Date(2026, 3, 10, 10, 0, 0, 0, loc), 1, 3, 100, 0)

	trends, weekStarts, err := s.WeeklyTrends([]uint{1}, 2, now)
	require.NoError(t, err)
	require.Len(t, weekStarts, 2)
	require.Len(t, trends, 1)
	assert.Equal(t, []int{0, 3}, trends[0].Quantities)
}

func TestProfitByProductAndCategory(t *testing.T) {
	s, db := newTestService(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	mid := start.AddDate(0, 0, 10)
	end := start.AddDate(0, 1, 0)

	grains := models.Category{Name: "Grains"}
	require.NoError(t, db.Create(&grains).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", CostPrice: 60, CategoryID: &grains.ID, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", CostPrice: 30, IsActive: true}).Error)

	seedSoldOrder(t, db, models.StatusCompleted, mid, 1, 2, 100, 0) // profit 80
	seedSoldOrder(t, db, models.StatusCompleted, mid, 2, 1, 50, 0)  // profit 20

	rows, err := s.ProfitByProduct(start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rice", rows[0].Name)
	assert.InDelta(t, 200, rows[0].Revenue, 0.001)
	assert.InDelta(t, 80, rows[0].Profit, 0.001)
	assert.Equal(t, "Grains", rows[0].Category)

	cats, err := s.ProfitByCategory(start, end)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Grains", cats[0].Name)
	assert.InDelta(t, 80, cats[0].Profit, 0.001)
	assert.Equal(t, "", cats[1].Name) // uncategorized bucket
}

func TestStockValuation(t *testing.T) {
	s, db := newTestService(t)
	grains := models.Category{Name: "Grains"}
	require.NoError(t, db.Create(&grains).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", CostPrice: 60, StockQuantity: 10, CategoryID: &grains.ID, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", CostPrice: 20, StockQuantity: 5, IsActive: true}).Error)

	v, err := s.StockValuation()
	require.NoError(t, err)
	assert.InDelta(t, 700, v.GrandTotal, 0.001)
	require.Len(t, v.Categories, 2)

	byName := map[string]CategoryGroup{}
	for _, g := range v.Categories {
		byName[g.CategoryName] = g
	}
	assert.InDelta(t, 600, byName["Grains"].Subtotal, 0.001)
	assert.InDelta(t, 100, byName["Uncategorized"].Subtotal, 0.001)
}

func TestWindowHelpers(t *testing.T) {
	// 2026-08-28 is a Friday.
	friday := time.Date(2026, 8, 28, 15, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local), DayStart(friday))
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local), WeekStart(friday))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local), MonthStart(friday))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local), YearStart(friday))

	// A Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local), WeekStart(sunday))

	start, end := MonthWindow("2026-02", friday)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), end)

	// Garbage falls back to the current month.
	start, end = MonthWindow("not-a-month", friday)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local), end)
}
