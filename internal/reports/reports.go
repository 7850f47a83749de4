package reports

import (
	"fmt"
	"sort"
	"time"

	"kirana-pos/internal/expenses"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"gorm.io/gorm"
)

// Service derives revenue, profit, tax and velocity figures from the
// order/return/purchase/expense tables. Pure reads; nothing here mutates.
//
// Convention for every window: [start, end). Order items count by their
// order's creation time; return items count by the return's own creation
// time, so a refund hits the period the refund happened in, not the period
// of the original sale.
type Service struct {
	db       *gorm.DB
	expenses *expenses.Ledger
}

func NewService(db *gorm.DB, expenseLedger *expenses.Ledger) *Service {
	return &Service{db: db, expenses: expenseLedger}
}

// soldStatuses are the order statuses whose items count as sold.
var soldStatuses = []models.OrderStatus{models.StatusCompleted, models.StatusReturned}

// Stats is one window's worth of money movement.
type Stats struct {
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	Spent     float64 `json:"spent"`    // paid to wholesalers in-window
	Expenses  float64 `json:"expenses"` // shop running costs in-window
	NetProfit float64 `json:"net_profit"`
}

// SalesStats computes revenue/profit/spent/net-profit for [start, end).
// Revenue is snapshot subtotals of completed+returned orders minus refund
// value of returns created in the window; profit replaces the discounted
// price with (unit_price - cost_price).
func (s *Service) SalesStats(start, end time.Time) (*Stats, error) {
	var sold struct {
		Revenue float64
		Profit  float64
	}
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status IN ? AND orders.created_at >= ? AND orders.created_at < ?", soldStatuses, start, end).
		Select("COALESCE(SUM((order_items.unit_price - order_items.discount_amount) * order_items.quantity), 0) as revenue, " +
			"COALESCE(SUM((order_items.unit_price - products.cost_price) * order_items.quantity), 0) as profit").
		Scan(&sold).Error
	if err != nil {
		return nil, err
	}

	var returned struct {
		Revenue float64
		Profit  float64
	}
	err = s.db.Model(&models.OrderReturnItem{}).
		Joins("JOIN order_returns ON order_returns.id = order_return_items.order_return_id").
		Joins("JOIN products ON products.id = order_return_items.product_id").
		Where("order_returns.created_at >= ? AND order_returns.created_at < ?", start, end).
		Select("COALESCE(SUM(order_return_items.unit_price * order_return_items.quantity), 0) as revenue, " +
			"COALESCE(SUM((order_return_items.unit_price - products.cost_price) * order_return_items.quantity), 0) as profit").
		Scan(&returned).Error
	if err != nil {
		return nil, err
	}

	var spent float64
	err = s.db.Model(&models.PurchaseItem{}).
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.date >= ? AND purchases.date < ?", start, end).
		Select("COALESCE(SUM(purchase_items.unit_cost * purchase_items.quantity), 0)").
		Scan(&spent).Error
	if err != nil {
		return nil, err
	}

	expenseTotal, err := s.expenses.TotalInWindow(start, end)
	if err != nil {
		return nil, err
	}

	profit := sold.Profit - returned.Profit
	return &Stats{
		Revenue:   utils.Round2(sold.Revenue - returned.Revenue),
		Profit:    utils.Round2(profit),
		Spent:     utils.Round2(spent),
		Expenses:  utils.Round2(expenseTotal),
		NetProfit: utils.Round2(profit - expenseTotal),
	}, nil
}

// Mover is a product's net quantity sold in a window.
type Mover struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Qty       int    `json:"qty"` // sold - returned; negative when returns dominate
}

// netQuantities returns per-product sold-minus-returned quantities over
// [start, end), for active products only.
func (s *Service) netQuantities(start, end time.Time) ([]Mover, error) {
	type soldRow struct {
		ProductID uint
		Name      string
		Category  string
		Qty       int
	}
	var soldRows []soldRow
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("orders.status IN ? AND orders.created_at >= ? AND orders.created_at < ?", soldStatuses, start, end).
		Where("products.is_active = ?", true).
		Group("order_items.product_id, products.name, categories.name").
		Select("order_items.product_id as product_id, products.name as name, COALESCE(categories.name, '') as category, SUM(order_items.quantity) as qty").
		Scan(&soldRows).Error
	if err != nil {
		return nil, err
	}

	byID := map[uint]*Mover{}
	order := []uint{}
	for _, r := range soldRows {
		byID[r.ProductID] = &Mover{ProductID: r.ProductID, Name: r.Name, Category: r.Category, Qty: r.Qty}
		order = append(order, r.ProductID)
	}

	var retRows []soldRow
	err = s.db.Model(&models.OrderReturnItem{}).
		Joins("JOIN order_returns ON order_returns.id = order_return_items.order_return_id").
		Joins("JOIN products ON products.id = order_return_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("order_returns.created_at >= ? AND order_returns.created_at < ?", start, end).
		Where("products.is_active = ?", true).
		Group("order_return_items.product_id, products.name, categories.name").
		Select("order_return_items.product_id as product_id, products.name as name, COALESCE(categories.name, '') as category, SUM(order_return_items.quantity) as qty").
		Scan(&retRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range retRows {
		m, ok := byID[r.ProductID]
		if !ok {
			// A return whose sale predates the window still counts
			// against the product, so net quantity can go negative.
			m = &Mover{ProductID: r.ProductID, Name: r.Name, Category: r.Category}
			byID[r.ProductID] = m
			order = append(order, r.ProductID)
		}
		m.Qty -= r.Qty
	}

	movers := make([]Mover, 0, len(order))
	for _, id := range order {
		movers = append(movers, *byID[id])
	}
	return movers, nil
}

// TopSellers returns the 10 fastest movers over [start, end).
func (s *Service) TopSellers(start, end time.Time) ([]Mover, error) {
	movers, err := s.netQuantities(start, end)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(movers, func(i, j int) bool { return movers[i].Qty > movers[j].Qty })
	if len(movers) > 10 {
		movers = movers[:10]
	}
	return movers, nil
}

// SlowMovers returns the 10 slowest movers over [start, end).
func (s *Service) SlowMovers(start, end time.Time) ([]Mover, error) {
	movers, err := s.netQuantities(start, end)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(movers, func(i, j int) bool { return movers[i].Qty < movers[j].Qty })
	if len(movers) > 10 {
		movers = movers[:10]
	}
	return movers, nil
}

// GSTRow is one line of the monthly GST summary.
type GSTRow struct {
	Product      string  `json:"product"`
	TaxRate      float64 `json:"tax_rate"`
	TaxableValue float64 `json:"taxable_value"`
	GSTAmount    float64 `json:"gst_amount"`
}

// GSTRows groups completed-order items in [start, end) by product, summing
// taxable value (unit_price * qty) and GST at the product's rate. Values
// round to 2 decimals.
func (s *Service) GSTRows(start, end time.Time) ([]GSTRow, error) {
	var rows []GSTRow
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ? AND orders.created_at >= ? AND orders.created_at < ?", models.StatusCompleted, start, end).
		Group("products.name, products.tax_rate_percent").
		Order("products.name").
		Select("products.name as product, products.tax_rate_percent as tax_rate, " +
			"SUM(order_items.unit_price * order_items.quantity) as taxable_value, " +
			"SUM(order_items.unit_price * order_items.quantity * products.tax_rate_percent / 100) as gst_amount").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TaxableValue = utils.Round2(rows[i].TaxableValue)
		rows[i].GSTAmount = utils.Round2(rows[i].GSTAmount)
	}
	return rows, nil
}

// HourlyCounts buckets completed/returned orders created in [start, end)
// by hour of day. Index 0 is midnight.
func (s *Service) HourlyCounts(start, end time.Time) ([24]int, error) {
	var counts [24]int
	var stamps []time.Time
	err := s.db.Model(&models.Order{}).
		Where("status IN ? AND created_at >= ? AND created_at < ?", soldStatuses, start, end).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return counts, err
	}
	for _, t := range stamps {
		counts[t.Hour()]++
	}
	return counts, nil
}

// WeeklyTrend is one product's sold quantity per week, oldest week first.
type WeeklyTrend struct {
	ProductID  uint  `json:"product_id"`
	Quantities []int `json:"quantities"`
}

// WeeklyTrends buckets sold quantities for the given products into `weeks`
// ISO weeks ending at the week containing `now`. WeekStarts lists the
// Monday of each bucket, oldest first.
func (s *Service) WeeklyTrends(productIDs []uint, weeks int, now time.Time) ([]WeeklyTrend, []time.Time, error) {
	if weeks <= 0 {
		weeks = 8
	}
	latestStart := WeekStart(now)
	oldestStart := latestStart.AddDate(0, 0, -7*(weeks-1))
	end := latestStart.AddDate(0, 0, 7)

	weekStarts := make([]time.Time, weeks)
	for i := 0; i < weeks; i++ {
		weekStarts[i] = oldestStart.AddDate(0, 0, 7*i)
	}

	trends := make([]WeeklyTrend, 0, len(productIDs))
	if len(productIDs) == 0 {
		return trends, weekStarts, nil
	}

	type row struct {
		ProductID uint
		CreatedAt time.Time
		Qty       int
	}
	var itemRows []row
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status IN ? AND orders.created_at >= ? AND orders.created_at < ?", soldStatuses, oldestStart, end).
		Where("order_items.product_id IN ?", productIDs).
		Select("order_items.product_id as product_id, orders.created_at as created_at, order_items.quantity as qty").
		Scan(&itemRows).Error
	if err != nil {
		return nil, nil, err
	}

	byProduct := map[uint][]int{}
	for _, id := range productIDs {
		byProduct[id] = make([]int, weeks)
	}
	for _, r := range itemRows {
		// Round to whole days first so a 167/169-hour DST week still
		// lands in its own bucket.
		days := int(WeekStart(r.CreatedAt).Sub(oldestStart).Hours()/24 + 0.5)
		idx := days / 7
		if idx < 0 || idx >= weeks {
			continue
		}
		byProduct[r.ProductID][idx] += r.Qty
	}
	for _, id := range productIDs {
		trends = append(trends, WeeklyTrend{ProductID: id, Quantities: byProduct[id]})
	}
	return trends, weekStarts, nil
}

// ProfitRow is revenue/profit for a product or category, returns included.
type ProfitRow struct {
	ProductID uint    `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
}

// ProfitByProduct computes per-product revenue and profit in [start, end),
// subtracting the impact of returns created in the same window. Sorted by
// profit, highest first.
func (s *Service) ProfitByProduct(start, end time.Time) ([]ProfitRow, error) {
	type row struct {
		ProductID uint
		Name      string
		Category  string
		Revenue   float64
		Profit    float64
	}
	var soldRows []row
	err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("orders.status IN ? AND orders.created_at >= ? AND orders.created_at < ?", soldStatuses, start, end).
		Group("order_items.product_id, products.name, categories.name").
		Select("order_items.product_id as product_id, products.name as name, COALESCE(categories.name, '') as category, "+
			"SUM(order_items.unit_price * order_items.quantity) as revenue, "+
			"SUM((order_items.unit_price - products.cost_price) * order_items.quantity) as profit").
		Scan(&soldRows).Error
	if err != nil {
		return nil, err
	}

	var retRows []row
	err = s.db.Model(&models.OrderReturnItem{}).
		Joins("JOIN order_returns ON order_returns.id = order_return_items.order_return_id").
		Joins("JOIN products ON products.id = order_return_items.product_id").
		Where("order_returns.created_at >= ? AND order_returns.created_at < ?", start, end).
		Group("order_return_items.product_id").
		Select("order_return_items.product_id as product_id, " +
			"SUM(order_return_items.unit_price * order_return_items.quantity) as revenue, " +
			"SUM((order_return_items.unit_price - products.cost_price) * order_return_items.quantity) as profit").
		Scan(&retRows).Error
	if err != nil {
		return nil, err
	}
	retByID := map[uint]row{}
	for _, r := range retRows {
		retByID[r.ProductID] = r
	}

	rows := make([]ProfitRow, 0, len(soldRows))
	for _, r := range soldRows {
		ret := retByID[r.ProductID]
		rows = append(rows, ProfitRow{
			ProductID: r.ProductID,
			Name:      r.Name,
			Category:  r.Category,
			Revenue:   utils.Round2(r.Revenue - ret.Revenue),
			Profit:    utils.Round2(r.Profit - ret.Profit),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Profit > rows[j].Profit })
	return rows, nil
}

// ProfitByCategory rolls ProfitByProduct up to categories.
func (s *Service) ProfitByCategory(start, end time.Time) ([]ProfitRow, error) {
	byProduct, err := s.ProfitByProduct(start, end)
	if err != nil {
		return nil, err
	}
	agg := map[string]*ProfitRow{}
	order := []string{}
	for _, r := range byProduct {
		row, ok := agg[r.Category]
		if !ok {
			row = &ProfitRow{Name: r.Category}
			agg[r.Category] = row
			order = append(order, r.Category)
		}
		row.Revenue = utils.Round2(row.Revenue + r.Revenue)
		row.Profit = utils.Round2(row.Profit + r.Profit)
	}
	rows := make([]ProfitRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *agg[k])
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Profit > rows[j].Profit })
	return rows, nil
}

// ValuationItem is one product's stock valued at cost.
type ValuationItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// CategoryGroup is a category's valuation block.
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

// Valuation is the whole shelf valued at cost price.
type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grand_total"`
}

// StockValuation values current inventory at cost, grouped by category.
func (s *Service) StockValuation() (*Valuation, error) {
	var products []models.Product
	if err := s.db.Preload("Category").Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	grouped := map[string]*CategoryGroup{}
	order := []string{}
	result := &Valuation{Categories: []CategoryGroup{}}

	for _, p := range products {
		catName := "Uncategorized"
		if p.Category != nil && p.Category.Name != "" {
			catName = p.Category.Name
		}
		group, ok := grouped[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			grouped[catName] = group
			order = append(order, catName)
		}

		itemTotal := float64(p.StockQuantity) * p.CostPrice
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.StockQuantity,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal += itemTotal
		result.GrandTotal += itemTotal
	}

	for _, k := range order {
		result.Categories = append(result.Categories, *grouped[k])
	}
	return result, nil
}

// ---- window helpers ----

// DayStart truncates t to local midnight.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday midnight of t's ISO week.
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

// MonthStart returns the first midnight of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// YearStart returns Jan 1 midnight of t's year.
func YearStart(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

// MonthWindow parses "YYYY-MM" into that month's [start, end) window.
// Garbage falls back to the current month.
func MonthWindow(month string, now time.Time) (time.Time, time.Time) {
	start := MonthStart(now)
	var y, m int
	if _, err := fmt.Sscanf(month, "%d-%d", &y, &m); err == nil && m >= 1 && m <= 12 {
		start = time.Date(y, time.Month(m), 1, 0, 0, 0, 0, now.Location())
	}
	return start, start.AddDate(0, 1, 0)
}
