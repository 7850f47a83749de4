package purchasing

import (
	"errors"
	"strings"
	"time"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/audit"
	"kirana-pos/internal/database"
	"kirana-pos/internal/models"

	"gorm.io/gorm"
)

// Engine records wholesaler purchases. A purchase bumps the product's
// stock and overwrites its cost and selling price with the just-entered
// values - "last purchase sets price", deliberately not averaged, so the
// catalog always quotes the latest buying trip while historical order
// margins stay on their snapshots.
type Engine struct {
	db    *gorm.DB
	audit *audit.Logger
}

func NewEngine(db *gorm.DB, auditLog *audit.Logger) *Engine {
	return &Engine{db: db, audit: auditLog}
}

// RecordInput describes one purchase line from the buying screen.
// WholesalerID wins over WholesalerName; ProductID over NewProductName.
type RecordInput struct {
	WholesalerID    uint
	WholesalerName  string
	WholesalerPhone string
	ProductID       uint
	NewProductName  string
	Quantity        int
	UnitCost        float64
	SellingPrice    float64
	Date            time.Time
	ExpiryDate      *time.Time
}

// Record creates the Purchase + PurchaseItem pair and applies the stock
// and price side effects, all in one transaction.
func (e *Engine) Record(userID *uint, in RecordInput) (*models.Purchase, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if in.UnitCost <= 0 {
		return nil, apperr.Validation("unit_cost", "unit cost must be greater than zero")
	}
	if in.SellingPrice <= 0 {
		return nil, apperr.Validation("selling_price", "selling price must be greater than zero")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	var purchase *models.Purchase
	err := e.db.Transaction(func(tx *gorm.DB) error {
		wholesaler, err := e.resolveWholesaler(tx, in)
		if err != nil {
			return err
		}
		product, created, err := e.resolveProduct(tx, in)
		if err != nil {
			return err
		}

		p := models.Purchase{WholesalerID: wholesaler.ID, Date: in.Date}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		item := models.PurchaseItem{
			PurchaseID: p.ID,
			ProductID:  product.ID,
			Quantity:   in.Quantity,
			UnitCost:   in.UnitCost,
			ExpiryDate: in.ExpiryDate,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		p.Items = []models.PurchaseItem{item}
		p.Wholesaler = *wholesaler

		oldStock := product.StockQuantity
		oldPrice := product.Price
		newStock := oldStock + in.Quantity
		updates := map[string]interface{}{
			"stock_quantity": newStock,
			"cost_price":     in.UnitCost,
			"price":          in.SellingPrice,
		}
		if err := tx.Model(product).Updates(updates).Error; err != nil {
			return err
		}

		a := e.audit.WithTx(tx)
		if err := a.StockChange(userID, product.ID, oldStock, newStock); err != nil {
			return err
		}
		if !created && oldPrice != in.SellingPrice {
			if err := a.PriceChange(userID, product.ID, oldPrice, in.SellingPrice); err != nil {
				return err
			}
		}

		purchase = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (e *Engine) resolveWholesaler(tx *gorm.DB, in RecordInput) (*models.Wholesaler, error) {
	if in.WholesalerID != 0 {
		var w models.Wholesaler
		if err := tx.First(&w, in.WholesalerID).Error; err == nil {
			return &w, nil
		}
	}
	name := strings.TrimSpace(in.WholesalerName)
	if name == "" {
		return nil, apperr.Validation("wholesaler", "wholesaler is required")
	}
	var w models.Wholesaler
	err := tx.Where("name = ?", name).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w = models.Wholesaler{Name: name, Phone: strings.TrimSpace(in.WholesalerPhone)}
		if err := tx.Create(&w).Error; err != nil {
			return nil, err
		}
		return &w, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (e *Engine) resolveProduct(tx *gorm.DB, in RecordInput) (*models.Product, bool, error) {
	if in.ProductID != 0 {
		var p models.Product
		err := database.LockForUpdate(tx).First(&p, in.ProductID).Error
		if err == nil {
			return &p, false, nil
		}
	}
	name := strings.TrimSpace(in.NewProductName)
	if name == "" {
		return nil, false, apperr.Validation("product", "product is required")
	}
	// Fresh catalog row; the purchase itself supplies the opening stock
	// and prices right after.
	p := models.Product{
		Name:          name,
		Price:         in.SellingPrice,
		CostPrice:     in.UnitCost,
		StockQuantity: 0,
		IsActive:      true,
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// Recent lists the latest purchase lines, newest buying date first.
func (e *Engine) Recent(limit int) ([]models.PurchaseItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.PurchaseItem
	err := e.db.Preload("Product").
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Preload("Purchase.Wholesaler").
		Order("purchases.date desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ListWholesalers returns all wholesalers ordered by name.
func (e *Engine) ListWholesalers() ([]models.Wholesaler, error) {
	var list []models.Wholesaler
	err := e.db.Order("name").Find(&list).Error
	return list, err
}

// Suggestion flags a product worth restocking and how much to buy.
type Suggestion struct {
	Product      models.Product `json:"product"`
	LowStock     bool           `json:"low_stock"`
	Expired      bool           `json:"expired"`
	NearExpiry   bool           `json:"near_expiry"`
	SuggestedQty int            `json:"suggested_qty"`
}

// NearExpiryDays is the look-ahead window for expiring stock.
const NearExpiryDays = 7

// Suggested scans active products for low stock (at or under the reorder
// threshold), expired stock and stock expiring within NearExpiryDays.
// Suggested quantity tops the shelf up to twice the reorder threshold.
func (e *Engine) Suggested(now time.Time) ([]Suggestion, error) {
	var products []models.Product
	if err := e.db.Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nearLimit := today.AddDate(0, 0, NearExpiryDays)

	var rows []Suggestion
	for _, p := range products {
		low := p.StockQuantity <= p.ReorderThreshold
		expired := p.ExpiryDate != nil && p.ExpiryDate.Before(today)
		near := p.ExpiryDate != nil && !expired && !p.ExpiryDate.After(nearLimit)
		if !low && !expired && !near {
			continue
		}
		qty := p.ReorderThreshold*2 - p.StockQuantity
		if qty < 0 {
			qty = 0
		}
		rows = append(rows, Suggestion{
			Product:      p,
			LowStock:     low,
			Expired:      expired,
			NearExpiry:   near,
			SuggestedQty: qty,
		})
	}
	return rows, nil
}

// Get fetches one purchase with its lines and wholesaler.
func (e *Engine) Get(id uint) (*models.Purchase, error) {
	var p models.Purchase
	err := e.db.Preload("Items.Product").Preload("Wholesaler").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
