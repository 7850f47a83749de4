package catalog

import (
	"errors"
	"strconv"
	"strings"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/audit"
	"kirana-pos/internal/models"

	"gorm.io/gorm"
)

// Service maintains the product catalog and categories. Price and stock
// edits leave audit rows behind.
type Service struct {
	db    *gorm.DB
	audit *audit.Logger
}

func NewService(db *gorm.DB, auditLog *audit.Logger) *Service {
	return &Service{db: db, audit: auditLog}
}

// SearchFilter narrows the product listing.
type SearchFilter struct {
	Query      string // substring of name
	CategoryID uint
	ActiveOnly bool
}

// Search lists products ordered by name.
func (s *Service) Search(f SearchFilter) ([]models.Product, error) {
	q := s.db.Preload("Category").Order("name")
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Query != "" {
		q = q.Where("name LIKE ?", "%"+f.Query+"%")
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	var products []models.Product
	err := q.Find(&products).Error
	return products, err
}

// Get fetches one product by id.
func (s *Service) Get(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Category").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByCode resolves a scanned code: exact barcode match first, then
// exact QR payload, then numeric id. The scanner input itself is an
// opaque string as far as we are concerned.
func (s *Service) FindByCode(code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.ErrNotFound
	}

	var product models.Product
	if err := s.db.Where("barcode = ?", code).First(&product).Error; err == nil {
		return &product, nil
	}
	if err := s.db.Where("qr_payload = ? AND qr_payload <> ''", code).First(&product).Error; err == nil {
		return &product, nil
	}
	if id, err := strconv.ParseUint(code, 10, 64); err == nil {
		if err := s.db.First(&product, uint(id)).Error; err == nil {
			return &product, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Save creates or updates a product. Updates compare price and stock
// against the stored row and write price_change / stock_change audit rows
// when they moved.
func (s *Service) Save(userID *uint, product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return apperr.Validation("name", "product name is required")
	}
	if product.StockQuantity < 0 {
		product.StockQuantity = 0
	}

	if product.ID == 0 {
		return s.db.Create(product).Error
	}

	var old models.Product
	if err := s.db.First(&old, product.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		a := s.audit.WithTx(tx)
		if old.Price != product.Price {
			if err := a.PriceChange(userID, product.ID, old.Price, product.Price); err != nil {
				return err
			}
		}
		if old.StockQuantity != product.StockQuantity {
			if err := a.StockChange(userID, product.ID, old.StockQuantity, product.StockQuantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a product. Products referenced by order, return or
// purchase lines are protected; the ledger keeps its history.
func (s *Service) Delete(id uint) error {
	var count int64
	for _, m := range []interface{}{&models.OrderItem{}, &models.OrderReturnItem{}, &models.PurchaseItem{}} {
		if err := s.db.Model(m).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validation("product", "product is linked to past transactions and cannot be deleted")
		}
	}
	res := s.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// IncrementStock adds delta (>=1) to a scanned product's stock and audits
// the change. Used by the scan-driven restocking flow.
func (s *Service) IncrementStock(userID *uint, code string, delta int) (*models.Product, error) {
	if delta < 1 {
		delta = 1
	}
	product, err := s.FindByCode(code)
	if err != nil {
		return nil, err
	}
	oldStock := product.StockQuantity
	product.StockQuantity += delta
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(product).Update("stock_quantity", product.StockQuantity).Error; err != nil {
			return err
		}
		return s.audit.WithTx(tx).StockChange(userID, product.ID, oldStock, product.StockQuantity)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeactivateOutOfStock flips is_active off for anything at zero stock.
// Ran on dashboard load, not inside the selling transaction - a deliberate
// carry-over from how the shop already worked.
func (s *Service) DeactivateOutOfStock() error {
	return s.db.Model(&models.Product{}).
		Where("stock_quantity = 0 AND is_active = ?", true).
		Update("is_active", false).Error
}

// UpsertCategory creates a category by unique name, or refreshes the
// description of an existing one when a new non-empty one is given.
func (s *Service) UpsertCategory(name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "category name is required")
	}
	var category models.Category
	err := s.db.Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = models.Category{Name: name, Description: description}
		if err := s.db.Create(&category).Error; err != nil {
			return nil, err
		}
		return &category, nil
	}
	if err != nil {
		return nil, err
	}
	if description != "" && category.Description != description {
		category.Description = description
		if err := s.db.Model(&category).Update("description", description).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Order("name").Find(&categories).Error
	return categories, err
}

// DeleteCategory removes a category and detaches its products (their
// category_id goes NULL; products are never cascade-deleted).
func (s *Service) DeleteCategory(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
