package audit

import (
	"fmt"

	"kirana-pos/internal/models"

	"gorm.io/gorm"
)

// Logger appends AuditLog rows. It is handed to every mutating engine
// explicitly; nothing in the codebase writes audit rows through a global.
type Logger struct {
	db *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// WithTx returns a Logger that writes inside tx, so the audit row commits
// or rolls back together with the mutation it describes.
func (l *Logger) WithTx(tx *gorm.DB) *Logger {
	return &Logger{db: tx}
}

// Record appends one audit row. userID may be nil (anonymous checkout).
func (l *Logger) Record(userID *uint, action models.AuditAction, model string, objectID uint, field string, oldValue, newValue interface{}) error {
	entry := models.AuditLog{
		UserID:   userID,
		Action:   action,
		Model:    model,
		ObjectID: objectID,
		Field:    field,
		OldValue: stringify(oldValue),
		NewValue: stringify(newValue),
	}
	return l.db.Create(&entry).Error
}

// StockChange records an old -> new stock mutation on a product.
func (l *Logger) StockChange(userID *uint, productID uint, oldStock, newStock int) error {
	return l.Record(userID, models.AuditStockChange, "Product", productID, "stock_quantity", oldStock, newStock)
}

// PriceChange records an old -> new price mutation on a product.
func (l *Logger) PriceChange(userID *uint, productID uint, oldPrice, newPrice float64) error {
	return l.Record(userID, models.AuditPriceChange, "Product", productID, "price", oldPrice, newPrice)
}

// CreditPaid records the false -> true flip of a credit entry.
func (l *Logger) CreditPaid(userID *uint, creditID uint) error {
	return l.Record(userID, models.AuditCreditPaid, "CreditEntry", creditID, "is_paid", false, true)
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}
