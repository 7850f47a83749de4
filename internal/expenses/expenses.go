package expenses

import (
	"time"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"gorm.io/gorm"
)

// Ledger is the money-out book: rent, electricity, salaries and the rest.
// Reporting subtracts the window's expenses from profit to get net profit.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Add records one expense. Category must be a known bucket and the amount
// positive.
func (l *Ledger) Add(category models.ExpenseCategory, description string, amount float64, date time.Time) (*models.Expense, error) {
	if !category.IsValid() {
		return nil, apperr.Validation("category", "unknown expense category")
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount", "amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}
	expense := models.Expense{
		Date:        date,
		Category:    category,
		Description: description,
		Amount:      utils.Round2(amount),
	}
	if err := l.db.Create(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns expenses, newest date first.
func (l *Ledger) List() ([]models.Expense, error) {
	var list []models.Expense
	err := l.db.Order("date desc, created_at desc").Find(&list).Error
	return list, err
}

// TotalInWindow sums expenses dated in [start, end).
func (l *Ledger) TotalInWindow(start, end time.Time) (float64, error) {
	var total float64
	err := l.db.Model(&models.Expense{}).
		Where("date >= ? AND date < ?", start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
