package credit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/audit"
	"kirana-pos/internal/customers"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"gorm.io/gorm"
)

// DefaultReminderBody is used when no active message template exists.
const DefaultReminderBody = "Dear {customer_name}, your pending udhari is ₹{amount}. Please clear it. - {shop_name}"

// Ledger tracks udhari: goods taken without immediate payment, each entry
// settled on its own. Balances never decay or expire.
type Ledger struct {
	db        *gorm.DB
	audit     *audit.Logger
	customers *customers.Service
	shopName  string
}

func NewLedger(db *gorm.DB, auditLog *audit.Logger, customerSvc *customers.Service, shopName string) *Ledger {
	if shopName == "" {
		shopName = "Your Shop"
	}
	return &Ledger{db: db, audit: auditLog, customers: customerSvc, shopName: shopName}
}

// AddInput describes a new credit entry. Customer resolution order:
// CustomerID if it matches, else (CustomerName, CustomerPhone)
// get-or-create. Amount <= 0 with a linked product derives the amount from
// product price * quantity; otherwise the given amount is stored verbatim,
// so free-text entries off the catalog work too.
type AddInput struct {
	CustomerID    uint
	CustomerName  string
	CustomerPhone string
	ProductID     uint
	ItemName      string
	Quantity      int
	Amount        float64
	Notes         string
}

// Add records one credit entry.
func (l *Ledger) Add(in AddInput) (*models.CreditEntry, error) {
	customer, err := l.customers.GetOrCreate(in.CustomerID, strings.TrimSpace(in.CustomerName), strings.TrimSpace(in.CustomerPhone))
	if err != nil {
		return nil, err
	}

	if in.Quantity < 1 {
		in.Quantity = 1
	}

	var product *models.Product
	if in.ProductID != 0 {
		var p models.Product
		if err := l.db.First(&p, in.ProductID).Error; err == nil {
			product = &p
		}
	}

	itemName := strings.TrimSpace(in.ItemName)
	if itemName == "" && product != nil {
		itemName = product.Name
	}
	if itemName == "" {
		return nil, apperr.Validation("item_name", "item name is required")
	}

	amount := in.Amount
	if amount <= 0 && product != nil {
		amount = product.Price * float64(in.Quantity)
	}

	entry := models.CreditEntry{
		CustomerID: customer.ID,
		ItemName:   itemName,
		Quantity:   in.Quantity,
		Amount:     utils.Round2(amount),
		Notes:      in.Notes,
	}
	if product != nil {
		entry.ProductID = &product.ID
	}
	if err := l.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	entry.Customer = *customer
	return &entry, nil
}

// MarkPaid settles one entry. Idempotent: a second call changes nothing
// and writes no second audit row.
func (l *Ledger) MarkPaid(userID *uint, creditID uint) (*models.CreditEntry, error) {
	var entry models.CreditEntry
	if err := l.db.First(&entry, creditID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if entry.IsPaid {
		return &entry, nil
	}

	now := time.Now()
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"is_paid":   true,
			"date_paid": &now,
		}).Error; err != nil {
			return err
		}
		return l.audit.WithTx(tx).CreditPaid(userID, entry.ID)
	})
	if err != nil {
		return nil, err
	}
	entry.IsPaid = true
	entry.DatePaid = &now
	return &entry, nil
}

// Sort orders for List.
const (
	SortCustomerAsc  = "customer_asc"
	SortCustomerDesc = "customer_desc"
	SortDate         = "" // unpaid first, newest taken first
)

// List returns credit entries, unpaid first, sorted per the sort key.
func (l *Ledger) List(sort string) ([]models.CreditEntry, error) {
	q := l.db.Preload("Customer").
		Joins("JOIN customers ON customers.id = credit_entries.customer_id")
	switch sort {
	case SortCustomerAsc:
		q = q.Order("credit_entries.is_paid, customers.name")
	case SortCustomerDesc:
		q = q.Order("credit_entries.is_paid, customers.name desc")
	default:
		q = q.Order("credit_entries.is_paid, credit_entries.date_taken desc")
	}
	var entries []models.CreditEntry
	err := q.Find(&entries).Error
	return entries, err
}

// Outstanding sums unpaid amounts. customerID = 0 means the whole book.
func (l *Ledger) Outstanding(customerID uint) (float64, error) {
	q := l.db.Model(&models.CreditEntry{}).Where("is_paid = ?", false)
	if customerID != 0 {
		q = q.Where("customer_id = ?", customerID)
	}
	var total float64
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

// Reminder is a rendered dunning message for one customer.
type Reminder struct {
	Customer models.Customer `json:"customer"`
	Amount   float64         `json:"amount"`
	Body     string          `json:"body"`
}

// Reminders renders one message per customer with unpaid credit, using the
// most recently created active template (falling back to the default).
func (l *Ledger) Reminders() ([]Reminder, error) {
	body := DefaultReminderBody
	var tpl models.MessageTemplate
	err := l.db.Where("is_active = ?", true).Order("created_at desc").First(&tpl).Error
	if err == nil {
		body = tpl.Body
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var entries []models.CreditEntry
	if err := l.db.Preload("Customer").Where("is_paid = ?", false).
		Order("customer_id").Find(&entries).Error; err != nil {
		return nil, err
	}

	totals := map[uint]*Reminder{}
	order := []uint{}
	for _, e := range entries {
		r, ok := totals[e.CustomerID]
		if !ok {
			r = &Reminder{Customer: e.Customer}
			totals[e.CustomerID] = r
			order = append(order, e.CustomerID)
		}
		r.Amount += e.Amount
	}

	reminders := make([]Reminder, 0, len(order))
	for _, id := range order {
		r := totals[id]
		r.Body = RenderTemplate(body, r.Customer.Name, r.Amount, l.shopName)
		reminders = append(reminders, *r)
	}
	return reminders, nil
}

// RenderTemplate substitutes the {customer_name}, {amount} and {shop_name}
// placeholders. Amount renders with 2 decimals.
func RenderTemplate(body, customerName string, amount float64, shopName string) string {
	r := strings.NewReplacer(
		"{customer_name}", customerName,
		"{amount}", fmt.Sprintf("%.2f", amount),
		"{shop_name}", shopName,
	)
	return r.Replace(body)
}
