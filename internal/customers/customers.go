package customers

import (
	"errors"
	"strings"
	"time"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/models"

	"gorm.io/gorm"
)

// Service looks after customer records and the soft join between customers
// and historical orders. Orders carry no customer foreign key; matching is
// a heuristic: exact phone when the customer has one on file, otherwise
// case-insensitive exact name. Two phoneless customers sharing a name will
// collide - that ambiguity is inherent to the data, not a bug here.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// UpsertFromCheckout matches a customer by exact name, creating one if
// absent. On a match, phone/address are updated only when the submitted
// value is non-empty and different - blanks never overwrite stored data.
func (s *Service) UpsertFromCheckout(tx *gorm.DB, name, phone, address string) (*models.Customer, error) {
	if tx == nil {
		tx = s.db
	}
	var customer models.Customer
	err := tx.Where("name = ?", name).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{Name: name, Phone: phone, Address: address, IsActive: true}
		if err := tx.Create(&customer).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if phone != "" && customer.Phone != phone {
		updates["phone"] = phone
		customer.Phone = phone
	}
	if address != "" && customer.Address != address {
		updates["address"] = address
		customer.Address = address
	}
	if len(updates) > 0 {
		if err := tx.Model(&customer).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &customer, nil
}

// GetOrCreate resolves a customer by id when given, else by (name, phone)
// get-or-create. Used by the credit ledger.
func (s *Service) GetOrCreate(id uint, name, phone string) (*models.Customer, error) {
	if id != 0 {
		var customer models.Customer
		if err := s.db.First(&customer, id).Error; err == nil {
			return &customer, nil
		}
		// Fall through to name matching; a stale id shouldn't block entry.
	}
	if name == "" {
		return nil, apperr.Validation("customer", "customer is required")
	}
	var customer models.Customer
	err := s.db.Where("name = ? AND phone = ?", name, phone).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{Name: name, Phone: phone, IsActive: true}
		if err := s.db.Create(&customer).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Lookup finds the newest active customer whose name matches exactly
// (case-insensitive). Returns (nil, nil) when nothing matches; callers
// treat the nil customer as "not found", not as an error.
func (s *Service) Lookup(name string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var customer models.Customer
	err := s.db.Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).
		Order("id desc").First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Suggest returns up to 10 active customers whose name contains q.
func (s *Service) Suggest(q string) ([]models.Customer, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	var customers []models.Customer
	err := s.db.Where("is_active = ? AND name LIKE ?", true, "%"+q+"%").
		Order("name").Limit(10).Find(&customers).Error
	return customers, err
}

// ordersFor applies the phone-or-name heuristic to an order query.
func ordersFor(q *gorm.DB, customer *models.Customer) *gorm.DB {
	if customer.Phone != "" {
		return q.Where("customer_phone = ?", customer.Phone)
	}
	return q.Where("LOWER(customer_name) = LOWER(?)", customer.Name)
}

// SpendRow is one line of the customer-spend report.
type SpendRow struct {
	Customer      models.Customer `json:"customer"`
	TotalProducts int             `json:"total_products"`
	TotalSpent    float64         `json:"total_spent"`
	Outstanding   float64         `json:"outstanding"`
}

// SpendRows aggregates, per active customer, quantity bought and money
// spent on matched orders in [start, end), plus unpaid credit. A nil start
// means all time. nameFilter narrows by substring.
func (s *Service) SpendRows(start, end *time.Time, nameFilter string) ([]SpendRow, error) {
	q := s.db.Where("is_active = ?", true)
	if nameFilter != "" {
		q = q.Where("name LIKE ?", "%"+nameFilter+"%")
	}
	var custs []models.Customer
	if err := q.Order("name").Find(&custs).Error; err != nil {
		return nil, err
	}

	rows := make([]SpendRow, 0, len(custs))
	for i := range custs {
		c := &custs[i]

		orders := s.db.Model(&models.Order{})
		if start != nil && end != nil {
			orders = orders.Where("created_at >= ? AND created_at <= ?", *start, *end)
		}
		orders = ordersFor(orders, c).Select("id")

		var agg struct {
			Qty   int
			Spent float64
		}
		err := s.db.Model(&models.OrderItem{}).
			Where("order_id IN (?)", orders).
			Select("COALESCE(SUM(quantity), 0) as qty, COALESCE(SUM(unit_price * quantity), 0) as spent").
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}

		var outstanding float64
		err = s.db.Model(&models.CreditEntry{}).
			Where("customer_id = ? AND is_paid = ?", c.ID, false).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&outstanding).Error
		if err != nil {
			return nil, err
		}

		rows = append(rows, SpendRow{
			Customer:      *c,
			TotalProducts: agg.Qty,
			TotalSpent:    agg.Spent,
			Outstanding:   outstanding,
		})
	}
	return rows, nil
}

// MarkReminderSent stamps today as the last reminder date.
func (s *Service) MarkReminderSent(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		return nil, apperr.ErrNotFound
	}
	now := time.Now()
	if err := s.db.Model(&customer).Update("last_reminder_date", &now).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Save creates or updates a customer record. Name is required.
func (s *Service) Save(customer *models.Customer) error {
	if strings.TrimSpace(customer.Name) == "" {
		return apperr.Validation("name", "customer name is required")
	}
	return s.db.Save(customer).Error
}

// Delete removes a customer and (by cascade) their credit entries.
func (s *Service) Delete(id uint) error {
	res := s.db.Delete(&models.Customer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns all customers ordered by name.
func (s *Service) List() ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.Order("name").Find(&customers).Error
	return customers, err
}
