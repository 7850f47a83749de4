package models

import (
	"time"
)

// User - The shopkeeper (or staff) logging into the back office
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'staff'
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups products on the shelf (e.g. "Fruits", "Snacks")
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100" json:"name"`
	Description string `json:"description"`
}

// Product - The Inventory
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CategoryID  *uint     `json:"category_id"` // nullable: deleting a category keeps the product
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Name        string    `gorm:"size:200" json:"name"`
	Description string    `json:"description"`
	// What the customer actually pays per unit is Price - DiscountPrice.
	Price         float64 `gorm:"type:decimal(10,2)" json:"price"`
	CostPrice     float64 `gorm:"type:decimal(10,2)" json:"cost_price"`
	DiscountPrice float64 `gorm:"type:decimal(10,2)" json:"discount_price"`
	StockQuantity int     `json:"stock_quantity"` // never negative; clamped on over-deduction
	Barcode       *string `gorm:"uniqueIndex;size:64" json:"barcode"`
	QRPayload     string  `json:"qr_payload"`
	Unit          string  `gorm:"size:30;default:piece" json:"unit"`
	Subunit       string  `gorm:"size:30" json:"subunit"`
	// Number of subunits per one unit (1 packet = 12 pieces, 1 kg = 1000 g)
	ConversionFactor int        `gorm:"default:1" json:"conversion_factor"`
	TaxRatePercent   float64    `gorm:"type:decimal(5,2)" json:"tax_rate_percent"` // GST %
	ReorderThreshold int        `gorm:"default:5" json:"reorder_threshold"`
	ExpiryDate       *time.Time `json:"expiry_date"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SellingPrice is the effective per-unit price used by the cart and checkout.
func (p *Product) SellingPrice() float64 {
	return p.Price - p.DiscountPrice
}

// Order - The Transaction Header. Customer identity is captured as plain
// fields; there is deliberately no hard foreign key to Customer (see the
// heuristic lookup in internal/customers).
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	CustomerName    string      `gorm:"size:150" json:"customer_name"`
	CustomerPhone   string      `gorm:"size:20" json:"customer_phone"`
	CustomerAddress string      `json:"customer_address"`
	Status          OrderStatus `gorm:"size:20;default:pending" json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Items    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments"`
	Returns  []OrderReturn  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"returns,omitempty"`
}

// TotalAmount sums the snapshot line subtotals. Totals are always derived
// from the snapshots, never from live Product prices.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// OrderItem - a line in an order, snapshotting price and discount at the
// moment of checkout so later catalog edits don't rewrite history.
type OrderItem struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	OrderID        uint    `gorm:"index" json:"order_id"`
	ProductID      uint    `json:"product_id"`
	Product        Product `gorm:"constraint:OnDelete:RESTRICT" json:"product"`
	Quantity       int     `gorm:"default:1" json:"quantity"`
	UnitPrice      float64 `gorm:"type:decimal(10,2)" json:"unit_price"`
	DiscountAmount float64 `gorm:"type:decimal(10,2)" json:"discount_amount"`
}

// Subtotal is (price - discount) * qty for this line.
func (i *OrderItem) Subtotal() float64 {
	return (i.UnitPrice - i.DiscountAmount) * float64(i.Quantity)
}

// OrderPayment - append-only; negative amounts are refunds.
type OrderPayment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	OrderID   uint          `gorm:"index" json:"order_id"`
	Method    PaymentMethod `gorm:"size:20" json:"method"`
	Amount    float64       `gorm:"type:decimal(10,2)" json:"amount"`
	Reference string        `gorm:"size:100" json:"reference"`
	CreatedAt time.Time     `json:"created_at"`
}

// OrderReturn - one return transaction against an order; never edited after
// creation.
type OrderReturn struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	OrderID      uint              `gorm:"index" json:"order_id"`
	Reason       string            `json:"reason"`
	RefundMethod string            `gorm:"size:20" json:"refund_method"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderReturnItem `gorm:"foreignKey:OrderReturnID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderReturnItem struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OrderReturnID uint    `gorm:"index" json:"order_return_id"`
	ProductID     uint    `json:"product_id"`
	Product       Product `gorm:"constraint:OnDelete:RESTRICT" json:"product"`
	Quantity      int     `gorm:"default:1" json:"quantity"`
	UnitPrice     float64 `gorm:"type:decimal(10,2)" json:"unit_price"`
}

// Subtotal is the refund value of this return line.
func (i *OrderReturnItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Customer - people who take goods on credit (udhari) or order regularly.
type Customer struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:150" json:"name"`
	Phone            string     `gorm:"size:20" json:"phone"`
	Address          string     `json:"address"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	Notes            string     `json:"notes"`
	LastReminderDate *time.Time `json:"last_reminder_date"`

	Credits []CreditEntry `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"credits,omitempty"`
}

// CreditEntry - one udhari line. Each entry is settled independently;
// outstanding balance = sum of unpaid amounts.
type CreditEntry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID uint       `gorm:"index" json:"customer_id"`
	Customer   Customer   `json:"customer,omitempty"`
	ProductID  *uint      `json:"product_id"` // nullable: free-text entries allowed
	Product    *Product   `gorm:"constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ItemName   string     `gorm:"size:200" json:"item_name"`
	Quantity   int        `gorm:"default:1" json:"quantity"`
	Amount     float64    `gorm:"type:decimal(10,2)" json:"amount"`
	DateTaken  time.Time  `gorm:"autoCreateTime" json:"date_taken"`
	IsPaid     bool       `gorm:"default:false" json:"is_paid"`
	DatePaid   *time.Time `json:"date_paid"` // set once, when IsPaid flips true
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Wholesaler - suppliers the shop buys stock from.
type Wholesaler struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:150" json:"name"`
	Phone   string `gorm:"size:20" json:"phone"`
	Email   string `gorm:"size:254" json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`

	Purchases []Purchase `gorm:"foreignKey:WholesalerID;constraint:OnDelete:CASCADE" json:"purchases,omitempty"`
}

// Purchase - one buying trip / invoice from a wholesaler.
type Purchase struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	WholesalerID uint           `gorm:"index" json:"wholesaler_id"`
	Wholesaler   Wholesaler     `json:"wholesaler,omitempty"`
	Date         time.Time      `json:"date"`
	CreatedAt    time.Time      `json:"created_at"`
	Items        []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
}

type PurchaseItem struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PurchaseID uint       `gorm:"index" json:"purchase_id"`
	Purchase   *Purchase  `json:"purchase,omitempty"`
	ProductID  uint       `json:"product_id"`
	Product    Product    `gorm:"constraint:OnDelete:RESTRICT" json:"product"`
	Quantity   int        `gorm:"default:1" json:"quantity"`
	UnitCost   float64    `gorm:"type:decimal(10,2)" json:"unit_cost"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// TotalCost is what the shop paid the wholesaler for this line.
func (i *PurchaseItem) TotalCost() float64 {
	return i.UnitCost * float64(i.Quantity)
}

// MessageTemplate - text for udhari reminders with {customer_name},
// {amount} and {shop_name} placeholders. The newest active template wins.
type MessageTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Body      string    `json:"body"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLog - append-only trail of stock/price/credit mutations.
type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    *uint       `json:"user_id"` // nullable: anonymous checkout also audits
	Action    AuditAction `gorm:"size:50" json:"action"`
	Model     string      `gorm:"size:100" json:"model"`
	ObjectID  uint        `json:"object_id"`
	Field     string      `gorm:"size:100" json:"field"`
	OldValue  string      `gorm:"size:255" json:"old_value"`
	NewValue  string      `gorm:"size:255" json:"new_value"`
	CreatedAt time.Time   `json:"created_at"`
}

// Expense - simple money-out ledger feeding net profit.
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        time.Time       `json:"date"`
	Category    ExpenseCategory `gorm:"size:50" json:"category"`
	Description string          `gorm:"size:200" json:"description"`
	Amount      float64         `gorm:"type:decimal(10,2)" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
