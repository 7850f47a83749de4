package models

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusCompleted, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed out of s.
// Completed is terminal for everything except return processing.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// CanTransitionTo checks a single status transition. Returns are the only
// path into "returned"; once an order is returned or cancelled it is frozen.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusPreparing || target == StatusCompleted ||
			target == StatusCancelled || target == StatusReturned
	case StatusPreparing:
		return target == StatusCompleted || target == StatusCancelled ||
			target == StatusReturned
	case StatusCompleted:
		// A completed order can still be returned by the customer.
		return target == StatusReturned
	case StatusCancelled, StatusReturned:
		return false
	}
	return false
}

// PaymentMethod is how money changed hands for an order payment.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// AuditAction is the kind of mutation an AuditLog row records.
type AuditAction string

const (
	AuditStockChange AuditAction = "stock_change"
	AuditPriceChange AuditAction = "price_change"
	AuditCreditPaid  AuditAction = "credit_paid"
)

// ExpenseCategory buckets expenses for the net-profit report.
type ExpenseCategory string

const (
	ExpenseRent        ExpenseCategory = "Rent"
	ExpenseElectricity ExpenseCategory = "Electricity"
	ExpenseSalary      ExpenseCategory = "Salary"
	ExpenseMaintenance ExpenseCategory = "Maintenance"
	ExpenseOther       ExpenseCategory = "Other"
)

// IsValid reports whether c is a known expense category.
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseRent, ExpenseElectricity, ExpenseSalary, ExpenseMaintenance, ExpenseOther:
		return true
	}
	return false
}
