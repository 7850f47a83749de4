package orders

import (
	"errors"
	"fmt"
	"strings"

	"kirana-pos/internal/apperr"
	"kirana-pos/internal/audit"
	"kirana-pos/internal/cart"
	"kirana-pos/internal/customers"
	"kirana-pos/internal/database"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"gorm.io/gorm"
)

// Engine owns the order lifecycle: checkout, completion and returns.
// Every multi-row mutation runs inside a single transaction with the
// touched product rows locked, so stock, snapshots, payments and audit
// rows commit (or vanish) together.
type Engine struct {
	db        *gorm.DB
	audit     *audit.Logger
	customers *customers.Service
}

func NewEngine(db *gorm.DB, auditLog *audit.Logger, customerSvc *customers.Service) *Engine {
	return &Engine{db: db, audit: auditLog, customers: customerSvc}
}

// PaymentInput is one (method, amount, reference) tuple from checkout.
// Checkout takes at most two.
type PaymentInput struct {
	Method    models.PaymentMethod
	Amount    float64
	Reference string
}

// PlacedOrder is the checkout result. PaymentMismatch flags a non-fatal
// difference between the collected amount and the order total.
type PlacedOrder struct {
	Order           *models.Order
	Total           float64
	PaymentMismatch bool
}

// PlaceOrder converts a cart into a pending order: it upserts the
// customer, snapshots per-line pricing, decrements stock (clamped at
// zero - an oversell is recorded, never rejected), audits every stock
// change and records up to two payments. The order total is the sum of
// the just-created snapshots.
func (e *Engine) PlaceOrder(userID *uint, c cart.Cart, customerName, phone, address string, payments []PaymentInput) (*PlacedOrder, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, apperr.Validation("name", "customer name is required")
	}
	if len(payments) > 2 {
		return nil, apperr.Validation("payments", "at most two payment entries are accepted")
	}

	ids := c.ProductIDs()
	if len(ids) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	var placed *PlacedOrder
	err := e.db.Transaction(func(tx *gorm.DB) error {
		// Lock the product rows for the whole checkout so concurrent
		// sales of the same product serialize instead of losing updates.
		var products []models.Product
		if err := database.LockForUpdate(tx).
			Where("id IN ?", ids).Find(&products).Error; err != nil {
			return err
		}
		// Cart lines whose product vanished are dropped silently.
		if len(products) == 0 {
			return apperr.ErrEmptyCart
		}

		if _, err := e.customers.UpsertFromCheckout(tx, customerName, phone, address); err != nil {
			return err
		}

		order := models.Order{
			CustomerName:    customerName,
			CustomerPhone:   phone,
			CustomerAddress: address,
			Status:          models.StatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		a := e.audit.WithTx(tx)
		var total float64
		for i := range products {
			p := &products[i]
			qty := c.Quantity(p.ID)
			if qty <= 0 {
				continue
			}

			item := models.OrderItem{
				OrderID:        order.ID,
				ProductID:      p.ID,
				Quantity:       qty,
				UnitPrice:      p.Price,
				DiscountAmount: p.DiscountPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, item)
			total += item.Subtotal()

			oldStock := p.StockQuantity
			newStock := oldStock - qty
			if newStock < 0 {
				newStock = 0 // oversell: record the sale, floor the shelf
			}
			if err := tx.Model(p).Update("stock_quantity", newStock).Error; err != nil {
				return err
			}
			if err := a.StockChange(userID, p.ID, oldStock, newStock); err != nil {
				return err
			}
		}
		if len(order.Items) == 0 {
			return apperr.ErrEmptyCart
		}

		var collected float64
		for _, pay := range payments {
			if pay.Amount == 0 {
				continue
			}
			if !pay.Method.IsValid() {
				return apperr.Validation("payment_method", fmt.Sprintf("unknown payment method %q", pay.Method))
			}
			payment := models.OrderPayment{
				OrderID:   order.ID,
				Method:    pay.Method,
				Amount:    pay.Amount,
				Reference: pay.Reference,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			order.Payments = append(order.Payments, payment)
			collected += pay.Amount
		}

		placed = &PlacedOrder{
			Order:           &order,
			Total:           utils.Round2(total),
			PaymentMismatch: utils.Round2(collected) != utils.Round2(total),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// MarkCompleted transitions pending/preparing -> completed. Re-marking a
// completed order is a no-op; cancelled and returned orders are frozen.
func (e *Engine) MarkCompleted(id uint) (*models.Order, error) {
	var order models.Order
	if err := e.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if order.Status == models.StatusCompleted {
		return &order, nil // idempotent
	}
	if !order.Status.CanTransitionTo(models.StatusCompleted) {
		return nil, apperr.Validation("status", fmt.Sprintf("cannot complete a %s order", order.Status))
	}
	order.Status = models.StatusCompleted
	if err := e.db.Model(&order).Update("status", order.Status).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ReturnLine asks to return qty units of one order item.
type ReturnLine struct {
	OrderItemID uint
	Quantity    int
}

// ProcessReturn handles one return transaction: per-line quantities are
// clamped to what was originally bought, stock is restored (always
// additive), unit prices are snapshot onto return items and, when a
// refund method is given, a single negative payment tagged "REFUND" is
// appended. The order always lands in the terminal returned status, even
// for a partial return.
func (e *Engine) ProcessReturn(userID *uint, orderID uint, reason, refundMethod string, lines []ReturnLine) (*models.OrderReturn, error) {
	if refundMethod != "" && !models.PaymentMethod(refundMethod).IsValid() {
		return nil, apperr.Validation("refund_method", fmt.Sprintf("unknown payment method %q", refundMethod))
	}
	var result *models.OrderReturn
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(models.StatusReturned) {
			return apperr.Validation("status", fmt.Sprintf("a %s order cannot be returned", order.Status))
		}

		itemsByID := make(map[uint]*models.OrderItem, len(order.Items))
		for i := range order.Items {
			itemsByID[order.Items[i].ID] = &order.Items[i]
		}

		ret := models.OrderReturn{
			OrderID:      order.ID,
			Reason:       reason,
			RefundMethod: refundMethod,
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}

		var refund float64
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			item, ok := itemsByID[line.OrderItemID]
			if !ok {
				return apperr.Validation("order_item", fmt.Sprintf("item %d does not belong to order %d", line.OrderItemID, order.ID))
			}
			qty := line.Quantity
			if qty > item.Quantity {
				qty = item.Quantity // cannot return more than was bought
			}

			retItem := models.OrderReturnItem{
				OrderReturnID: ret.ID,
				ProductID:     item.ProductID,
				Quantity:      qty,
				UnitPrice:     item.UnitPrice,
			}
			if err := tx.Create(&retItem).Error; err != nil {
				return err
			}
			ret.Items = append(ret.Items, retItem)

			// Restock: always additive, no cap against the original level.
			var product models.Product
			if err := database.LockForUpdate(tx).
				First(&product, item.ProductID).Error; err != nil {
				return err
			}
			if err := tx.Model(&product).
				Update("stock_quantity", product.StockQuantity+qty).Error; err != nil {
				return err
			}

			refund += item.UnitPrice * float64(qty)
		}

		if refundMethod != "" && refund > 0 {
			payment := models.OrderPayment{
				OrderID:   order.ID,
				Method:    models.PaymentMethod(refundMethod),
				Amount:    -utils.Round2(refund),
				Reference: "REFUND",
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&order).Update("status", models.StatusReturned).Error; err != nil {
			return err
		}

		result = &ret
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches one order with its lines and payments.
func (e *Engine) Get(id uint) (*models.Order, error) {
	var order models.Order
	err := e.db.Preload("Items.Product").Preload("Payments").Preload("Returns.Items").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, optionally filtered by status.
func (e *Engine) List(status models.OrderStatus) ([]models.Order, error) {
	q := e.db.Preload("Items.Product").Order("created_at desc")
	if status != "" {
		if !status.IsValid() {
			return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", status))
		}
		q = q.Where("status = ?", status)
	}
	var list []models.Order
	err := q.Find(&list).Error
	return list, err
}
