package handlers

import (
	"log"
	"net/http"
	"strconv"

	"kirana-pos/internal/cart"
	"kirana-pos/internal/catalog"
	"kirana-pos/internal/middleware"
	"kirana-pos/internal/models"
	"kirana-pos/internal/orders"
	"kirana-pos/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const cartSessionKey = "cart"

// CartHandler keeps the shopping cart in the cookie session and turns it
// into an order at checkout. Cart endpoints take form fields (the counter
// posts plain forms); quantities parse leniently.
type CartHandler struct {
	DB      *gorm.DB
	Engine  *orders.Engine
	Catalog *catalog.Service
}

func NewCartHandler(db *gorm.DB, engine *orders.Engine, catalogSvc *catalog.Service) *CartHandler {
	return &CartHandler{DB: db, Engine: engine, Catalog: catalogSvc}
}

func loadCart(c *gin.Context) cart.Cart {
	session := sessions.Default(c)
	if raw, ok := session.Get(cartSessionKey).(map[string]int); ok {
		return cart.Cart(raw)
	}
	return cart.Cart{}
}

func saveCart(c *gin.Context, crt cart.Cart) {
	session := sessions.Default(c)
	session.Set(cartSessionKey, map[string]int(crt))
	if err := session.Save(); err != nil {
		log.Printf("cart session save failed: %v", err)
	}
}

func clearCart(c *gin.Context) {
	saveCart(c, cart.Cart{})
}

// GET /api/cart - the cart priced against the live catalog
func (h *CartHandler) Summary(c *gin.Context) {
	summary, err := cart.Summarize(h.DB, loadCart(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/cart/add  (product_id, quantity)
func (h *CartHandler) Add(c *gin.Context) {
	productID, err := strconv.Atoi(c.PostForm("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	qty := utils.ParseQty(c.DefaultPostForm("quantity", "1"))

	crt := loadCart(c)
	crt.Add(uint(productID), qty)
	saveCart(c, crt)
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart"})
}

// POST /api/cart/scan  (code, qty) - scan straight into the cart
func (h *CartHandler) ScanAdd(c *gin.Context) {
	product, err := h.Catalog.FindByCode(c.PostForm("code"))
	if err != nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found for the scanned code"})
		return
	}
	qty := utils.ParseQty(c.DefaultPostForm("qty", "1"))

	crt := loadCart(c)
	crt.Add(product.ID, qty)
	saveCart(c, crt)
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "product": product, "qty": qty})
}

// POST /api/cart/update  (product_id, quantity; <=0 removes the line)
func (h *CartHandler) Update(c *gin.Context) {
	productID, err := strconv.Atoi(c.PostForm("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	qty, err := strconv.Atoi(c.DefaultPostForm("quantity", "1"))
	if err != nil {
		log.Printf("lenient parse: cart update qty %q -> 1", c.PostForm("quantity"))
		qty = 1
	}

	crt := loadCart(c)
	crt.Set(uint(productID), qty)
	saveCart(c, crt)
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

// POST /api/cart/remove  (product_id)
func (h *CartHandler) Remove(c *gin.Context) {
	productID, err := strconv.Atoi(c.PostForm("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	crt := loadCart(c)
	crt.Remove(uint(productID))
	saveCart(c, crt)
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

type checkoutPayment struct {
	Method    string `json:"method"`
	Amount    string `json:"amount"` // lenient: garbage parses to 0
	Reference string `json:"reference"`
}

type checkoutRequest struct {
	Name     string            `json:"name" binding:"required"`
	Phone    string            `json:"phone"`
	Address  string            `json:"address"`
	Payments []checkoutPayment `json:"payments"` // up to two
}

// POST /api/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	payments := make([]orders.PaymentInput, 0, len(req.Payments))
	for _, p := range req.Payments {
		payments = append(payments, orders.PaymentInput{
			Method:    models.PaymentMethod(p.Method),
			Amount:    utils.ParseAmount(p.Amount),
			Reference: p.Reference,
		})
	}

	placed, err := h.Engine.PlaceOrder(middleware.UserID(c), loadCart(c), req.Name, req.Phone, req.Address, payments)
	if err != nil {
		respondError(c, err)
		return
	}
	clearCart(c)

	resp := gin.H{
		"message":  "Order placed successfully!",
		"order_id": placed.Order.ID,
		"total":    placed.Total,
	}
	if placed.PaymentMismatch {
		resp["warning"] = "Payment total does not match order total."
	}
	c.JSON(http.StatusOK, resp)
}
