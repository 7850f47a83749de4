package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kirana-pos/internal/middleware"
	"kirana-pos/internal/purchasing"
	"kirana-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	Engine *purchasing.Engine
}

func NewPurchaseHandler(engine *purchasing.Engine) *PurchaseHandler {
	return &PurchaseHandler{Engine: engine}
}

type purchaseRequest struct {
	WholesalerID    uint    `json:"wholesaler_id"`
	WholesalerName  string  `json:"wholesaler_name"`
	WholesalerPhone string  `json:"wholesaler_phone"`
	ProductID       uint    `json:"product_id"`
	NewProductName  string  `json:"new_product_name"`
	Quantity        string  `json:"quantity"` // lenient: garbage parses to 1
	UnitCost        float64 `json:"unit_cost"`
	SellingPrice    float64 `json:"selling_price"`
	Date            string  `json:"date"`        // YYYY-MM-DD, default today
	ExpiryDate      string  `json:"expiry_date"` // YYYY-MM-DD, optional
}

// POST /admin/purchases
func (h *PurchaseHandler) Record(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	date := time.Now()
	if req.Date != "" {
		if d, err := time.Parse("2006-01-02", req.Date); err == nil {
			date = d
		}
	}
	var expiry *time.Time
	if req.ExpiryDate != "" {
		if d, err := time.Parse("2006-01-02", req.ExpiryDate); err == nil {
			expiry = &d
		}
	}

	purchase, err := h.Engine.Record(middleware.UserID(c), purchasing.RecordInput{
		WholesalerID:    req.WholesalerID,
		WholesalerName:  req.WholesalerName,
		WholesalerPhone: req.WholesalerPhone,
		ProductID:       req.ProductID,
		NewProductName:  req.NewProductName,
		Quantity:        utils.ParseQty(req.Quantity),
		UnitCost:        req.UnitCost,
		SellingPrice:    req.SellingPrice,
		Date:            date,
		ExpiryDate:      expiry,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Purchase recorded", "purchase": purchase})
}

// GET /admin/purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase ID"})
		return
	}
	purchase, err := h.Engine.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// GET /admin/purchases/recent?limit=50
func (h *PurchaseHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.Engine.Recent(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /admin/purchases/wholesalers
func (h *PurchaseHandler) Wholesalers(c *gin.Context) {
	list, err := h.Engine.ListWholesalers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /admin/purchases/suggested
func (h *PurchaseHandler) Suggested(c *gin.Context) {
	suggestions, err := h.Engine.Suggested(time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
