package handlers

import (
	"net/http"
	"strconv"

	"kirana-pos/internal/credit"
	"kirana-pos/internal/middleware"
	"kirana-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	Ledger *credit.Ledger
}

func NewCreditHandler(ledger *credit.Ledger) *CreditHandler {
	return &CreditHandler{Ledger: ledger}
}

// GET /admin/credit?sort=customer_asc
func (h *CreditHandler) List(c *gin.Context) {
	entries, err := h.Ledger.List(c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type creditAddRequest struct {
	CustomerID    uint   `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	ProductID     uint   `json:"product_id"`
	ItemName      string `json:"item_name"`
	Quantity      string `json:"quantity"` // lenient: garbage parses to 1
	Amount        string `json:"amount"`   // lenient: garbage parses to 0
	Notes         string `json:"notes"`
}

// POST /admin/credit
func (h *CreditHandler) Add(c *gin.Context) {
	var req creditAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	entry, err := h.Ledger.Add(credit.AddInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ProductID:     req.ProductID,
		ItemName:      req.ItemName,
		Quantity:      utils.ParseQty(req.Quantity),
		Amount:        utils.ParseAmount(req.Amount),
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit entry added", "entry": entry})
}

// POST /admin/credit/:id/pay
func (h *CreditHandler) MarkPaid(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credit entry ID"})
		return
	}
	entry, err := h.Ledger.MarkPaid(middleware.UserID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as paid", "entry": entry})
}

// GET /admin/credit/reminders
func (h *CreditHandler) Reminders(c *gin.Context) {
	reminders, err := h.Ledger.Reminders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// GET /admin/credit/outstanding?customer_id=3 (0 or absent = everyone)
func (h *CreditHandler) Outstanding(c *gin.Context) {
	customerID, _ := strconv.Atoi(c.DefaultQuery("customer_id", "0"))
	total, err := h.Ledger.Outstanding(uint(customerID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outstanding": total})
}
