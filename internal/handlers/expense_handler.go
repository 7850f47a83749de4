package handlers

import (
	"net/http"
	"time"

	"kirana-pos/internal/expenses"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	Ledger *expenses.Ledger
}

func NewExpenseHandler(ledger *expenses.Ledger) *ExpenseHandler {
	return &ExpenseHandler{Ledger: ledger}
}

type expenseRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"` // lenient: garbage parses to 0
	Date        string `json:"date"`   // YYYY-MM-DD, default today
}

// POST /admin/expenses
func (h *ExpenseHandler) Add(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	date := time.Now()
	if d, err := time.Parse("2006-01-02", req.Date); err == nil {
		date = d
	}
	expense, err := h.Ledger.Add(models.ExpenseCategory(req.Category), req.Description, utils.ParseAmount(req.Amount), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense recorded", "expense": expense})
}

// GET /admin/expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	list, err := h.Ledger.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
