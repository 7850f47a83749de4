package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kirana-pos/internal/customers"
	"kirana-pos/internal/models"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	Customers *customers.Service
}

func NewCustomerHandler(customerSvc *customers.Service) *CustomerHandler {
	return &CustomerHandler{Customers: customerSvc}
}

// GET /admin/customers
func (h *CustomerHandler) List(c *gin.Context) {
	list, err := h.Customers.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /admin/customers (id present = update)
func (h *CustomerHandler) Save(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := h.Customers.Save(&customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer saved", "customer": customer})
}

// DELETE /admin/customers/:id (their credit entries cascade away too)
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}
	if err := h.Customers.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}

// GET /admin/customers/lookup?name=Ravi
func (h *CustomerHandler) Lookup(c *gin.Context) {
	customer, err := h.Customers.Lookup(c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	if customer == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "customer": customer})
}

// GET /admin/customers/suggest?q=ra
func (h *CustomerHandler) Suggest(c *gin.Context) {
	matches, err := h.Customers.Suggest(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// GET /admin/customers/spend?start=2026-01-01&end=2026-02-01&name=ra
func (h *CustomerHandler) Spend(c *gin.Context) {
	var start, end *time.Time
	if d, err := time.Parse("2006-01-02", c.Query("start")); err == nil {
		start = &d
	}
	if d, err := time.Parse("2006-01-02", c.Query("end")); err == nil {
		end = &d
	}
	rows, err := h.Customers.SpendRows(start, end, c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// POST /admin/customers/:id/reminder-sent
func (h *CustomerHandler) ReminderSent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}
	customer, err := h.Customers.MarkReminderSent(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder recorded", "customer": customer})
}
