package handlers

import (
	"net/http"
	"strconv"

	"kirana-pos/internal/middleware"
	"kirana-pos/internal/models"
	"kirana-pos/internal/orders"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Engine *orders.Engine
}

func NewOrderHandler(engine *orders.Engine) *OrderHandler {
	return &OrderHandler{Engine: engine}
}

// GET /admin/orders?status=pending
func (h *OrderHandler) List(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}
	list, err := h.Engine.List(status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /admin/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	order, err := h.Engine.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "total": order.TotalAmount()})
}

// POST /admin/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	order, err := h.Engine.MarkCompleted(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order marked as completed", "order": order})
}

type returnRequest struct {
	Reason       string `json:"reason"`
	RefundMethod string `json:"refund_method"`
	Lines        []struct {
		OrderItemID uint `json:"order_item_id"`
		Quantity    int  `json:"quantity"`
	} `json:"lines"`
}

// POST /admin/orders/:id/return
func (h *OrderHandler) Return(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	lines := make([]orders.ReturnLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, orders.ReturnLine{OrderItemID: l.OrderItemID, Quantity: l.Quantity})
	}

	ret, err := h.Engine.ProcessReturn(middleware.UserID(c), uint(id), req.Reason, req.RefundMethod, lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Return processed", "return": ret})
}
