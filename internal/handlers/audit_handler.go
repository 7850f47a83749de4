package handlers

import (
	"net/http"
	"strconv"

	"kirana-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

// GET /admin/audit?action=stock_change&model=Product&limit=100
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := h.DB.Order("created_at desc").Limit(limit)
	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if model := c.Query("model"); model != "" {
		q = q.Where("model = ?", model)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
