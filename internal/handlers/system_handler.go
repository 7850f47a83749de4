package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SystemHandler struct {
	DB       *gorm.DB
	ShopName string
}

func NewSystemHandler(db *gorm.DB, shopName string) *SystemHandler {
	return &SystemHandler{DB: db, ShopName: shopName}
}

// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "ok"
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.Ping() != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"shop":   h.ShopName,
		"time":   time.Now(),
	})
}

// GET /admin/system/backup - downloads the SQLite database file.
// Only works when the shop runs on the embedded database.
func (h *SystemHandler) Backup(c *gin.Context) {
	if h.DB.Dialector.Name() != "sqlite" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Backup download is only available for SQLite deployments"})
		return
	}
	path := os.Getenv("DB_DSN")
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Database file not found"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=backup_%s.sqlite3", time.Now().Format("20060102_150405")))
	c.File(path)
}
