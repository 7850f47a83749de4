package handlers

import (
	"net/http"
	"strconv"

	"kirana-pos/internal/catalog"
	"kirana-pos/internal/middleware"
	"kirana-pos/internal/models"
	"kirana-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes browsing, product maintenance and scan lookups.
type CatalogHandler struct {
	Catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{Catalog: svc}
}

// GET /api/products?q=&category=&all=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := catalog.SearchFilter{
		Query:      c.Query("q"),
		ActiveOnly: c.Query("all") == "",
	}
	if cid, err := strconv.Atoi(c.Query("category")); err == nil {
		filter.CategoryID = uint(cid)
	}
	products, err := h.Catalog.Search(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	product, err := h.Catalog.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GET /api/products/scan/:code - barcode, then QR payload, then numeric id
func (h *CatalogHandler) ScanProduct(c *gin.Context) {
	product, err := h.Catalog.FindByCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /api/products
func (h *CatalogHandler) AddProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	product.ID = 0
	if err := h.Catalog.Save(middleware.UserID(c), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// PUT /api/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	product, err := h.Catalog.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := c.ShouldBindJSON(product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	product.ID = uint(id)
	if err := h.Catalog.Save(middleware.UserID(c), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// DELETE /api/products/:id - refuses when the product sits in any ledger
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	if err := h.Catalog.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type scanStockRequest struct {
	Code  string `json:"code" binding:"required"`
	Delta string `json:"delta"`
}

// POST /api/products/scan-stock - scan a code, bump its stock by delta
// (bad delta falls back to 1, like all counter input).
func (h *CatalogHandler) ScanStockIncrement(c *gin.Context) {
	var req scanStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	delta := utils.ParseQty(req.Delta)
	product, err := h.Catalog.IncrementStock(middleware.UserID(c), req.Code, delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Stock updated",
		"product": product,
	})
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// POST /api/categories
func (h *CatalogHandler) UpsertCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	category, err := h.Catalog.UpsertCategory(req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// DELETE /api/categories/:id - products keep living, just uncategorized
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}
	if err := h.Catalog.DeleteCategory(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
