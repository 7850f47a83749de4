package handlers

import (
	"errors"
	"net/http"

	"kirana-pos/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError maps engine errors onto HTTP statuses: validation and
// empty-cart problems are the caller's fault (400), unknown ids are 404,
// anything else is ours (500).
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperr.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
