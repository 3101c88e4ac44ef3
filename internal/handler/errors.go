package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP replies so every handler speaks
// the same error shape.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateReview),
		errors.Is(err, service.ErrScoreTooLow),
		errors.Is(err, service.ErrScoreTooHigh),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrCategoryInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMailDelivery):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
