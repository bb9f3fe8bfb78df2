package handlers

import (
	"errors"
	"net/http"

	"bloodlink/chat"

	"github.com/gin-gonic/gin"
)

// respondError maps the chat error taxonomy onto REST status codes.
// Responses echo entities or carry an error message, never store internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, chat.ErrTransientStore):
		c.JSON(http.StatusBadGateway, gin.H{"error": "temporary failure, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
