package api

import (
	"errors"
	"net/http"

	"campaign-console/internal/backend"

	"github.com/gin-gonic/gin"
)

// renderError maps the error taxonomy onto HTTP responses. Validation errors
// are unprocessable input, backend rejections keep their status and literal
// detail text, anything else is a transport failure the user may retry.
func renderError(c *gin.Context, err error) {
	var validationErr *backend.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.DetailText()})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
