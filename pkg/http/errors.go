package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/iot-pressure-service/pkg/iot"
)

const (
	msgInvalidAction   = "Acción no válida"
	msgMissingToken    = "Missing or invalid authorization token"
	msgInvalidToken    = "Invalid or expired token"
	msgInvalidJSON     = "Invalid JSON"
	msgStoreFailed     = "Failed to store data"
	msgRateLimited     = "Rate limit exceeded"
	msgDataStored      = "Data stored successfully"
	msgLimiterNoEffect = "RateLimiterStore is not used. No effect."
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, iot.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, iot.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, iot.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFromError(err), gin.H{"error": err.Error()})
}
