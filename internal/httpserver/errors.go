package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
)

const (
	msgOutOfStock   = "Out of stock"
	msgStockLimit   = "Больше нет в наличии"
	msgNotEnough    = "Not enough stock"
	msgUnavailable  = "Товар недоступен"
	msgNotFound     = "Product not found"
	msgConflict     = "повторите попытку"
	msgInvalidInput = "Invalid request"
	msgCSRF         = "CSRF Token mismatch"
	msgNoSession    = "Session required"
	msgInternal     = "Internal error"
)

type apiError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// statusFor maps domain errors to the status and message the shop front end expects.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusBadRequest, msgOutOfStock
	case errors.Is(err, domain.ErrStockLimit):
		return http.StatusBadRequest, msgStockLimit
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, msgNotEnough
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusBadRequest, msgUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusBadRequest, msgNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, msgConflict
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, apiError{Success: false, Message: msg})
}
