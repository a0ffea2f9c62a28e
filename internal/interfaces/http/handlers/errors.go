// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidStockState, apperr.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// requestStatusFor is StatusFor for operations whose input names another
// entity (a product to add, the cart to check out). A missing one makes the
// request invalid, so NotFound becomes 400 instead of 404.
func requestStatusFor(kind apperr.Kind) int {
	if kind == apperr.KindNotFound {
		return http.StatusBadRequest
	}
	return StatusFor(kind)
}

// respondError writes the error body for err. Unclassified errors are logged
// and reported without their internals.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	writeError(c, logger, err, StatusFor)
}

// respondRequestError is respondError with requestStatusFor
func respondRequestError(c *gin.Context, logger *logrus.Logger, err error) {
	writeError(c, logger, err, requestStatusFor)
}

func writeError(c *gin.Context, logger *logrus.Logger, err error, status func(apperr.Kind) int) {
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "timeout",
			"message": "Request timed out",
		})
		return
	}

	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindUnknown {
		logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("Unhandled error")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   apperr.KindUnknown.String(),
			"message": "Internal server error",
		})
		return
	}

	body := gin.H{
		"error":   e.Kind.String(),
		"message": e.Message,
	}
	switch e.Kind {
	case apperr.KindInsufficientStock:
		body["details"] = gin.H{
			"available": e.Available,
			"requested": e.Requested,
		}
	case apperr.KindInvalidStockState:
		// Data-integrity fault; the message names internal state
		body["message"] = "Internal server error"
	}

	c.JSON(status(e.Kind), body)
}

// respondBindError reports a request that failed binding or validation
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   apperr.KindInvalidInput.String(),
		"message": "Invalid request data",
		"details": err.Error(),
	})
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   apperr.KindInvalidInput.String(),
			"message": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   apperr.KindNotFound.String(),
			"message": "Not found",
		})
		return uuid.Nil, false
	}
	return id, true
}
