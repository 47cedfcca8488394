package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KonghaYao/text2location/app/responses"
	"github.com/KonghaYao/text2location/internal/search"
)

// Version reported by health and index routes.
const Version = "1.0.0"

// errorStatus maps service errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "REQUEST_CANCELED"
	case errors.Is(err, search.ErrNotQueryable):
		return http.StatusServiceUnavailable, "NOT_READY"
	case search.IsKind(err, search.ErrInvalidWeights):
		return http.StatusBadRequest, "INVALID_WEIGHTS"
	case search.IsRejectedQuery(err):
		return http.StatusBadRequest, "INVALID_QUERY"
	case search.IsKind(err, search.ErrQuery):
		return http.StatusInternalServerError, "SEARCH_FAILED"
	case search.IsKind(err, search.ErrIndex):
		return http.StatusInternalServerError, "INDEX_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString("request_id"),
	})
}

func respondServiceError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	respondError(c, status, code, err.Error())
}
