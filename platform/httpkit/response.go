// Package httpkit holds the shared gin response helpers and middleware
// used by every HTTP handler in the service.
package httpkit

import (
	"net/http"

	"medleads_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status code.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Error writes an ErrorResponse with the given status code.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK writes payload with a 200.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// HandleError translates a service-layer error into an HTTP response and
// reports whether it wrote one. Typed *apperr.Error values map through
// their Kind (not found, forbidden, invalid transition, and so on);
// anything untyped falls back to 400.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if appErr, ok := err.(*apperr.Error); ok {
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Details,
		})
		return true
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
