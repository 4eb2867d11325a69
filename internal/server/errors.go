package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	eventservice "github.com/smallbiznis/retainly/internal/event/service"
)

// apiError is the only error shape handlers return to clients. Anything
// else is logged server-side and surfaced as a bare internal_error.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

var (
	ErrUnauthorized    = &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "unauthorized"}
	ErrNotFound        = &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "not found"}
	ErrTooManyRequests = &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}

	// ErrTriggerNotConfigured is returned when no trigger secret is set:
	// refusing every trigger beats running campaigns unauthenticated.
	ErrTriggerNotConfigured = &apiError{Status: http.StatusServiceUnavailable, Code: "trigger_not_configured", Message: "job trigger secret is not configured"}
)

func invalidRequestError() *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// AbortWithError maps an error to its HTTP response and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, campaigndomain.ErrUnknownCampaign):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": &apiError{
			Code: "unknown_campaign", Message: "unknown campaign",
		}})
	case errors.Is(err, eventservice.ErrInvalidAnonymousID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Code: "invalid_anonymous_id", Message: "anonymousId is required", Field: "anonymousId",
		}})
	case errors.Is(err, eventservice.ErrInvalidCustomerID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Code: "invalid_customer_id", Message: "customerId is required", Field: "customerId",
		}})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
			Code: "internal_error", Message: "internal error",
		}})
	}
}
