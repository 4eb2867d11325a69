package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	eventservice "github.com/smallbiznis/retainly/internal/event/service"
)

type trackEventRequest struct {
	AnonymousID string         `json:"anonymousId"`
	CustomerID  string         `json:"customerId"`
	Type        string         `json:"type"`
	OccurredAt  *time.Time     `json:"occurredAt"`
	Properties  map[string]any `json:"properties"`
}

// TrackEvent ingests one behavioral event. Always 202 on a well-formed
// request: tracking is best-effort and never blocks the storefront on
// validation or storage problems.
func (s *Server) TrackEvent(c *gin.Context) {
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, ok := parseOptionalID(req.CustomerID)
	if !ok {
		AbortWithError(c, newValidationError("customerId", "invalid_customer_id", "invalid customer id"))
		return
	}

	in := eventservice.TrackInput{
		AnonymousID: req.AnonymousID,
		CustomerID:  customerID,
		Type:        req.Type,
		Properties:  req.Properties,
	}
	if req.OccurredAt != nil {
		in.OccurredAt = req.OccurredAt.UTC()
	}
	s.eventSvc.Track(c.Request.Context(), in)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type identifyRequest struct {
	AnonymousID string `json:"anonymousId"`
	CustomerID  string `json:"customerId"`
}

// Identify links an anonymous visitor's event history to a customer.
// Idempotent: repeat calls report zero newly linked events.
func (s *Server) Identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, ok := parseOptionalID(req.CustomerID)
	if !ok || customerID == 0 {
		AbortWithError(c, newValidationError("customerId", "invalid_customer_id", "invalid customer id"))
		return
	}

	linked, err := s.eventSvc.LinkEvents(c.Request.Context(), req.AnonymousID, customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": linked})
}

// parseOptionalID parses a snowflake ID, treating an empty string as zero.
func parseOptionalID(raw string) (snowflake.ID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
