package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// lastRunTTL mirrors the scheduler's retention for trigger-driven runs.
const lastRunTTL = 14 * 24 * time.Hour

type runCampaignRequest struct {
	DryRun bool `json:"dryRun"`
}

// RunCampaign executes one campaign synchronously and returns its report.
// The body is optional; {"dryRun": true} previews the run without sending
// or recording anything.
func (s *Server) RunCampaign(c *gin.Context) {
	def, err := s.registry.Find(strings.TrimSpace(c.Param("campaign")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req runCampaignRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Engine.RunTimeout)
	defer cancel()

	result, runErr := s.runner.Run(ctx, def, req.DryRun)
	if result == nil {
		AbortWithError(c, runErr)
		return
	}

	report := result.Report()
	report.Success = runErr == nil
	if runErr != nil {
		report.ErrorDetails = append(report.ErrorDetails, runErr.Error())
	}
	if !req.DryRun {
		s.lastRuns.Set(def.Key, report, lastRunTTL)
	}

	status := http.StatusOK
	if runErr != nil {
		status = http.StatusInternalServerError
	}
	c.JSON(status, report)
}

// LastRun returns the most recent live report for a campaign, whether it
// came from the scheduler or a manual trigger.
func (s *Server) LastRun(c *gin.Context) {
	key := strings.TrimSpace(c.Param("campaign"))
	if _, err := s.registry.Find(key); err != nil {
		AbortWithError(c, err)
		return
	}

	report, ok := s.lastRuns.Get(key)
	if !ok {
		AbortWithError(c, &apiError{
			Status:  http.StatusNotFound,
			Code:    "no_runs",
			Message: "campaign has not run yet",
		})
		return
	}
	c.JSON(http.StatusOK, report)
}
