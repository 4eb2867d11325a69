package domain

import (
	"fmt"
	"time"
)

// Report is the serialized form of a run handed back to the trigger
// caller and kept in the last-run cache. Single-step campaigns flatten
// Results to one summary; multi-step campaigns nest per-step summaries
// keyed "step1", "step2", ...
type Report struct {
	Success      bool      `json:"success"`
	Campaign     string    `json:"campaign"`
	RunID        string    `json:"runId"`
	DryRun       bool      `json:"dryRun"`
	StartedAt    time.Time `json:"startedAt"`
	DurationMs   int64     `json:"durationMs"`
	Results      any       `json:"results"`
	ErrorDetails []string  `json:"errorDetails,omitempty"`
}

// Report builds the caller-facing summary for a finished run.
func (r *RunResult) Report() Report {
	report := Report{
		Success:    true,
		Campaign:   r.Campaign,
		RunID:      r.RunID,
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
	}

	totals := r.Totals()
	if len(totals.Errors) > 0 {
		report.ErrorDetails = totals.Errors
	}

	if len(r.order) > 1 {
		nested := make(map[string]StepSummary, len(r.order))
		for _, n := range r.order {
			nested[fmt.Sprintf("step%d", n)] = r.steps[n].Snapshot()
		}
		report.Results = nested
		return report
	}
	report.Results = totals
	return report
}
