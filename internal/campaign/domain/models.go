// Package domain defines campaign structure, the durable send-record
// contract, and per-run result aggregation.
package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrUnknownCampaign = errors.New("unknown_campaign")
	ErrInvalidStep     = errors.New("invalid_step_definition")
)

// AnchorKind selects the timestamp a step's eligibility window is measured
// from.
type AnchorKind string

const (
	// AnchorOrderCompleted measures the window from the order's creation.
	AnchorOrderCompleted AnchorKind = "order_completed"
	// AnchorPreviousStepSent measures the window from the prior step's
	// send-record timestamp; the step is only reachable once the prior step
	// was actually sent.
	AnchorPreviousStepSent AnchorKind = "previous_step_sent"
)

// StepDefinition is one message within a campaign. MinDays/MaxDays bound
// the eligibility window in whole days before "now", inclusive on both
// ends at date granularity.
type StepDefinition struct {
	Step        int
	MinDays     int
	MaxDays     int
	TemplateKey string
	Anchor      AnchorKind
}

// Definition is a code-level campaign: an ordered list of steps tied to a
// triggering condition. Adding a step is a data change, not control flow.
type Definition struct {
	Key   string
	Steps []StepDefinition
}

// Validate checks the step list is well-formed: ascending unique step
// numbers starting at 1, sane windows, and a resolvable anchor.
func (d Definition) Validate() error {
	if d.Key == "" || len(d.Steps) == 0 {
		return ErrInvalidStep
	}
	steps := d.SortedSteps()
	for i, step := range steps {
		if step.Step != i+1 {
			return fmt.Errorf("%w: campaign %s step numbering", ErrInvalidStep, d.Key)
		}
		if step.MinDays < 0 || step.MaxDays < step.MinDays {
			return fmt.Errorf("%w: campaign %s step %d window", ErrInvalidStep, d.Key, step.Step)
		}
		if step.TemplateKey == "" {
			return fmt.Errorf("%w: campaign %s step %d template", ErrInvalidStep, d.Key, step.Step)
		}
		if step.Anchor == AnchorPreviousStepSent && step.Step == 1 {
			return fmt.Errorf("%w: campaign %s step 1 cannot anchor on a prior step", ErrInvalidStep, d.Key)
		}
	}
	return nil
}

// SortedSteps returns the steps in ascending step order; runs always
// execute steps in this order.
func (d Definition) SortedSteps() []StepDefinition {
	steps := make([]StepDefinition, len(d.Steps))
	copy(steps, d.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Step < steps[j].Step })
	return steps
}

// MultiStep reports whether run results should nest per-step summaries.
func (d Definition) MultiStep() bool { return len(d.Steps) > 1 }

// StepWindow computes the step's eligibility window from "now". Bounds are
// date-only: windowEnd = date(now - MinDays), windowStart = date(now -
// MaxDays), both inclusive. The returned end is exclusive (start of the day
// after windowEnd) so callers can query with a half-open range.
func StepWindow(now time.Time, step StepDefinition) (start, end time.Time) {
	now = now.UTC()
	start = truncateDay(now.AddDate(0, 0, -step.MaxDays))
	end = truncateDay(now.AddDate(0, 0, -step.MinDays)).AddDate(0, 0, 1)
	return start, end
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SendKey identifies one logical send. At most one SendRecord may ever
// exist per key; that is the contract the whole service enforces.
type SendKey struct {
	CustomerID  snowflake.ID
	TemplateKey string
	Step        int
	RelatedID   snowflake.ID
}

// SendRecord is durable proof that a key was sent. Created only after a
// successful live send; never updated or deleted.
type SendRecord struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID `gorm:"not null;uniqueIndex:uq_send_records_key" json:"customer_id"`
	TemplateKey string       `gorm:"type:text;not null;uniqueIndex:uq_send_records_key" json:"template_key"`
	Step        int          `gorm:"not null;uniqueIndex:uq_send_records_key" json:"step"`
	RelatedID   snowflake.ID `gorm:"not null;default:0;uniqueIndex:uq_send_records_key" json:"related_id"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SendRecord) TableName() string { return "send_records" }

// Key returns the record's logical identity.
func (r SendRecord) Key() SendKey {
	return SendKey{
		CustomerID:  r.CustomerID,
		TemplateKey: r.TemplateKey,
		Step:        r.Step,
		RelatedID:   r.RelatedID,
	}
}

// SendLog is the idempotency guard over send records. Implementations must
// make RecordSent a single atomic insert-if-absent; a read followed by a
// write is a race and is not an acceptable implementation.
type SendLog interface {
	AlreadySent(ctx context.Context, key SendKey) (bool, error)
	// RecordSent inserts the record, reporting false without error when the
	// key already exists.
	RecordSent(ctx context.Context, key SendKey) (bool, error)
	// FindSentInWindow lists records for (templateKey, step) created within
	// [start, end); used by previous-step-sent anchors.
	FindSentInWindow(ctx context.Context, templateKey string, step int, start, end time.Time) ([]SendRecord, error)
}

// StepResult accumulates one step's outcome counts. Safe for concurrent
// candidate fan-out within a run.
type StepResult struct {
	mu      sync.Mutex
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func NewStepResult() *StepResult {
	return &StepResult{Errors: make([]string, 0)}
}

func (r *StepResult) AddSent() {
	r.mu.Lock()
	r.Sent++
	r.mu.Unlock()
}

func (r *StepResult) AddSkipped() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

func (r *StepResult) AddError(msg string) {
	r.mu.Lock()
	r.Errors = append(r.Errors, msg)
	r.mu.Unlock()
}

// Snapshot returns a copy safe to serialize after the run finished.
func (r *StepResult) Snapshot() StepSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]string, len(r.Errors))
	copy(errs, r.Errors)
	return StepSummary{Sent: r.Sent, Skipped: r.Skipped, Errors: errs}
}

// StepSummary is the immutable, serializable form of a StepResult.
type StepSummary struct {
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// RunResult summarizes one job invocation. Ephemeral: constructed fresh
// per run and never persisted here.
type RunResult struct {
	Campaign  string
	RunID     string
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration

	steps map[int]*StepResult
	order []int
}

func NewRunResult(campaign, runID string, dryRun bool, startedAt time.Time) *RunResult {
	return &RunResult{
		Campaign:  campaign,
		RunID:     runID,
		DryRun:    dryRun,
		StartedAt: startedAt,
		steps:     make(map[int]*StepResult),
	}
}

// Step returns the aggregator for a step, creating it on first use.
func (r *RunResult) Step(n int) *StepResult {
	if res, ok := r.steps[n]; ok {
		return res
	}
	res := NewStepResult()
	r.steps[n] = res
	r.order = append(r.order, n)
	return res
}

// StepSummaries returns per-step summaries in execution order.
func (r *RunResult) StepSummaries() map[int]StepSummary {
	out := make(map[int]StepSummary, len(r.steps))
	for n, res := range r.steps {
		out[n] = res.Snapshot()
	}
	return out
}

// Totals flattens all steps into a single summary.
func (r *RunResult) Totals() StepSummary {
	total := StepSummary{Errors: make([]string, 0)}
	for _, n := range r.order {
		s := r.steps[n].Snapshot()
		total.Sent += s.Sent
		total.Skipped += s.Skipped
		total.Errors = append(total.Errors, s.Errors...)
	}
	return total
}

// Runner executes a campaign once. Implemented by the engine; consumed by
// the HTTP trigger and the internal scheduler.
type Runner interface {
	Run(ctx context.Context, def Definition, dryRun bool) (*RunResult, error)
}
