package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStepWindowBounds(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	step := StepDefinition{Step: 1, MinDays: 7, MaxDays: 10, TemplateKey: "t", Anchor: AnchorOrderCompleted}

	start, end := StepWindow(now, step)
	if !start.Equal(date(2024, 3, 5)) {
		t.Fatalf("expected window start 2024-03-05, got %s", start)
	}
	// End is exclusive: the whole of 2024-03-08 (7 days ago) is included.
	if !end.Equal(date(2024, 3, 9)) {
		t.Fatalf("expected window end 2024-03-09, got %s", end)
	}

	inside := date(2024, 3, 6)  // 9 days ago
	tooNew := date(2024, 3, 9)  // 6 days ago
	tooOld := date(2024, 3, 4)  // 11 days ago
	if inside.Before(start) || !inside.Before(end) {
		t.Fatalf("expected 2024-03-06 inside window")
	}
	if tooNew.Before(end) {
		t.Fatalf("expected 2024-03-09 outside window")
	}
	if !tooOld.Before(start) {
		t.Fatalf("expected 2024-03-04 outside window")
	}
}

func TestStepWindowIgnoresTimeOfDay(t *testing.T) {
	step := StepDefinition{Step: 1, MinDays: 7, MaxDays: 10, TemplateKey: "t", Anchor: AnchorOrderCompleted}

	early, earlyEnd := StepWindow(time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC), step)
	late, lateEnd := StepWindow(time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC), step)
	if !early.Equal(late) || !earlyEnd.Equal(lateEnd) {
		t.Fatalf("expected identical windows regardless of time of day")
	}
}

func TestDefinitionValidate(t *testing.T) {
	valid := Definition{
		Key: "c",
		Steps: []StepDefinition{
			{Step: 1, MinDays: 1, MaxDays: 2, TemplateKey: "a", Anchor: AnchorOrderCompleted},
			{Step: 2, MinDays: 3, MaxDays: 4, TemplateKey: "b", Anchor: AnchorPreviousStepSent},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}

	cases := map[string]Definition{
		"empty key":       {Steps: []StepDefinition{{Step: 1, MaxDays: 1, TemplateKey: "a", Anchor: AnchorOrderCompleted}}},
		"no steps":        {Key: "c"},
		"gap in steps":    {Key: "c", Steps: []StepDefinition{{Step: 2, MaxDays: 1, TemplateKey: "a", Anchor: AnchorOrderCompleted}}},
		"inverted window": {Key: "c", Steps: []StepDefinition{{Step: 1, MinDays: 5, MaxDays: 2, TemplateKey: "a", Anchor: AnchorOrderCompleted}}},
		"missing template": {Key: "c", Steps: []StepDefinition{
			{Step: 1, MinDays: 1, MaxDays: 2, Anchor: AnchorOrderCompleted}}},
		"step 1 prev anchor": {Key: "c", Steps: []StepDefinition{
			{Step: 1, MinDays: 1, MaxDays: 2, TemplateKey: "a", Anchor: AnchorPreviousStepSent}}},
	}
	for name, def := range cases {
		if err := def.Validate(); err == nil {
			t.Fatalf("expected %s to fail validation", name)
		}
	}
}

func TestShippedCampaignsAreValid(t *testing.T) {
	registry, err := NewRegistry(ShippedCampaigns()...)
	if err != nil {
		t.Fatalf("shipped campaigns must validate: %v", err)
	}
	if _, err := registry.Find(CampaignReviewRequest); err != nil {
		t.Fatalf("expected review_request registered: %v", err)
	}
	winback, err := registry.Find(CampaignWinback)
	if err != nil {
		t.Fatalf("expected winback registered: %v", err)
	}
	if !winback.MultiStep() {
		t.Fatalf("expected winback to be multi-step")
	}
	if _, err := registry.Find("nope"); err != ErrUnknownCampaign {
		t.Fatalf("expected ErrUnknownCampaign, got %v", err)
	}
}

func TestReportShape(t *testing.T) {
	now := time.Now().UTC()

	single := NewRunResult("review_request", "run-1", false, now)
	single.Step(1).AddSent()
	single.Step(1).AddSkipped()
	report := single.Report()
	summary, ok := report.Results.(StepSummary)
	if !ok {
		t.Fatalf("expected flattened results for single-step run, got %T", report.Results)
	}
	if summary.Sent != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !report.Success {
		t.Fatalf("expected success report")
	}

	multi := NewRunResult("winback", "run-2", true, now)
	multi.Step(1).AddSent()
	multi.Step(2).AddError("order 5 step 2: boom")
	nested, ok := multi.Report().Results.(map[string]StepSummary)
	if !ok {
		t.Fatalf("expected nested results for multi-step run")
	}
	if nested["step1"].Sent != 1 {
		t.Fatalf("expected step1 sent=1, got %+v", nested["step1"])
	}
	if len(nested["step2"].Errors) != 1 {
		t.Fatalf("expected step2 error recorded, got %+v", nested["step2"])
	}
	if len(multi.Report().ErrorDetails) != 1 {
		t.Fatalf("expected error details surfaced")
	}
}

func TestRunResultTotals(t *testing.T) {
	result := NewRunResult("winback", "run-3", false, time.Now().UTC())
	result.Step(1).AddSent()
	result.Step(1).AddSent()
	result.Step(2).AddSkipped()
	result.Step(2).AddError("order 9 step 2: send failed")

	totals := result.Totals()
	if totals.Sent != 2 || totals.Skipped != 1 || len(totals.Errors) != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
