// Package service runs campaigns: per-step candidate selection, consent
// and idempotency pruning, and the dry-run/live send branch.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"github.com/smallbiznis/retainly/internal/clock"
	"github.com/smallbiznis/retainly/internal/config"
	customerdomain "github.com/smallbiznis/retainly/internal/customer/domain"
	"github.com/smallbiznis/retainly/internal/mailer"
	obscontext "github.com/smallbiznis/retainly/internal/observability/context"
	"github.com/smallbiznis/retainly/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/retainly/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	outcomeSent    = "sent"
	outcomeSkipped = "skipped"
	outcomeError   = "error"
)

type Engine struct {
	log         *zap.Logger
	clock       clock.Clock
	orders      orderdomain.Repository
	customers   customerdomain.Repository
	sendLog     campaigndomain.SendLog
	sender      mailer.Sender
	metrics     *metrics.CampaignMetrics
	concurrency int
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Orders    orderdomain.Repository
	Customers customerdomain.Repository
	SendLog   campaigndomain.SendLog
	Sender    mailer.Sender
	Config    config.Config
}

func NewEngine(p Params) campaigndomain.Runner {
	return &Engine{
		log:         p.Log.Named("campaign.engine"),
		clock:       p.Clock,
		orders:      p.Orders,
		customers:   p.Customers,
		sendLog:     p.SendLog,
		sender:      p.Sender,
		metrics:     metrics.Campaign(),
		concurrency: p.Config.Engine.Concurrency,
	}
}

// Run executes every step of the campaign in ascending order. Candidate
// failures are collected, never propagated; only a failed candidate fetch
// aborts the run. A cancelled context stops scheduling new candidates and
// leaves the remainder for the next run; nothing is partially committed
// per candidate.
func (e *Engine) Run(ctx context.Context, def campaigndomain.Definition, dryRun bool) (*campaigndomain.RunResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	started := e.clock.Now()
	result := campaigndomain.NewRunResult(def.Key, uuid.NewString(), dryRun, started)
	ctx = obscontext.WithRunID(ctx, result.RunID)
	log := e.log.With(
		zap.String("campaign", def.Key),
		zap.String("run_id", result.RunID),
		zap.Bool("dry_run", dryRun),
	)

	var runErr error
	for _, step := range def.SortedSteps() {
		stepResult := result.Step(step.Step)

		candidates, err := e.selectCandidates(ctx, def, step, started)
		if err != nil {
			runErr = fmt.Errorf("campaign %s step %d: select candidates: %w", def.Key, step.Step, err)
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)
		for _, candidate := range candidates {
			candidate := candidate
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				e.processCandidate(gctx, def, step, candidate, dryRun, stepResult)
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
	}

	result.Duration = e.clock.Now().Sub(started)
	e.metrics.ObserveRun(def.Key, dryRun, result.Duration, runErr)

	if runErr != nil {
		log.Warn("campaign run failed", zap.Error(runErr))
		return result, runErr
	}
	totals := result.Totals()
	log.Info("campaign run finished",
		zap.Int("sent", totals.Sent),
		zap.Int("skipped", totals.Skipped),
		zap.Int("errors", len(totals.Errors)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// selectCandidates fetches the orders whose anchor event falls inside the
// step's window.
func (e *Engine) selectCandidates(ctx context.Context, def campaigndomain.Definition, step campaigndomain.StepDefinition, now time.Time) ([]orderdomain.Order, error) {
	start, end := campaigndomain.StepWindow(now, step)

	switch step.Anchor {
	case campaigndomain.AnchorOrderCompleted:
		return e.orders.FindCompletedInWindow(ctx, start, end)

	case campaigndomain.AnchorPreviousStepSent:
		prev, err := previousStep(def, step)
		if err != nil {
			return nil, err
		}
		records, err := e.sendLog.FindSentInWindow(ctx, prev.TemplateKey, prev.Step, start, end)
		if err != nil {
			return nil, err
		}
		ids := make([]snowflake.ID, 0, len(records))
		for _, record := range records {
			ids = append(ids, record.RelatedID)
		}
		return e.orders.FindByIDs(ctx, ids)

	default:
		return nil, fmt.Errorf("campaign %s step %d: unsupported anchor %q", def.Key, step.Step, step.Anchor)
	}
}

func previousStep(def campaigndomain.Definition, step campaigndomain.StepDefinition) (campaigndomain.StepDefinition, error) {
	for _, candidate := range def.Steps {
		if candidate.Step == step.Step-1 {
			return candidate, nil
		}
	}
	return campaigndomain.StepDefinition{}, fmt.Errorf("campaign %s step %d: missing previous step", def.Key, step.Step)
}

// processCandidate walks one order through the gate sequence. Every check
// happens fresh: consent is re-read immediately before the send attempt so
// a revocation between selection and send is still honored.
func (e *Engine) processCandidate(
	ctx context.Context,
	def campaigndomain.Definition,
	step campaigndomain.StepDefinition,
	order orderdomain.Order,
	dryRun bool,
	result *campaigndomain.StepResult,
) {
	skip := func() {
		result.AddSkipped()
		e.metrics.ObserveCandidate(def.Key, step.Step, outcomeSkipped)
	}
	fail := func(err error) {
		result.AddError(fmt.Sprintf("order %s step %d: %v", order.ID, step.Step, err))
		e.metrics.ObserveCandidate(def.Key, step.Step, outcomeError)
	}

	// Nothing to reference in the message.
	if len(order.Items) == 0 {
		skip()
		return
	}
	// Guest checkout: no customer record to read consent from.
	if order.CustomerID == nil || *order.CustomerID == 0 {
		skip()
		return
	}

	customer, err := e.customers.FindByID(ctx, *order.CustomerID)
	if err != nil {
		if err == customerdomain.ErrNotFound {
			skip()
			return
		}
		fail(fmt.Errorf("read customer: %w", err))
		return
	}
	if !customer.MarketingConsent {
		skip()
		return
	}

	key := campaigndomain.SendKey{
		CustomerID:  customer.ID,
		TemplateKey: step.TemplateKey,
		Step:        step.Step,
		RelatedID:   order.ID,
	}
	already, err := e.sendLog.AlreadySent(ctx, key)
	if err != nil {
		fail(fmt.Errorf("check send log: %w", err))
		return
	}
	if already {
		skip()
		return
	}

	if dryRun {
		// Every check ran; counting as sent previews the live volume
		// without touching the boundary or the send log.
		result.AddSent()
		e.metrics.ObserveCandidate(def.Key, step.Step, outcomeSent)
		return
	}

	msg := mailer.Message{
		TemplateKey: step.TemplateKey,
		CustomerID:  customer.ID,
		Recipient:   order.Email,
		Data:        templateData(order, customer),
	}
	if err := e.sender.Send(ctx, msg); err != nil {
		// No record is written, so the candidate stays eligible next run.
		fail(err)
		return
	}

	inserted, err := e.sendLog.RecordSent(ctx, key)
	if err != nil {
		// The message went out but the marker write failed: the one
		// accepted inconsistency window. The next run may send again.
		e.log.Error("send record write failed after successful send",
			zap.String("campaign", def.Key),
			zap.Int("step", step.Step),
			zap.String("order_id", order.ID.String()),
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	} else if !inserted {
		// A concurrent invocation recorded first; this send still reached
		// the customer, so it counts.
		e.log.Warn("concurrent run recorded this key first",
			zap.String("campaign", def.Key),
			zap.Int("step", step.Step),
			zap.String("order_id", order.ID.String()),
		)
	}
	result.AddSent()
	e.metrics.ObserveCandidate(def.Key, step.Step, outcomeSent)
}

// templateData builds the opaque payload handed to the send boundary. The
// first line item headlines the message.
func templateData(order orderdomain.Order, customer *customerdomain.Customer) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"name":      item.Name,
			"image_url": item.ImageURL,
		})
	}
	return map[string]any{
		"customer_name":    customer.Name,
		"order_id":         order.ID.String(),
		"first_item_name":  order.Items[0].Name,
		"first_item_image": order.Items[0].ImageURL,
		"items":            items,
	}
}
