package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/retainly/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrInvalidAnonymousID = errors.New("invalid_anonymous_id")
	ErrInvalidCustomerID  = errors.New("invalid_customer_id")
)

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  eventdomain.Repository
}

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  eventdomain.Repository
}

func New(p Params) *Service {
	return &Service{
		log:   p.Log.Named("event.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// TrackInput is the boundary shape for client-side tracking calls.
type TrackInput struct {
	AnonymousID string
	CustomerID  snowflake.ID
	Type        string
	OccurredAt  time.Time
	Properties  map[string]any
}

// Track appends a behavioral event best-effort. Tracking is fire-and-forget:
// validation and store failures are logged and swallowed so they can never
// surface to the storefront user.
func (s *Service) Track(ctx context.Context, in TrackInput) {
	event := eventdomain.Event{
		ID:         s.genID.Generate(),
		Type:       strings.TrimSpace(in.Type),
		OccurredAt: in.OccurredAt,
		Properties: datatypes.JSONMap(in.Properties),
	}
	if anon := strings.TrimSpace(in.AnonymousID); anon != "" {
		event.AnonymousID = &anon
	}
	if in.CustomerID != 0 {
		id := in.CustomerID
		event.CustomerID = &id
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if err := event.Validate(); err != nil {
		s.log.Debug("dropping invalid tracking event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return
	}
	if err := s.repo.Append(ctx, event); err != nil {
		s.log.Warn("failed to append tracking event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}

// LinkEvents merges an anonymous visitor's history onto an authenticated
// customer at login/signup. Safe to call repeatedly: only events with no
// customer attribution are re-pointed, so a second identical call returns 0.
// Zero is also the normal outcome for a first-time signup with no prior
// tracked activity.
func (s *Service) LinkEvents(ctx context.Context, anonymousID string, customerID snowflake.ID) (int64, error) {
	anonymousID = strings.TrimSpace(anonymousID)
	if anonymousID == "" {
		return 0, ErrInvalidAnonymousID
	}
	if customerID == 0 {
		return 0, ErrInvalidCustomerID
	}

	linked, err := s.repo.LinkAnonymous(ctx, anonymousID, customerID)
	if err != nil {
		return 0, err
	}
	if linked > 0 {
		s.log.Info("linked anonymous events",
			zap.String("anonymous_id", anonymousID),
			zap.String("customer_id", customerID.String()),
			zap.Int64("count", linked),
		)
	}
	return linked, nil
}
