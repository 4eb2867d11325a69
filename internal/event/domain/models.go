// Package domain contains the append-only behavioral event model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event types form a closed enumeration; segmentation rules match on these
// values, so free-form types are rejected at the boundary.
const (
	TypeProductViewed     = "product_viewed"
	TypeCartItemAdded     = "cart_item_added"
	TypeCartItemRemoved   = "cart_item_removed"
	TypeCheckoutStarted   = "checkout_started"
	TypeCheckoutCompleted = "checkout_completed"
	TypeOrderPlaced       = "order_placed"
	TypeEmailOpened       = "email_opened"
	TypeEmailClicked      = "email_clicked"
	TypePageViewed        = "page_viewed"
	TypeSignedUp          = "signed_up"
)

var knownTypes = map[string]struct{}{
	TypeProductViewed:     {},
	TypeCartItemAdded:     {},
	TypeCartItemRemoved:   {},
	TypeCheckoutStarted:   {},
	TypeCheckoutCompleted: {},
	TypeOrderPlaced:       {},
	TypeEmailOpened:       {},
	TypeEmailClicked:      {},
	TypePageViewed:        {},
	TypeSignedUp:          {},
}

var (
	ErrUnknownType     = errors.New("unknown_event_type")
	ErrMissingSubject  = errors.New("missing_event_subject")
	ErrConflictSubject = errors.New("conflicting_event_subject")
	ErrInvalidProperty = errors.New("invalid_event_property")
)

// Event is a single unit of tracked behavior, attributed to exactly one of
// an anonymous visitor or an authenticated customer. Rows are never updated
// except when identity linking re-points the subject.
type Event struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	AnonymousID *string           `gorm:"type:text" json:"anonymous_id,omitempty"`
	CustomerID  *snowflake.ID     `gorm:"" json:"customer_id,omitempty"`
	Type        string            `gorm:"column:event_type;type:text;not null" json:"type"`
	OccurredAt  time.Time         `gorm:"not null" json:"occurred_at"`
	Properties  datatypes.JSONMap `gorm:"type:jsonb" json:"properties"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (Event) TableName() string { return "behavioral_events" }

// Validate enforces the closed type set, the single-subject rule, and the
// scalar-only property bag.
func (e Event) Validate() error {
	if _, ok := knownTypes[e.Type]; !ok {
		return ErrUnknownType
	}
	hasAnon := e.AnonymousID != nil && *e.AnonymousID != ""
	hasCustomer := e.CustomerID != nil && *e.CustomerID != 0
	if !hasAnon && !hasCustomer {
		return ErrMissingSubject
	}
	if hasAnon && hasCustomer {
		return ErrConflictSubject
	}
	return ValidateProperties(e.Properties)
}

// ValidateProperties restricts the property bag to scalar values so
// segmentation logic stays statically checkable. JSON numbers arrive as
// float64; json.Number is accepted for callers that decode with UseNumber.
func ValidateProperties(props map[string]any) error {
	for key, value := range props {
		if key == "" {
			return ErrInvalidProperty
		}
		switch value.(type) {
		case string, bool,
			int, int32, int64, float32, float64:
		default:
			return ErrInvalidProperty
		}
	}
	return nil
}

// Repository is the append-only event store.
type Repository interface {
	Append(ctx context.Context, event Event) error
	// LinkAnonymous re-points every event attributed to anonymousID onto
	// customerID, touching only rows with no existing customer attribution.
	// Returns the number of events re-pointed.
	LinkAnonymous(ctx context.Context, anonymousID string, customerID snowflake.ID) (int64, error)
	CountByCustomer(ctx context.Context, customerID snowflake.ID) (int64, error)
}
