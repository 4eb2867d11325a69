// Package domain holds the customer read model. Customers are owned by the
// account subsystem; this service only reads identity and consent.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrNotFound = errors.New("customer_not_found")

// Customer mirrors the account subsystem's customer row. MarketingConsent
// is mutable by the customer at any time and must be read fresh at send
// time, never cached across runs.
type Customer struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"type:text;not null" json:"name"`
	Email            string       `gorm:"type:text;not null" json:"email"`
	MarketingConsent bool         `gorm:"not null;default:false" json:"marketing_consent"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (Customer) TableName() string { return "customers" }

// Repository reads customers from the canonical store.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Customer, error)
}
