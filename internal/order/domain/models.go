// Package domain holds the order read model. Orders are immutable once
// created and read-only to this service.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// StatusCompleted is the only status eligible for campaigns.
const StatusCompleted = "completed"

// Order represents a completed purchase. CustomerID is nil for guest
// checkouts, which are excluded from campaigns that need a consent lookup.
type Order struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID *snowflake.ID `gorm:"" json:"customer_id"`
	Email      string        `gorm:"type:text;not null" json:"email"`
	Status     string        `gorm:"type:text;not null" json:"status"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is a purchased line item referenced in campaign messages.
type OrderItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID `gorm:"not null" json:"order_id"`
	ProductID snowflake.ID `gorm:"" json:"product_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	ImageURL  string       `gorm:"type:text" json:"image_url"`
}

func (OrderItem) TableName() string { return "order_items" }

// Repository queries orders from the canonical store.
type Repository interface {
	// FindCompletedInWindow returns completed orders with a non-empty email
	// whose creation time falls within [start, end). An empty result is not
	// an error.
	FindCompletedInWindow(ctx context.Context, start, end time.Time) ([]Order, error)
	FindByIDs(ctx context.Context, ids []snowflake.ID) ([]Order, error)
}
