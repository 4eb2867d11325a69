// Package seed populates demo data for local development: a handful of
// customers and orders aged so the shipped campaigns have candidates on
// the first run.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/retainly/internal/customer/domain"
	eventdomain "github.com/smallbiznis/retainly/internal/event/domain"
	orderdomain "github.com/smallbiznis/retainly/internal/order/domain"
	"gorm.io/gorm"
)

const demoMarker = "demo-seed"

type demoCustomer struct {
	name     string
	email    string
	consent  bool
	orderAge int
	items    []string
}

// demoCustomers cover the interesting engine paths: review-request and
// win-back windows, a revoked consent, and an order too fresh to match.
var demoCustomers = []demoCustomer{
	{name: "Ava Stone", email: "ava@demo.retainly.dev", consent: true, orderAge: 9, items: []string{"Desk Lamp", "Notebook"}},
	{name: "Ben Ortiz", email: "ben@demo.retainly.dev", consent: true, orderAge: 35, items: []string{"Espresso Cup"}},
	{name: "Cleo Park", email: "cleo@demo.retainly.dev", consent: true, orderAge: 66, items: []string{"Wool Blanket"}},
	{name: "Dan Reyes", email: "dan@demo.retainly.dev", consent: false, orderAge: 10, items: []string{"Ceramic Vase"}},
	{name: "Eve Lund", email: "eve@demo.retainly.dev", consent: true, orderAge: 2, items: []string{"Tea Kettle"}},
}

// EnsureDemoData inserts the demo dataset once. Re-running against an
// already seeded database is a no-op keyed off the marker event.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seeded int64
		err := tx.WithContext(ctx).
			Table("behavioral_events").
			Where("anonymous_id = ?", demoMarker).
			Count(&seeded).Error
		if err != nil {
			return err
		}
		if seeded > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, demo := range demoCustomers {
			customer := customerdomain.Customer{
				ID:               node.Generate(),
				Name:             demo.name,
				Email:            demo.email,
				MarketingConsent: demo.consent,
				CreatedAt:        now.AddDate(0, 0, -demo.orderAge-1),
				UpdatedAt:        now,
			}
			if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
				return err
			}

			customerID := customer.ID
			order := orderdomain.Order{
				ID:         node.Generate(),
				CustomerID: &customerID,
				Email:      demo.email,
				Status:     orderdomain.StatusCompleted,
				CreatedAt:  now.AddDate(0, 0, -demo.orderAge),
				UpdatedAt:  now,
			}
			if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
				return err
			}
			for _, name := range demo.items {
				item := orderdomain.OrderItem{
					ID:       node.Generate(),
					OrderID:  order.ID,
					Name:     name,
					ImageURL: "https://cdn.demo.retainly.dev/" + order.ID.String(),
				}
				if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
					return err
				}
			}

			event := eventdomain.Event{
				ID:         node.Generate(),
				CustomerID: &customerID,
				Type:       eventdomain.TypeOrderPlaced,
				OccurredAt: order.CreatedAt,
			}
			if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
				return err
			}
		}

		marker := demoMarker
		markerEvent := eventdomain.Event{
			ID:          node.Generate(),
			AnonymousID: &marker,
			Type:        eventdomain.TypePageViewed,
			OccurredAt:  now,
		}
		return tx.WithContext(ctx).Create(&markerEvent).Error
	})
}
