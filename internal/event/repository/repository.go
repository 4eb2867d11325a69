package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/retainly/internal/event/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) eventdomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, event eventdomain.Event) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

// LinkAnonymous is a single UPDATE so a concurrent second call observes
// zero matching rows rather than re-pointing twice.
func (r *Repository) LinkAnonymous(ctx context.Context, anonymousID string, customerID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE behavioral_events
		 SET customer_id = ?, anonymous_id = NULL
		 WHERE anonymous_id = ? AND customer_id IS NULL`,
		customerID,
		anonymousID,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *Repository) CountByCustomer(ctx context.Context, customerID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&eventdomain.Event{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
