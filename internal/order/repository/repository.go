package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/retainly/internal/order/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) orderdomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) FindCompletedInWindow(ctx context.Context, start, end time.Time) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", orderdomain.StatusCompleted).
		Where("email <> ''").
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []snowflake.ID) ([]orderdomain.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orders []orderdomain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
