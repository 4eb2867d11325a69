package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/retainly/internal/customer/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) customerdomain.Repository {
	return &Repository{db: db}
}

// FindByID reads the customer row canonically. Callers rely on this being
// uncached so a consent revocation is honored on the very next check.
func (r *Repository) FindByID(ctx context.Context, id snowflake.ID) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerdomain.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}
