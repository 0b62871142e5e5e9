package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Order("id ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListDiscounts(ctx context.Context, limit int) ([]models.Discount, error) {
	items := make([]models.Discount, 0, limit)
	if err := r.DB.WithContext(ctx).Order("id ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
