package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
)

const cartUniqueIndex = "idx_carts_user_product"

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&models.Product{}, &models.Discount{}, &models.CartLine{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureCartUniqueness adds the (user_id, product_id) unique index that
// UpsertCartLine relies on. It fails while duplicate lines exist.
func (r *GormRepo) EnsureCartUniqueness(ctx context.Context) error {
	q := "CREATE UNIQUE INDEX IF NOT EXISTS " + cartUniqueIndex + " ON carts (user_id, product_id)"
	if err := r.DB.WithContext(ctx).Exec(q).Error; err != nil {
		return fmt.Errorf("create %s: %w", cartUniqueIndex, err)
	}
	return nil
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
