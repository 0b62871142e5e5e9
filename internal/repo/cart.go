package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateLines = errors.New("more than one cart line for user and product")

const upsertCartLineSQL = `INSERT INTO carts (id, user_id, product_id, quantity, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = carts.quantity + excluded.quantity, updated_at = excluded.updated_at`

// UpsertCartLine inserts the line or adds delta to the existing one in a
// single statement. Requires the unique index from EnsureCartUniqueness.
func (r *GormRepo) UpsertCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error) {
	var line models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(upsertCartLineSQL, uuid.NewString(), userID, productID, delta, at).Error; err != nil {
			return err
		}
		// the row lock taken by the upsert is held until commit
		return tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&line).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &line, nil
}

// AccumulateCartLine is the read-modify-write form of UpsertCartLine for
// stores without the unique index. Callers serialize it per pair.
func (r *GormRepo) AccumulateCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error) {
	var line models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.CartLine
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Limit(2).
			Find(&existing).Error; err != nil {
			return err
		}

		switch len(existing) {
		case 0:
			line = models.CartLine{
				UserID:    userID,
				ProductID: productID,
				Quantity:  delta,
				UpdatedAt: at,
			}
			return tx.Create(&line).Error
		case 1:
			line = existing[0]
			if line.Quantity > models.MaxQuantity-delta {
				return fmt.Errorf("%w: %d + %d exceeds %d", ErrQuantityOutOfRange, line.Quantity, delta, models.MaxQuantity)
			}
			res := tx.Model(&models.CartLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]any{
					"quantity":   gorm.Expr("quantity + ?", delta),
					"updated_at": at,
				})
			if res.Error != nil {
				return res.Error
			}
			return tx.Where("id = ?", line.ID).First(&line).Error
		default:
			return fmt.Errorf("%w: user %q product %q", ErrDuplicateLines, userID, productID)
		}
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &line, nil
}

// FindCartLines returns at most two lines so callers can tell a unique line
// from a duplicated pair.
func (r *GormRepo) FindCartLines(ctx context.Context, userID, productID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("id ASC").
		Limit(2).
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) ListCartItems(ctx context.Context, userID string) ([]models.CartItemView, error) {
	items := make([]models.CartItemView, 0)
	if err := r.DB.WithContext(ctx).
		Table("carts").
		Select("carts.id, carts.product_id, carts.quantity, carts.updated_at, products.name, products.price").
		Joins("LEFT JOIN products ON products.id = carts.product_id").
		Where("carts.user_id = ?", userID).
		Order("carts.updated_at DESC, carts.id ASC").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
