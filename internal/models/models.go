package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxQuantity bounds a single line. The carts check constraint enforces it.
const MaxQuantity = 1_000_000_000

// CartLine is one user's held quantity of one product. At most one line
// exists per (UserID, ProductID).
type CartLine struct {
	ID        string    `gorm:"primaryKey;size:36"                      json:"id"`
	UserID    string    `gorm:"not null;size:255;index:idx_carts_user"  json:"userId"`
	ProductID string    `gorm:"not null;size:255"                       json:"productId"`
	Quantity  int64     `gorm:"not null;check:quantity > 0 AND quantity <= 1000000000" json:"quantity"`
	UpdatedAt time.Time `gorm:"not null"                                json:"updatedAt"`
}

func (c *CartLine) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (CartLine) TableName() string {
	return "carts"
}

type Product struct {
	ID         string          `gorm:"primaryKey;size:64"           json:"id"`
	Name       string          `gorm:"not null"                     json:"name"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	DiscountID *string         `gorm:"size:64"                      json:"discountId,omitempty"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Discount struct {
	ID          string          `gorm:"primaryKey;size:64"           json:"id"`
	Description string          `json:"description"`
	Type        string          `gorm:"size:32;not null"             json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"amount"`
}

// CartItemView is a cart line joined with its product. Name and Price are
// empty when the product row is missing.
type CartItemView struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	Quantity  int64               `json:"quantity"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Name      *string             `json:"name"`
	Price     decimal.NullDecimal `json:"price"`
	LineTotal decimal.NullDecimal `gorm:"-" json:"lineTotal"`
}
