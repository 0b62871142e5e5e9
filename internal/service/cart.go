package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/keylock"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MaxIDLength = 255

	EventCartLineUpserted = "cart_line_upserted"
	publishTimeout        = 5 * time.Second
)

type CartRepository interface {
	UpsertCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error)
	AccumulateCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error)
	FindCartLines(ctx context.Context, userID, productID string) ([]models.CartLine, error)
	ListCartItems(ctx context.Context, userID string) ([]models.CartItemView, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type CartLineUpserted struct {
	Type      string    `json:"type"`
	LineID    string    `json:"lineId"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Delta     int64     `json:"delta"`
	Quantity  int64     `json:"quantity"`
	At        time.Time `json:"at"`
}

// CartService owns the one-line-per-(user, product) invariant. With Atomic
// set it relies on the store's unique index; otherwise every read-modify-write
// for a pair runs under Locker.
type CartService struct {
	Repo      CartRepository
	Locker    keylock.Locker
	Atomic    bool
	Publisher EventPublisher
	Topic     string
	Now       func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateID(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("%s is required", name)
	}
	if utf8.RuneCountInString(v) > MaxIDLength {
		return invalid("%s must be at most %d characters", name, MaxIDLength)
	}
	return nil
}

func validatePair(userID, productID string) error {
	if err := validateID("userId", userID); err != nil {
		return err
	}
	return validateID("productId", productID)
}

// Upsert adds delta to the user's line for productID, creating the line
// when none exists.
func (s *CartService) Upsert(ctx context.Context, userID, productID string, delta int64) (*models.CartLine, error) {
	if err := validatePair(userID, productID); err != nil {
		return nil, err
	}
	if delta < 1 {
		return nil, invalid("quantity must be a positive integer, got %d", delta)
	}
	if delta > models.MaxQuantity {
		return nil, invalid("quantity must be at most %d, got %d", models.MaxQuantity, delta)
	}

	var (
		line *models.CartLine
		err  error
	)
	if s.Atomic {
		line, err = s.Repo.UpsertCartLine(ctx, userID, productID, delta, s.now())
	} else {
		line, err = s.lockedUpsert(ctx, userID, productID, delta)
	}
	if err != nil {
		return nil, classify("upsert cart line", err)
	}

	s.publish(ctx, line, delta)
	return line, nil
}

func (s *CartService) lockedUpsert(ctx context.Context, userID, productID string, delta int64) (*models.CartLine, error) {
	if s.Locker == nil {
		return nil, errors.New("cart service: locked mode without a locker")
	}
	unlock, err := s.Locker.Lock(ctx, lockKey(userID, productID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.Repo.AccumulateCartLine(ctx, userID, productID, delta, s.now())
}

// lockKey is length-prefixed so that ids containing ':' cannot collide.
func lockKey(userID, productID string) string {
	return fmt.Sprintf("cart:%d:%s:%s", len(userID), userID, productID)
}

func (s *CartService) publish(ctx context.Context, line *models.CartLine, delta int64) {
	if s.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := CartLineUpserted{
		Type:      EventCartLineUpserted,
		LineID:    line.ID,
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Delta:     delta,
		Quantity:  line.Quantity,
		At:        line.UpdatedAt,
	}
	if err := s.Publisher.PublishEvent(pubCtx, s.Topic, line.UserID, event); err != nil {
		logging.FromContext(ctx).Warn("cart_event_publish_failed", "topic", s.Topic, "line_id", line.ID, "error", err)
	}
}

func (s *CartService) GetCartLine(ctx context.Context, userID, productID string) (*models.CartLine, error) {
	if err := validatePair(userID, productID); err != nil {
		return nil, err
	}

	lines, err := s.Repo.FindCartLines(ctx, userID, productID)
	if err != nil {
		return nil, classify("find cart line", err)
	}
	switch len(lines) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &lines[0], nil
	default:
		return nil, fmt.Errorf("find cart line: %w: user %q product %q has more than one line", ErrDataIntegrity, userID, productID)
	}
}

// ListCart returns the user's lines with product name, price and line total.
// Lines whose product no longer exists keep null name, price and total.
func (s *CartService) ListCart(ctx context.Context, userID string) ([]models.CartItemView, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}

	items, err := s.Repo.ListCartItems(ctx, userID)
	if err != nil {
		return nil, classify("list cart", err)
	}
	for i := range items {
		if items[i].Price.Valid {
			total := items[i].Price.Decimal.Mul(decimal.NewFromInt(items[i].Quantity))
			items[i].LineTotal = decimal.NewNullDecimal(total)
		}
	}
	return items, nil
}
