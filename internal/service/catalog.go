package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	DefaultProductLimit  = 10
	DefaultDiscountLimit = 1
	MaxLimit             = 100
)

type CatalogRepository interface {
	ListProducts(ctx context.Context, limit int) ([]models.Product, error)
	ListDiscounts(ctx context.Context, limit int) ([]models.Discount, error)
}

type CatalogService struct {
	Repo CatalogRepository
}

func checkLimit(limit int) (int, error) {
	if limit < 1 {
		return 0, invalid("limit must be a positive integer, got %d", limit)
	}
	return min(limit, MaxLimit), nil
}

func (s *CatalogService) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	limit, err := checkLimit(limit)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListProducts(ctx, limit)
	if err != nil {
		return nil, classify("list products", err)
	}
	return items, nil
}

func (s *CatalogService) ListDiscounts(ctx context.Context, limit int) ([]models.Discount, error) {
	limit, err := checkLimit(limit)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListDiscounts(ctx, limit)
	if err != nil {
		return nil, classify("list discounts", err)
	}
	return items, nil
}
