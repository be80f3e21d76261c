package favorite

import (
	"context"

	"miniapp-shop/internal/domain"
)

type favoriteRepo interface {
	Toggle(ctx context.Context, shopperID string, productID int64) (bool, error)
	List(ctx context.Context, shopperID string) ([]domain.Product, error)
	ProductIDs(ctx context.Context, shopperID string) (map[int64]bool, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo     favoriteRepo
	products productRepo
}

func New(repo favoriteRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Toggle reports whether the product is a favorite after the call.
func (s *Service) Toggle(ctx context.Context, shopperID string, productID int64) (bool, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return false, err
	}
	return s.repo.Toggle(ctx, shopperID, productID)
}

func (s *Service) Products(ctx context.Context, shopperID string) ([]domain.Product, error) {
	return s.repo.List(ctx, shopperID)
}

func (s *Service) Marked(ctx context.Context, shopperID string) (map[int64]bool, error) {
	return s.repo.ProductIDs(ctx, shopperID)
}
