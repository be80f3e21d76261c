package product

import (
	"context"

	"miniapp-shop/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context, limit int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// Writer is implemented by repositories that can persist products.
type Writer interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
