package favorite

import (
	"context"

	"miniapp-shop/internal/domain"
)

type Repository interface {
	// Toggle flips the favorite mark and reports whether the product is now a favorite.
	Toggle(ctx context.Context, shopperID string, productID int64) (bool, error)
	List(ctx context.Context, shopperID string) ([]domain.Product, error)
	ProductIDs(ctx context.Context, shopperID string) (map[int64]bool, error)
}
