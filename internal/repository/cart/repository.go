package cart

import (
	"context"

	"miniapp-shop/internal/domain"
)

type Repository interface {
	ListByShopper(ctx context.Context, shopperID string) ([]domain.CartLine, error)
	GetLine(ctx context.Context, shopperID string, lineID int64) (*domain.CartLine, error)
	GetByProduct(ctx context.Context, shopperID string, productID int64) (*domain.CartLine, error)
	GetLinesByIDs(ctx context.Context, shopperID string, ids []int64) ([]domain.CartLine, error)
	Insert(ctx context.Context, shopperID string, productID int64, quantity int) error
	CompareAndSetQuantity(ctx context.Context, lineID int64, expected, quantity int) error
	Delete(ctx context.Context, shopperID string, lineID int64) (bool, error)
	CountUnits(ctx context.Context, shopperID string) (int, error)
}
