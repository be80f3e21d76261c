package order

import (
	"context"
	"time"

	"miniapp-shop/internal/domain"
)

// Draft is a validated order request: the shopper's selected cart lines plus contact details.
type Draft struct {
	ShopperID       string
	LineIDs         []int64
	DeliveryMethod  string
	DeliveryAddress string
	ContactPhone    string
	Comment         string
}

type Repository interface {
	// Place turns the selected cart lines into an order in one transaction:
	// stock is decremented, the order and its items are written and the lines leave the cart.
	Place(ctx context.Context, d Draft) (*domain.Order, error)
	Get(ctx context.Context, shopperID string, id int64) (*domain.Order, error)
	// ClaimCooldown reserves the order slot until the given time; false when one is still held.
	ClaimCooldown(ctx context.Context, shopperID string, now, until time.Time) (bool, error)
	ReleaseCooldown(ctx context.Context, shopperID string) error
}
