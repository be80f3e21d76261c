package miniapp

import (
	"context"
	"sync"
)

type CatalogAPI interface {
	AddToCart(ctx context.Context, productID int64) (int, error)
	ToggleFavorite(ctx context.Context, productID int64) (bool, error)
}

type FavoriteView interface {
	SetFavorite(productID int64, on bool)
}

// Catalog handles the product card buttons. Both actions update the page
// before the server answers and undo that update when the call fails.
type Catalog struct {
	api     CatalogAPI
	badge   *Badge
	toaster *Toaster
	favView FavoriteView

	mu        sync.Mutex
	favorites map[int64]bool
}

func NewCatalog(api CatalogAPI, badge *Badge, toaster *Toaster, favView FavoriteView, favorites map[int64]bool) *Catalog {
	marked := make(map[int64]bool, len(favorites))
	for id, on := range favorites {
		if on {
			marked[id] = true
		}
	}
	return &Catalog{api: api, badge: badge, toaster: toaster, favView: favView, favorites: marked}
}

func (c *Catalog) AddToCart(ctx context.Context, productID int64) error {
	c.badge.Add(1)
	count, err := c.api.AddToCart(ctx, productID)
	if err != nil {
		c.badge.Add(-1)
		c.toaster.Error(userMessage(err, msgAddFailed))
		return err
	}
	c.badge.Set(count)
	c.toaster.Success(msgAddedToCart)
	return nil
}

// ToggleFavorite flips the mark immediately; the server's answer is authoritative.
func (c *Catalog) ToggleFavorite(ctx context.Context, productID int64) error {
	c.mu.Lock()
	prev := c.favorites[productID]
	c.set(productID, !prev)
	c.mu.Unlock()

	added, err := c.api.ToggleFavorite(ctx, productID)

	c.mu.Lock()
	if err != nil {
		c.set(productID, prev)
	} else {
		c.set(productID, added)
	}
	c.mu.Unlock()

	if err != nil {
		c.toaster.Error(userMessage(err, msgFavoriteFailed))
		return err
	}
	if added {
		c.toaster.Success(msgFavoriteAdded)
	} else {
		c.toaster.Info(msgFavoriteRemoved)
	}
	return nil
}

func (c *Catalog) IsFavorite(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.favorites[productID]
}

func (c *Catalog) set(productID int64, on bool) {
	if on {
		c.favorites[productID] = true
	} else {
		delete(c.favorites, productID)
	}
	if c.favView != nil {
		c.favView.SetFavorite(productID, on)
	}
}
