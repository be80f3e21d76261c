package miniapp

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// FragmentSource returns server-rendered product list fragments.
type FragmentSource interface {
	Search(ctx context.Context, q string) (string, error)
	ProductsByCategory(ctx context.Context, categoryID string) (string, error)
}

type GridView interface {
	Dim()
	Undim()
	Replace(html string)
}

// Grid swaps the product grid contents for category and search results.
// Only the most recently requested fragment is ever applied, and the grid
// stays dimmed until that request settles.
type Grid struct {
	src     FragmentSource
	view    GridView
	toaster *Toaster
	logger  *zap.Logger

	mu  sync.Mutex
	seq uint64
}

func NewGrid(src FragmentSource, view GridView, toaster *Toaster, logger *zap.Logger) *Grid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grid{src: src, view: view, toaster: toaster, logger: logger}
}

// SwitchCategory loads the category fragment. Failures show an error toast and
// keep the previous grid contents.
func (g *Grid) SwitchCategory(ctx context.Context, categoryID string) error {
	err := g.load(ctx, func(ctx context.Context) (string, error) {
		return g.src.ProductsByCategory(ctx, categoryID)
	})
	if err != nil {
		g.logger.Warn("category fetch failed", zap.String("category_id", categoryID), zap.Error(err))
		g.toaster.Error(userMessage(err, msgCategoryFailed))
	}
	return err
}

// Search loads the search fragment. Failures are logged only.
func (g *Grid) Search(ctx context.Context, q string) error {
	err := g.load(ctx, func(ctx context.Context) (string, error) {
		return g.src.Search(ctx, q)
	})
	if err != nil {
		g.logger.Warn("search fetch failed", zap.String("query", q), zap.Error(err))
	}
	return err
}

func (g *Grid) load(ctx context.Context, fetch func(context.Context) (string, error)) error {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.view.Dim()
	g.mu.Unlock()

	html, err := fetch(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seq != seq {
		return err
	}
	if err == nil {
		g.view.Replace(html)
	}
	g.view.Undim()
	return err
}
