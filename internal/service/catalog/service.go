package catalog

import (
	"context"
	"strconv"
	"strings"

	"miniapp-shop/internal/domain"
)

type productRepo interface {
	ListActive(ctx context.Context, limit int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	products   productRepo
	categories categoryRepo
	pageLimit  int
}

func New(products productRepo, categories categoryRepo, pageLimit int) *Service {
	if pageLimit <= 0 {
		pageLimit = 50
	}
	return &Service{products: products, categories: categories, pageLimit: pageLimit}
}

// ListProducts accepts the raw category_id query value. Anything that is not
// a plain decimal id ("all", empty) selects every active product.
func (s *Service) ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	if id, ok := parseCategoryID(categoryID); ok {
		return s.products.ListByCategory(ctx, id)
	}
	return s.products.ListActive(ctx, s.pageLimit)
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.products.ListActive(ctx, s.pageLimit)
	}
	return s.products.Search(ctx, query)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// Product returns one product for the detail card, inactive ones included.
func (s *Service) Product(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.products.GetByID(ctx, id)
}

func parseCategoryID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
