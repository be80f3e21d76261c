package seed

import (
	"context"
	"errors"
	"testing"

	"miniapp-shop/internal/domain"
)

type stubCategories struct {
	next  int64
	saved []domain.Category
}

func (s *stubCategories) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.next++
	c.ID = s.next
	s.saved = append(s.saved, c)
	return &c, nil
}

type stubProducts struct {
	saved []domain.Product
	err   error
}

func (s *stubProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.saved = append(s.saved, p)
	return &p, nil
}

func TestApplyLinksProductsToCategories(t *testing.T) {
	cats := &stubCategories{}
	prods := &stubProducts{}
	if err := Apply(context.Background(), cats, prods); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(cats.saved) != len(categories) || len(prods.saved) != len(products) {
		t.Fatalf("unexpected counts: %d categories, %d products", len(cats.saved), len(prods.saved))
	}
	for _, p := range prods.saved {
		if p.CategoryID == 0 {
			t.Fatalf("product %s has no category", p.Key)
		}
		if !p.IsActive {
			t.Fatalf("product %s should be active", p.Key)
		}
	}
}

func TestApplyStopsOnError(t *testing.T) {
	prods := &stubProducts{err: errors.New("boom")}
	err := Apply(context.Background(), &stubCategories{}, prods)
	if err == nil || !errors.Is(err, prods.err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
