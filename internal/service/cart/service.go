package cart

import (
	"context"
	"errors"
	"fmt"

	"miniapp-shop/internal/domain"
)

type cartRepo interface {
	ListByShopper(ctx context.Context, shopperID string) ([]domain.CartLine, error)
	GetLine(ctx context.Context, shopperID string, lineID int64) (*domain.CartLine, error)
	GetByProduct(ctx context.Context, shopperID string, productID int64) (*domain.CartLine, error)
	GetLinesByIDs(ctx context.Context, shopperID string, ids []int64) ([]domain.CartLine, error)
	Insert(ctx context.Context, shopperID string, productID int64, quantity int) error
	CompareAndSetQuantity(ctx context.Context, lineID int64, expected, quantity int) error
	Delete(ctx context.Context, shopperID string, lineID int64) (bool, error)
	CountUnits(ctx context.Context, shopperID string) (int, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo        cartRepo
	productRepo productRepo
}

func New(repo cartRepo, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

// UpdateResult describes the outcome of a quantity change. TotalCount is only
// populated when the line was removed.
type UpdateResult struct {
	Removed    bool
	TotalCount int
}

// Add puts one more unit of the product into the shopper's cart and returns
// the total number of units in the cart afterwards.
func (s *Service) Add(ctx context.Context, shopperID string, productID int64) (int, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrOutOfStock
		}
		return 0, err
	}
	if !product.IsActive || product.Stock <= 0 {
		return 0, domain.ErrOutOfStock
	}

	line, err := s.repo.GetByProduct(ctx, shopperID, productID)
	switch {
	case err == nil:
		if line.Quantity >= product.Stock {
			return 0, domain.ErrStockLimit
		}
		if err := s.repo.CompareAndSetQuantity(ctx, line.ID, line.Quantity, line.Quantity+1); err != nil {
			return 0, err
		}
	case errors.Is(err, domain.ErrNotFound):
		if err := s.repo.Insert(ctx, shopperID, productID, 1); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}
	return s.repo.CountUnits(ctx, shopperID)
}

// UpdateQuantity sets an absolute quantity. A quantity of zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, shopperID string, lineID int64, quantity int) (UpdateResult, error) {
	line, err := s.repo.GetLine(ctx, shopperID, lineID)
	if err != nil {
		return UpdateResult{}, err
	}
	if quantity <= 0 {
		if _, err := s.repo.Delete(ctx, shopperID, lineID); err != nil {
			return UpdateResult{}, err
		}
		count, err := s.repo.CountUnits(ctx, shopperID)
		if err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{Removed: true, TotalCount: count}, nil
	}
	if !line.Product.IsActive {
		return UpdateResult{}, domain.ErrUnavailable
	}
	if quantity > line.Product.Stock {
		return UpdateResult{}, domain.ErrInsufficientStock
	}
	if quantity == line.Quantity {
		return UpdateResult{}, nil
	}
	if err := s.repo.CompareAndSetQuantity(ctx, line.ID, line.Quantity, quantity); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{}, nil
}

// Delete removes a line. Deleting a line that does not exist is not an error.
func (s *Service) Delete(ctx context.Context, shopperID string, lineID int64) error {
	_, err := s.repo.Delete(ctx, shopperID, lineID)
	return err
}

func (s *Service) Lines(ctx context.Context, shopperID string) ([]domain.CartLine, error) {
	return s.repo.ListByShopper(ctx, shopperID)
}

func (s *Service) Count(ctx context.Context, shopperID string) (int, error) {
	return s.repo.CountUnits(ctx, shopperID)
}

// Checkout validates a selection of line ids. Every id must belong to the
// shopper and reference an active product.
func (s *Service) Checkout(ctx context.Context, shopperID string, ids []int64) (*domain.CheckoutSummary, []domain.CartLine, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil, fmt.Errorf("%w: empty selection", domain.ErrInvalidInput)
	}
	lines, err := s.repo.GetLinesByIDs(ctx, shopperID, unique)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) != len(unique) {
		return nil, nil, domain.ErrNotFound
	}

	summary := &domain.CheckoutSummary{ItemIDs: unique}
	for _, l := range lines {
		if l.Unavailable {
			return nil, nil, domain.ErrUnavailable
		}
		summary.TotalAmount += l.Subtotal()
		summary.TotalCount += l.Quantity
	}
	return summary, lines, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
