package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"miniapp-shop/internal/domain"
	orderrepo "miniapp-shop/internal/repository/order"
)

// PickupAddress is stored as the delivery address of pickup orders.
const PickupAddress = "Самовывоз: Чиланзар, 1"

const (
	defaultCooldown = 10 * time.Second
	maxTextLength   = 500
)

var (
	ErrPhoneRequired   = fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	ErrInvalidPhone    = fmt.Errorf("%w: phone must be 998 followed by 9 digits", domain.ErrInvalidInput)
	ErrAddressRequired = fmt.Errorf("%w: address is required for delivery", domain.ErrInvalidInput)
	ErrEmptyOrder      = fmt.Errorf("%w: no cart lines selected", domain.ErrInvalidInput)
	ErrInvalidDelivery = fmt.Errorf("%w: unknown delivery method", domain.ErrInvalidInput)
	ErrTextTooLong     = fmt.Errorf("%w: address or comment too long", domain.ErrInvalidInput)
)

type orderRepo interface {
	Place(ctx context.Context, d orderrepo.Draft) (*domain.Order, error)
	Get(ctx context.Context, shopperID string, id int64) (*domain.Order, error)
	ClaimCooldown(ctx context.Context, shopperID string, now, until time.Time) (bool, error)
	ReleaseCooldown(ctx context.Context, shopperID string) error
}

// Request is the checkout form as submitted by the shopper.
type Request struct {
	LineIDs        []int64
	DeliveryMethod string
	Phone          string
	Address        string
	Comment        string
}

type Service struct {
	repo     orderRepo
	cooldown time.Duration
	now      func() time.Time
}

func New(repo orderRepo, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Service{repo: repo, cooldown: cooldown, now: time.Now}
}

// Place validates the request, takes the shopper's cooldown slot and places the order.
// The slot is given back when placement fails so the shopper can retry at once.
func (s *Service) Place(ctx context.Context, shopperID string, req Request) (*domain.Order, error) {
	draft, err := s.draft(shopperID, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.repo.ClaimCooldown(ctx, shopperID, now, now.Add(s.cooldown))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRateLimited
	}

	order, err := s.repo.Place(ctx, draft)
	if err != nil {
		if relErr := s.repo.ReleaseCooldown(context.WithoutCancel(ctx), shopperID); relErr != nil {
			return nil, errors.Join(err, relErr)
		}
		return nil, err
	}
	return order, nil
}

// Get returns one of the shopper's orders; orders of other shoppers are ErrNotFound.
func (s *Service) Get(ctx context.Context, shopperID string, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, shopperID, id)
}

func (s *Service) draft(shopperID string, req Request) (orderrepo.Draft, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return orderrepo.Draft{}, err
	}

	address := strings.TrimSpace(req.Address)
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(address) > maxTextLength || utf8.RuneCountInString(comment) > maxTextLength {
		return orderrepo.Draft{}, ErrTextTooLong
	}

	switch req.DeliveryMethod {
	case domain.DeliveryPickup:
		address = PickupAddress
	case domain.DeliveryCourier:
		if address == "" {
			return orderrepo.Draft{}, ErrAddressRequired
		}
	default:
		return orderrepo.Draft{}, ErrInvalidDelivery
	}

	ids := uniqueIDs(req.LineIDs)
	if len(ids) == 0 {
		return orderrepo.Draft{}, ErrEmptyOrder
	}

	return orderrepo.Draft{
		ShopperID:       shopperID,
		LineIDs:         ids,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: address,
		ContactPhone:    phone,
		Comment:         comment,
	}, nil
}

// NormalizePhone strips everything but digits and prefixes bare 9-digit numbers with 998.
func NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrPhoneRequired
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 9 {
		digits = "998" + digits
	}
	if len(digits) != 12 || !strings.HasPrefix(digits, "998") {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
