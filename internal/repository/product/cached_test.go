package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"miniapp-shop/internal/domain"
)

type stubRepo struct {
	products  []domain.Product
	err       error
	listCalls int
}

func (s *stubRepo) ListActive(_ context.Context, _ int) ([]domain.Product, error) {
	s.listCalls++
	return s.products, s.err
}

func (s *stubRepo) ListByCategory(_ context.Context, _ int64) ([]domain.Product, error) {
	s.listCalls++
	return s.products, s.err
}

func (s *stubRepo) Search(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCachedRepo_FallsThroughWhenRedisDown(t *testing.T) {
	next := &stubRepo{products: []domain.Product{{ID: 1, NameRu: "Чай"}}}
	repo := NewCached(next, unreachableRedis(t), time.Minute, nil)

	got, err := repo.ListActive(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.ListByCategory(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, next.listCalls)
}

func TestCachedRepo_PropagatesDatabaseErrors(t *testing.T) {
	next := &stubRepo{err: errors.New("db down")}
	repo := NewCached(next, unreachableRedis(t), time.Minute, nil)

	_, err := repo.ListActive(context.Background(), 10)
	require.EqualError(t, err, "db down")
}

func TestCachedRepo_GetByIDReadsThrough(t *testing.T) {
	next := &stubRepo{products: []domain.Product{{ID: 7, Stock: 2}}}
	repo := NewCached(next, unreachableRedis(t), time.Minute, nil)

	p, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, p.Stock)
}
