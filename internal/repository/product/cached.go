package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/logging"
)

const cacheKeyPrefix = "shop:products:"

// cachedRepo keeps product lists in redis. Redis failures never fail a read;
// they fall through to the wrapped repository.
type cachedRepo struct {
	next   Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	sf     singleflight.Group
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewCached wraps next with a redis-backed cache for list queries.
func NewCached(next Repository, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) Repository {
	logger = logging.OrNop(logger).Named("product_cache")
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "catalog-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &cachedRepo{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

func (c *cachedRepo) ListActive(ctx context.Context, limit int) ([]domain.Product, error) {
	key := fmt.Sprintf("%sactive:%d", cacheKeyPrefix, limit)
	return c.cachedList(ctx, key, func() ([]domain.Product, error) {
		return c.next.ListActive(ctx, limit)
	})
}

func (c *cachedRepo) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	key := fmt.Sprintf("%scategory:%d", cacheKeyPrefix, categoryID)
	return c.cachedList(ctx, key, func() ([]domain.Product, error) {
		return c.next.ListByCategory(ctx, categoryID)
	})
}

// Search results are not cached; the key space is unbounded.
func (c *cachedRepo) Search(ctx context.Context, query string) ([]domain.Product, error) {
	return c.next.Search(ctx, query)
}

// GetByID reads through so stock checks always see the database.
func (c *cachedRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return c.next.GetByID(ctx, id)
}

func (c *cachedRepo) cachedList(ctx context.Context, key string, load func() ([]domain.Product, error)) ([]domain.Product, error) {
	val, err := c.cb.Execute(func() (interface{}, error) {
		res, err := c.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		c.logger.Warn("cache read failed, using database", zap.String("key", key), zap.Error(err))
		return load()
	}
	if raw, ok := val.(string); ok {
		var products []domain.Product
		if err := json.Unmarshal([]byte(raw), &products); err == nil {
			return products, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	res, err, shared := c.sf.Do(key, func() (interface{}, error) {
		products, err := load()
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared cache fill", zap.String("key", key))
	}
	return res.([]domain.Product), nil
}

func (c *cachedRepo) store(ctx context.Context, key string, products []domain.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	ttl := c.ttl + time.Duration(rand.Intn(5))*time.Second
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every cached product list.
func Invalidate(ctx context.Context, rdb redis.Cmdable) error {
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, cacheKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
