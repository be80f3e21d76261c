package product

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/logging"
)

const productColumns = `id, COALESCE(key, ''), COALESCE(category_id, 0), name_ru, name_uz, COALESCE(description_ru, ''), price, stock, image_path, is_active, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

type PostgresRepository interface {
	Repository
	Writer
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) PostgresRepository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

func (r *postgresRepo) ListActive(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE is_active
ORDER BY id
LIMIT $1
`
	return r.list(ctx, "list_active", q, limit)
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE is_active AND category_id = $1
ORDER BY id
`
	return r.list(ctx, "list_by_category", q, categoryID)
}

func (r *postgresRepo) Search(ctx context.Context, query string) ([]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE is_active
  AND (name_ru ILIKE $1 ESCAPE '\' OR name_uz ILIKE $1 ESCAPE '\')
ORDER BY id
`
	return r.list(ctx, "search", q, "%"+EscapeLike(query)+"%")
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get product", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(p.Key) == "" {
		return nil, errors.New("product repo: key required for upsert")
	}
	const q = `
INSERT INTO products (key, category_id, name_ru, name_uz, description_ru, price, stock, image_path, is_active)
VALUES ($1, NULLIF($2::bigint, 0), $3, $4, NULLIF($5::text, ''), $6, $7, $8, $9)
ON CONFLICT (key) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    name_ru = EXCLUDED.name_ru,
    name_uz = EXCLUDED.name_uz,
    description_ru = EXCLUDED.description_ru,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    image_path = EXCLUDED.image_path,
    is_active = EXCLUDED.is_active
RETURNING id, created_at
`
	out := p
	err := r.pool.QueryRow(ctx, q, p.Key, p.CategoryID, p.NameRu, p.NameUz, p.DescriptionRu, p.Price, p.Stock, p.ImagePath, p.IsActive).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.logger.Error("upsert product", zap.String("key", p.Key), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted product", zap.String("key", out.Key), zap.Int64("id", out.ID))
	return &out, nil
}

func (r *postgresRepo) list(ctx context.Context, op, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("query products", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("iterate products", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed products", zap.String("op", op), zap.Int("count", len(result)))
	return result, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Key, &p.CategoryID, &p.NameRu, &p.NameUz, &p.DescriptionRu, &p.Price, &p.Stock, &p.ImagePath, &p.IsActive, &p.CreatedAt)
	return p, err
}

// EscapeLike escapes the ILIKE metacharacters of a user query.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
