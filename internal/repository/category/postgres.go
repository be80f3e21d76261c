package category

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"miniapp-shop/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id, COALESCE(key, ''), name_ru, name_uz
FROM categories
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Key, &c.NameRu, &c.NameUz); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert keeps existing names when the incoming ones are empty.
func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(c.Key) == "" {
		return nil, errors.New("category repo: key required for upsert")
	}
	const q = `
INSERT INTO categories (key, name_ru, name_uz)
VALUES ($1::text, COALESCE(NULLIF($2::text, ''), $1::text), $3::text)
ON CONFLICT (key) DO UPDATE
SET name_ru = COALESCE(NULLIF(EXCLUDED.name_ru, EXCLUDED.key), categories.name_ru),
    name_uz = COALESCE(NULLIF(EXCLUDED.name_uz, ''), categories.name_uz)
RETURNING id, name_ru, name_uz
`
	out := domain.Category{Key: c.Key}
	if err := r.pool.QueryRow(ctx, q, c.Key, c.NameRu, c.NameUz).Scan(&out.ID, &out.NameRu, &out.NameUz); err != nil {
		return nil, err
	}
	return &out, nil
}
