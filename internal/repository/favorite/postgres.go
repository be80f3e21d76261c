package favorite

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miniapp-shop/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Toggle(ctx context.Context, shopperID string, productID int64) (bool, error) {
	var added bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM favorites WHERE shopper_id = $1 AND product_id = $2`, shopperID, productID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO favorites (shopper_id, product_id)
VALUES ($1, $2)
ON CONFLICT (shopper_id, product_id) DO NOTHING
`, shopperID, productID); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *postgresRepo) List(ctx context.Context, shopperID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.id, COALESCE(p.key, ''), COALESCE(p.category_id, 0), p.name_ru, p.name_uz, COALESCE(p.description_ru, ''),
       p.price, p.stock, p.image_path, p.is_active, p.created_at
FROM favorites f
JOIN products p ON p.id = f.product_id
WHERE f.shopper_id = $1
ORDER BY f.id DESC
`, shopperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Key, &p.CategoryID, &p.NameRu, &p.NameUz, &p.DescriptionRu,
			&p.Price, &p.Stock, &p.ImagePath, &p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) ProductIDs(ctx context.Context, shopperID string) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id FROM favorites WHERE shopper_id = $1`, shopperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
