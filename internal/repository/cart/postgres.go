package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miniapp-shop/internal/domain"
)

const lineSelect = `
SELECT c.id, c.shopper_id, c.product_id, c.quantity,
       p.id, COALESCE(p.key, ''), COALESCE(p.category_id, 0), p.name_ru, p.name_uz, COALESCE(p.description_ru, ''),
       p.price, p.stock, p.image_path, p.is_active, p.created_at
FROM cart_items c
JOIN products p ON p.id = c.product_id
`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListByShopper(ctx context.Context, shopperID string) ([]domain.CartLine, error) {
	return r.queryLines(ctx, lineSelect+`WHERE c.shopper_id = $1 ORDER BY c.id`, shopperID)
}

func (r *postgresRepo) GetLine(ctx context.Context, shopperID string, lineID int64) (*domain.CartLine, error) {
	return r.queryLine(ctx, lineSelect+`WHERE c.shopper_id = $1 AND c.id = $2`, shopperID, lineID)
}

func (r *postgresRepo) GetByProduct(ctx context.Context, shopperID string, productID int64) (*domain.CartLine, error) {
	return r.queryLine(ctx, lineSelect+`WHERE c.shopper_id = $1 AND c.product_id = $2`, shopperID, productID)
}

func (r *postgresRepo) GetLinesByIDs(ctx context.Context, shopperID string, ids []int64) ([]domain.CartLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryLines(ctx, lineSelect+`WHERE c.shopper_id = $1 AND c.id = ANY($2) ORDER BY c.id`, shopperID, ids)
}

// Insert adds a new line; a concurrent insert of the same product yields ErrConflict.
func (r *postgresRepo) Insert(ctx context.Context, shopperID string, productID int64, quantity int) error {
	cmd, err := r.pool.Exec(ctx, `
INSERT INTO cart_items (shopper_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (shopper_id, product_id) DO NOTHING
`, shopperID, productID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// CompareAndSetQuantity only writes when the stored quantity still equals expected.
func (r *postgresRepo) CompareAndSetQuantity(ctx context.Context, lineID int64, expected, quantity int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2 AND quantity = $3
`, quantity, lineID, expected)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, shopperID string, lineID int64) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND shopper_id = $2`, lineID, shopperID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) CountUnits(ctx context.Context, shopperID string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE shopper_id = $1`, shopperID).Scan(&total)
	return total, err
}

func (r *postgresRepo) queryLine(ctx context.Context, q string, args ...any) (*domain.CartLine, error) {
	line, err := scanLine(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *postgresRepo) queryLines(ctx context.Context, q string, args ...any) ([]domain.CartLine, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func scanLine(row pgx.Row) (domain.CartLine, error) {
	var l domain.CartLine
	p := &l.Product
	err := row.Scan(
		&l.ID,
		&l.ShopperID,
		&l.ProductID,
		&l.Quantity,
		&p.ID,
		&p.Key,
		&p.CategoryID,
		&p.NameRu,
		&p.NameUz,
		&p.DescriptionRu,
		&p.Price,
		&p.Stock,
		&p.ImagePath,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return l, err
	}
	l.Unavailable = !p.IsActive
	return l, nil
}
