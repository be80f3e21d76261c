package order

import (
	"context"
	"errors"
	"time"

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

type pickedLine struct {
	lineID    int64
	productID int64
	name      string
	price     int64
	quantity  int
	stock     int
	active    bool
}

func (r *postgresRepo) Place(ctx context.Context, d Draft) (*domain.Order, error) {
	if len(d.LineIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Product rows are locked in id order so concurrent checkouts cannot deadlock.
	rows, err := tx.Query(ctx, `
SELECT c.id, p.id, p.name_ru, p.price, c.quantity, p.stock, p.is_active
FROM cart_items c
JOIN products p ON p.id = c.product_id
WHERE c.shopper_id = $1 AND c.id = ANY($2)
ORDER BY p.id
FOR UPDATE OF c, p
`, d.ShopperID, d.LineIDs)
	if err != nil {
		return nil, err
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pickedLine, error) {
		var l pickedLine
		err := row.Scan(&l.lineID, &l.productID, &l.name, &l.price, &l.quantity, &l.stock, &l.active)
		return l, err
	})
	if err != nil {
		return nil, err
	}
	if len(lines) != len(d.LineIDs) {
		return nil, domain.ErrNotFound
	}

	order := &domain.Order{
		ShopperID:       d.ShopperID,
		Status:          domain.OrderStatusNew,
		DeliveryMethod:  d.DeliveryMethod,
		DeliveryAddress: d.DeliveryAddress,
		ContactPhone:    d.ContactPhone,
		Comment:         d.Comment,
	}
	for _, l := range lines {
		if !l.active {
			return nil, &domain.WithdrawnError{ProductName: l.name}
		}
		if l.quantity > l.stock {
			return nil, &domain.StockShortageError{ProductName: l.name, Left: l.stock}
		}
		cmd, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, l.productID, l.quantity)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, &domain.StockShortageError{ProductName: l.name, Left: l.stock}
		}
		order.TotalAmount += l.price * int64(l.quantity)
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   l.productID,
			ProductName: l.name,
			Price:       l.price,
			Quantity:    l.quantity,
		})
	}
	if order.TotalAmount <= 0 {
		return nil, domain.ErrInvalidInput
	}

	err = tx.QueryRow(ctx, `
INSERT INTO orders (shopper_id, status, delivery_method, delivery_address, contact_phone, comment, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at
`, order.ShopperID, order.Status, order.DeliveryMethod, order.DeliveryAddress, order.ContactPhone, order.Comment, order.TotalAmount).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for i := range order.Items {
		it := &order.Items[i]
		it.OrderID = order.ID
		batch.Queue(`
INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, order.ID, it.ProductID, it.ProductName, it.Price, it.Quantity).QueryRow(func(row pgx.Row) error {
			return row.Scan(&it.ID)
		})
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE shopper_id = $1 AND id = ANY($2)`, d.ShopperID, d.LineIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *postgresRepo) Get(ctx context.Context, shopperID string, id int64) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.pool.QueryRow(ctx, `
SELECT id, shopper_id, status, delivery_method, delivery_address, contact_phone, comment, total_amount, created_at
FROM orders
WHERE id = $1 AND shopper_id = $2
`, id, shopperID).Scan(
		&order.ID,
		&order.ShopperID,
		&order.Status,
		&order.DeliveryMethod,
		&order.DeliveryAddress,
		&order.ContactPhone,
		&order.Comment,
		&order.TotalAmount,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, order_id, COALESCE(product_id, 0), product_name, price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY id
`, id)
	if err != nil {
		return nil, err
	}
	order.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity)
		return it, err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *postgresRepo) ClaimCooldown(ctx context.Context, shopperID string, now, until time.Time) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
INSERT INTO order_cooldowns (shopper_id, expires_at)
VALUES ($1, $3)
ON CONFLICT (shopper_id) DO UPDATE
SET expires_at = EXCLUDED.expires_at
WHERE order_cooldowns.expires_at <= $2
`, shopperID, now, until)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) ReleaseCooldown(ctx context.Context, shopperID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM order_cooldowns WHERE shopper_id = $1`, shopperID)
	return err
}
