package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

type AddItemResult struct {
	OrderID        int64
	ProductID      int64
	NewQty         int
	RemainingStock int
	UnitPrice      decimal.Decimal
}

// AddItem adds quantity of a product to an order line and decrements stock,
// all inside one transaction. The product row is locked (FOR UPDATE) so
// concurrent calls for the same product serialize; calls for different
// products do not contend. On any failure the transaction rolls back and no
// partial state is left behind.
func (r *Repo) AddItem(ctx context.Context, orderID, productID int64, quantity int) (AddItemResult, error) {
	var res AddItemResult

	// cek order dulu, tanpa buka transaksi
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists)
	if err != nil {
		return res, err
	}
	if !exists {
		return res, ErrOrderNotFound
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock baris product sampai commit/rollback
	var stock int
	var price decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT stock_qty, price FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&stock, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return res, ErrProductNotFound
	}
	if err != nil {
		return res, err
	}

	if stock < quantity {
		return res, ErrInsufficientStock // rollback via defer, stok tidak berubah
	}

	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE products SET stock_qty = stock_qty - $2 WHERE id=$1
		RETURNING stock_qty`, productID, quantity).Scan(&remaining)
	if err != nil {
		return res, err
	}

	// upsert satu statement; unit_price hanya di-set saat insert pertama
	var newQty int
	var unitPrice decimal.Decimal
	err = tx.QueryRow(ctx, `
		INSERT INTO order_items(order_id, product_id, qty, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, product_id) DO UPDATE
		SET qty = order_items.qty + EXCLUDED.qty, updated_at = now()
		RETURNING qty, unit_price`, orderID, productID, quantity, price).Scan(&newQty, &unitPrice)
	if err != nil {
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		return res, err
	}

	return AddItemResult{
		OrderID:        orderID,
		ProductID:      productID,
		NewQty:         newQty,
		RemainingStock: remaining,
		UnitPrice:      unitPrice, // harga yang tersimpan di line, bukan harga product saat ini
	}, nil
}

// GetOrderItem reads one order line.
func (r *Repo) GetOrderItem(ctx context.Context, orderID, productID int64) (OrderItem, error) {
	var it OrderItem
	err := r.DB.QueryRow(ctx, `
		SELECT order_id, product_id, qty, unit_price, created_at, updated_at
		FROM order_items WHERE order_id=$1 AND product_id=$2`, orderID, productID).
		Scan(&it.OrderID, &it.ProductID, &it.Qty, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *Repo) GetProductStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock_qty FROM products WHERE id=$1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return stock, err
}
