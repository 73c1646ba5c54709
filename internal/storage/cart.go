package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartStorage описывает методы для работы с корзиной и её строками.
// Все изменения выполняются внутри транзакции, держащей блокировку строки carts.
type CartStorage interface {
	// GetOrCreateCartTx создаёт корзину при отсутствии и блокирует её строку
	GetOrCreateCartTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Cart, error)
	LockCartByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Cart, error)
	GetCartByAccountID(ctx context.Context, accountID int64) (*models.Cart, error)

	GetCartItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) (*models.CartItem, error)
	CreateCartItem(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, tx *sql.Tx, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, tx *sql.Tx, itemID int64) error
	DeleteCartItems(ctx context.Context, tx *sql.Tx, cartID int64) error

	// RecalcCartQuantity пересчитывает кэшированный счётчик из строк корзины
	RecalcCartQuantity(ctx context.Context, tx *sql.Tx, cartID int64) (int, error)

	GetCartLines(ctx context.Context, cartID int64) ([]*models.CartLine, error)
	GetCartLinesTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartLine, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreateCartTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	// DO UPDATE вместо DO NOTHING, чтобы RETURNING отдал существующую строку и взял на неё блокировку
	query := `
		INSERT INTO carts (account_id, quantity) VALUES ($1, 0)
		ON CONFLICT (account_id) DO UPDATE SET account_id = EXCLUDED.account_id
		RETURNING id, account_id, quantity`
	if err := tx.QueryRowContext(ctx, query, accountID).Scan(&cart.ID, &cart.AccountID, &cart.Quantity); err != nil {
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("%w: %v", ErrResourceLocked, err)
		}
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) LockCartByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := tx.QueryRowContext(ctx, "SELECT id, account_id, quantity FROM carts WHERE account_id = $1 FOR UPDATE", accountID)
	if err := row.Scan(&cart.ID, &cart.AccountID, &cart.Quantity); err != nil {
		if isLockNotAvailable(err) {
			return nil, fmt.Errorf("%w: %v", ErrResourceLocked, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) GetCartByAccountID(ctx context.Context, accountID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx, "SELECT id, account_id, quantity FROM carts WHERE account_id = $1", accountID)
	if err := row.Scan(&cart.ID, &cart.AccountID, &cart.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) GetCartItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2",
		cartID, productID,
	)
	if err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) CreateCartItem(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := tx.QueryRowContext(ctx,
		"INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id",
		cartID, productID, quantity,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) UpdateCartItemQuantity(ctx context.Context, tx *sql.Tx, itemID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE cart_items SET quantity = $1 WHERE id = $2", quantity, itemID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteCartItem(ctx context.Context, tx *sql.Tx, itemID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1", itemID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteCartItems(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) RecalcCartQuantity(ctx context.Context, tx *sql.Tx, cartID int64) (int, error) {
	query := `
		UPDATE carts
		SET quantity = (SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_id = $1)
		WHERE id = $1
		RETURNING quantity`
	var quantity int
	if err := tx.QueryRowContext(ctx, query, cartID).Scan(&quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCartNotFound
		}
		return 0, fmt.Errorf("failed to recalc cart quantity: %w", err)
	}
	return quantity, nil
}

func (r *cartRepository) GetCartLines(ctx context.Context, cartID int64) ([]*models.CartLine, error) {
	return getCartLines(ctx, r.db, cartID)
}

func (r *cartRepository) GetCartLinesTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]*models.CartLine, error) {
	return getCartLines(ctx, tx, cartID)
}

// getCartLines: строки без товара отсекаются INNER JOIN
func getCartLines(ctx context.Context, q querier, cartID int64) ([]*models.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.name, c.name, p.price, p.image_name
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`
	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []*models.CartLine{}
	for rows.Next() {
		l := &models.CartLine{}
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity, &l.ProductName, &l.CategoryName, &l.UnitPrice, &l.ImageName); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
