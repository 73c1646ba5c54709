package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrder вставляет заказ в рамках транзакции оформления, заполняет ID и CreatedAt.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error)
	// CreateOrderItem сохраняет снимок строки корзины.
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// GetOrdersByAccountID возвращает заказы аккаунта, новые первыми.
	GetOrdersByAccountID(ctx context.Context, accountID int64) ([]*models.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
}

// orderRepository: конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.account_id, a.username, o.reference, o.created_at, o.total_amount, o.status,
	       o.receiver_name, o.receiver_phone, o.receiver_address
	FROM orders o
	JOIN accounts a ON a.id = o.account_id`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.AccountID, &o.Username, &o.Reference, &o.CreatedAt, &o.TotalAmount, &o.Status,
		&o.Receiver.Name, &o.Receiver.Phone, &o.Receiver.Address)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (account_id, reference, total_amount, status, receiver_name, receiver_phone, receiver_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query, order.AccountID, order.Reference, order.TotalAmount, order.Status,
		order.Receiver.Name, order.Receiver.Phone, order.Receiver.Address,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, product_image_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := tx.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice,
		item.Quantity, item.ProductImageName,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetOrdersByAccountID(ctx context.Context, accountID int64) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderSelect+" WHERE o.account_id = $1 ORDER BY o.created_at DESC, o.id DESC", accountID)
}

func (r *orderRepository) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderSelect+" ORDER BY o.created_at DESC, o.id DESC LIMIT $1 OFFSET $2", limit, offset)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, product_image_name
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []*models.OrderItem{}
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.ProductImageName); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
