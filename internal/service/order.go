package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// OrderService: история заказов покупателя.
type OrderService interface {
	MyOrders(ctx context.Context, accountID int64) ([]*models.Order, error)
	OrderDetail(ctx context.Context, accountID, orderID int64) (*OrderView, error)
}

type OrderItemView struct {
	*models.OrderItem
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderView: заказ со строками. Итог считается по снимку, а не по текущим ценам
type OrderView struct {
	*models.Order
	Lines      []OrderItemView `json:"lines"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func newOrderView(order *models.Order, items []*models.OrderItem) *OrderView {
	view := &OrderView{Order: order, Lines: make([]OrderItemView, 0, len(items)), GrandTotal: decimal.Zero}
	for _, item := range items {
		lt := item.LineTotal()
		view.Lines = append(view.Lines, OrderItemView{OrderItem: item, LineTotal: lt})
		view.GrandTotal = view.GrandTotal.Add(lt)
	}
	return view
}

type orderService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage) OrderService {
	return &orderService{log: log, orderRepo: orderRepo}
}

func (s *orderService) MyOrders(ctx context.Context, accountID int64) ([]*models.Order, error) {
	const op = "service.OrderService.MyOrders"

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	orders, err := s.orderRepo.GetOrdersByAccountID(ctx, accountID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Int64("accountID", accountID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// OrderDetail: чужой заказ неотличим от несуществующего
func (s *orderService) OrderDetail(ctx context.Context, accountID, orderID int64) (*OrderView, error) {
	const op = "service.OrderService.OrderDetail"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID), slog.Int64("orderID", orderID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: order %d: %w", op, orderID, ErrNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	if order.AccountID != accountID {
		logger.Warn("order belongs to another account")
		return nil, fmt.Errorf("%s: order %d: %w", op, orderID, ErrNotFound)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}
	return newOrderView(order, items), nil
}
