package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

type AdminOrderService interface {
	ListOrders(ctx context.Context, page int) ([]*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*OrderView, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

type adminOrderService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	pageSize  int
}

func NewAdminOrderService(log *slog.Logger, orderRepo storage.OrderStorage, pageSize int) AdminOrderService {
	return &adminOrderService{log: log, orderRepo: orderRepo, pageSize: pageSize}
}

func (s *adminOrderService) ListOrders(ctx context.Context, page int) ([]*models.Order, error) {
	const op = "service.AdminOrderService.ListOrders"

	_, off := offset(page, s.pageSize)
	orders, err := s.orderRepo.ListOrders(ctx, s.pageSize, off)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return orders, nil
}

func (s *adminOrderService) GetOrder(ctx context.Context, id int64) (*OrderView, error) {
	const op = "service.AdminOrderService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: order %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, id)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}
	return newOrderView(order, items), nil
}

// UpdateStatus принимает только PAID, PENDING, FAILED, CANCELLED в любом регистре
func (s *adminOrderService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	const op = "service.AdminOrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id), slog.String("status", status))

	canonical, ok := models.ValidOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, invalidInput("unknown order status"))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, canonical); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: order %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order status: %w", op, err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		logger.Error("failed to reload order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reload order: %w", op, err)
	}
	logger.Info("order status updated")
	return order, nil
}
