package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// CartService: операции над корзиной текущего аккаунта.
type CartService interface {
	Add(ctx context.Context, accountID, productID int64) (*models.Cart, error)
	Increment(ctx context.Context, accountID, productID int64) (*models.Cart, error)
	Decrement(ctx context.Context, accountID, productID int64) (*models.Cart, error)
	Remove(ctx context.Context, accountID, productID int64) (*models.Cart, error)
	View(ctx context.Context, accountID int64) (*CartView, error)
}

type CartLineView struct {
	*models.CartLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items    []CartLineView  `json:"items"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// lineMutation меняет строку корзины. item == nil, если строки нет
type lineMutation func(ctx context.Context, tx *sql.Tx, cart *models.Cart, item *models.CartItem) error

// Add увеличивает строку на 1 или создаёт её, корзина создаётся при отсутствии
func (s *cartService) Add(ctx context.Context, accountID, productID int64) (*models.Cart, error) {
	return s.mutate(ctx, "service.CartService.Add", accountID, productID, true,
		func(ctx context.Context, tx *sql.Tx, cart *models.Cart, item *models.CartItem) error {
			if item == nil {
				_, err := s.cartRepo.CreateCartItem(ctx, tx, cart.ID, productID, 1)
				return err
			}
			return s.cartRepo.UpdateCartItemQuantity(ctx, tx, item.ID, item.Quantity+1)
		})
}

func (s *cartService) Increment(ctx context.Context, accountID, productID int64) (*models.Cart, error) {
	return s.Add(ctx, accountID, productID)
}

// Decrement уменьшает строку на 1 и удаляет её, если количество дошло до нуля
func (s *cartService) Decrement(ctx context.Context, accountID, productID int64) (*models.Cart, error) {
	return s.mutate(ctx, "service.CartService.Decrement", accountID, productID, false,
		func(ctx context.Context, tx *sql.Tx, _ *models.Cart, item *models.CartItem) error {
			if item == nil {
				return nil
			}
			if item.Quantity-1 <= 0 {
				return s.cartRepo.DeleteCartItem(ctx, tx, item.ID)
			}
			return s.cartRepo.UpdateCartItemQuantity(ctx, tx, item.ID, item.Quantity-1)
		})
}

func (s *cartService) Remove(ctx context.Context, accountID, productID int64) (*models.Cart, error) {
	return s.mutate(ctx, "service.CartService.Remove", accountID, productID, false,
		func(ctx context.Context, tx *sql.Tx, _ *models.Cart, item *models.CartItem) error {
			if item == nil {
				return nil
			}
			return s.cartRepo.DeleteCartItem(ctx, tx, item.ID)
		})
}

// mutate выполняет изменение строки под блокировкой корзины и пересчитывает счётчик
func (s *cartService) mutate(ctx context.Context, op string, accountID, productID int64, create bool, fn lineMutation) (*models.Cart, error) {
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID), slog.Int64("productID", productID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: product %d: %w", op, productID, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	var cart *models.Cart
	if create {
		cart, err = s.cartRepo.GetOrCreateCartTx(ctx, tx, accountID)
	} else {
		cart, err = s.cartRepo.LockCartByAccountIDTx(ctx, tx, accountID)
	}
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: cart: %w", op, ErrNotFound)
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	item, err := s.cartRepo.GetCartItemTx(ctx, tx, cart.ID, productID)
	if err != nil && !errors.Is(err, storage.ErrCartItemNotFound) {
		rollback(logger, tx)
		logger.Error("failed to get cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart item: %w", op, err)
	}

	if err := fn(ctx, tx, cart, item); err != nil {
		rollback(logger, tx)
		logger.Error("failed to update cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update cart item: %w", op, err)
	}

	quantity, err := s.cartRepo.RecalcCartQuantity(ctx, tx, cart.ID)
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to recalc cart quantity", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to recalc cart quantity: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	cart.Quantity = quantity
	logger.Debug("cart updated", slog.Int("quantity", quantity))
	return cart, nil
}

// View собирает корзину по живым ценам. Отсутствующая корзина отдаётся пустой
func (s *cartService) View(ctx context.Context, accountID int64) (*CartView, error) {
	const op = "service.CartService.View"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	view := &CartView{Items: []CartLineView{}, Total: decimal.Zero}

	cart, err := s.cartRepo.GetCartByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return view, nil
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	lines, err := s.cartRepo.GetCartLines(ctx, cart.ID)
	if err != nil {
		logger.Error("failed to get cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart lines: %w", op, err)
	}

	for _, l := range lines {
		view.Items = append(view.Items, CartLineView{CartLine: l, Subtotal: l.Subtotal()})
	}
	view.Quantity = cart.Quantity
	view.Total = models.CartTotal(lines)
	return view, nil
}
