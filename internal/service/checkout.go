package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linemk/storefront/internal/cache"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// CheckoutService превращает корзину в оплаченный заказ, списывая кошелёк.
type CheckoutService interface {
	Checkout(ctx context.Context, accountID int64, receiver models.Receiver) (*models.Order, error)
}

type checkoutService struct {
	log          *slog.Logger
	db           *sql.DB
	cartRepo     storage.CartStorage
	walletRepo   storage.WalletStorage
	walletTxRepo storage.WalletTransactionStorage
	orderRepo    storage.OrderStorage
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	cartRepo storage.CartStorage,
	walletRepo storage.WalletStorage,
	walletTxRepo storage.WalletTransactionStorage,
	orderRepo storage.OrderStorage,
	c cache.Cache,
	cacheTTL time.Duration,
) CheckoutService {
	return &checkoutService{
		log:          log,
		db:           db,
		cartRepo:     cartRepo,
		walletRepo:   walletRepo,
		walletTxRepo: walletTxRepo,
		orderRepo:    orderRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

// Checkout оформляет заказ одной транзакцией.
// Блокировки берутся в порядке кошелёк, затем корзина; корзина перечитывается под блокировкой,
// поэтому повторный или параллельный checkout увидит уже пустую корзину.
// Если что-то идет не так, транзакция откатывается целиком
func (s *checkoutService) Checkout(ctx context.Context, accountID int64, receiver models.Receiver) (*models.Order, error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	cart, err := s.cartRepo.GetCartByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: cart: %w", op, ErrNotFound)
		}
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	// Предварительная проверка до блокировок: пустую корзину не везём в транзакцию
	lines, err := s.cartRepo.GetCartLines(ctx, cart.ID)
	if err != nil {
		logger.Error("failed to get cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart lines: %w", op, err)
	}
	if !models.CartTotal(lines).IsPositive() {
		return nil, ErrEmptyCart
	}

	receiver = receiver.Trimmed()
	if !receiver.Complete() {
		return nil, invalidInput("receiver name, phone and address are required")
	}

	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	wallet, err := s.walletRepo.LockWalletByAccountIDTx(ctx, tx, accountID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrWalletNotFound) {
			return nil, fmt.Errorf("%s: wallet: %w", op, ErrNotFound)
		}
		logger.Error("failed to lock wallet", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock wallet: %w", op, err)
	}

	cart, err = s.cartRepo.LockCartByAccountIDTx(ctx, tx, accountID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil, fmt.Errorf("%s: cart: %w", op, ErrNotFound)
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	// Перечитываем строки под блокировкой: это и есть авторитетная сумма
	lines, err = s.cartRepo.GetCartLinesTx(ctx, tx, cart.ID)
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to get cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart lines: %w", op, err)
	}
	total := models.CartTotal(lines)
	if !total.IsPositive() {
		rollback(logger, tx)
		return nil, ErrEmptyCart
	}

	// Проверяем, достаточно ли средств
	if wallet.Balance.LessThan(total) {
		rollback(logger, tx)
		logger.Warn("insufficient funds", slog.String("balance", wallet.Balance.StringFixed(2)), slog.String("total", total.StringFixed(2)))
		return nil, &InsufficientFundsError{Balance: wallet.Balance, Total: total}
	}

	newBalance := wallet.Balance.Sub(total)
	if err := s.walletRepo.UpdateWalletBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		rollback(logger, tx)
		logger.Error("failed to update wallet balance", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update wallet balance: %w", op, err)
	}

	order, err := s.orderRepo.CreateOrder(ctx, tx, &models.Order{
		AccountID:   accountID,
		Reference:   uuid.New(),
		TotalAmount: total,
		Status:      models.OrderStatusPaid,
		Receiver:    receiver,
	})
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	order.Items = make([]*models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.SnapshotCartLine(order.ID, line)
		if err := s.orderRepo.CreateOrderItem(ctx, tx, item); err != nil {
			rollback(logger, tx)
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order item: %w", op, err)
		}
		order.Items = append(order.Items, item)
	}

	if err := s.walletTxRepo.CreateTransaction(ctx, tx, wallet.ID, total, models.WalletTxCheckout, &order.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to record wallet transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to record wallet transaction: %w", op, err)
	}

	if err := s.cartRepo.DeleteCartItems(ctx, tx, cart.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}
	if _, err := s.cartRepo.RecalcCartQuantity(ctx, tx, cart.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to recalc cart quantity", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to recalc cart quantity: %w", op, err)
	}

	wallet.Balance = newBalance
	cacheWallet(ctx, logger, s.cache, wallet, s.cacheTTL)

	if err := tx.Commit(); err != nil {
		dropCachedWallet(ctx, logger, s.cache, accountID)
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("checkout completed successfully",
		slog.Int64("orderID", order.ID),
		slog.String("total", total.StringFixed(2)),
	)
	return order, nil
}
