package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/cache"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// максимум NUMERIC(10,2)
var maxBalance = decimal.RequireFromString("99999999.99")

// WalletService определяет операции с кошельком. Списание есть только в Checkout.
type WalletService interface {
	Balance(ctx context.Context, accountID int64) (*models.Wallet, error)
	TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Wallet, error)
	History(ctx context.Context, accountID int64) ([]*models.WalletTransaction, error)
}

type walletService struct {
	log          *slog.Logger
	db           *sql.DB
	walletRepo   storage.WalletStorage
	walletTxRepo storage.WalletTransactionStorage
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewWalletService(
	log *slog.Logger,
	db *sql.DB,
	walletRepo storage.WalletStorage,
	walletTxRepo storage.WalletTransactionStorage,
	c cache.Cache,
	cacheTTL time.Duration,
) WalletService {
	return &walletService{
		log:          log,
		db:           db,
		walletRepo:   walletRepo,
		walletTxRepo: walletTxRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

// ValidAmount: строго больше нуля и не больше двух знаков после запятой
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(models.MoneyScale))
}

func (s *walletService) Balance(ctx context.Context, accountID int64) (*models.Wallet, error) {
	const op = "service.WalletService.Balance"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	key := cache.WalletKey(accountID)
	var cached models.Wallet
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("failed to read wallet cache", slog.Any("error", err))
	}
	if found {
		return &cached, nil
	}

	wallet, err := s.walletRepo.GetWalletByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return nil, fmt.Errorf("%s: wallet: %w", op, ErrNotFound)
		}
		logger.Error("failed to get wallet", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get wallet: %w", op, err)
	}

	// ключ мог появиться после нашего чтения: значение писателя свежее
	if _, err := s.cache.SetNX(ctx, key, wallet, s.cacheTTL); err != nil {
		logger.Warn("failed to write wallet cache", slog.Any("error", err))
	}
	return wallet, nil
}

// TopUp пополняет кошелёк под той же блокировкой строки, что и Checkout
func (s *walletService) TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Wallet, error) {
	const op = "service.WalletService.TopUp"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID), slog.String("amount", amount.String()))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}
	if !ValidAmount(amount) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	logger.Info("starting top-up transaction")

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

	newBalance := wallet.Balance.Add(amount)
	if newBalance.GreaterThan(maxBalance) {
		rollback(logger, tx)
		return nil, fmt.Errorf("%s: balance limit exceeded: %w", op, ErrInvalidAmount)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		rollback(logger, tx)
		logger.Error("failed to update wallet balance", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update wallet balance: %w", op, err)
	}

	if err := s.walletTxRepo.CreateTransaction(ctx, tx, wallet.ID, amount, models.WalletTxTopUp, nil); err != nil {
		rollback(logger, tx)
		logger.Error("failed to record wallet transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to record wallet transaction: %w", op, err)
	}

	wallet.Balance = newBalance
	cacheWallet(ctx, logger, s.cache, wallet, s.cacheTTL)

	if err := tx.Commit(); err != nil {
		dropCachedWallet(ctx, logger, s.cache, accountID)
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("top-up completed successfully", slog.String("balance", newBalance.StringFixed(2)))
	return wallet, nil
}

func (s *walletService) History(ctx context.Context, accountID int64) ([]*models.WalletTransaction, error) {
	const op = "service.WalletService.History"
	logger := s.log.With(slog.String("op", op), slog.Int64("accountID", accountID))

	if accountID <= 0 {
		return nil, ErrUnauthenticated
	}

	wallet, err := s.walletRepo.GetWalletByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return nil, fmt.Errorf("%s: wallet: %w", op, ErrNotFound)
		}
		logger.Error("failed to get wallet", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get wallet: %w", op, err)
	}

	history, err := s.walletTxRepo.GetTransactionsByWalletID(ctx, wallet.ID)
	if err != nil {
		logger.Error("failed to get wallet transactions", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get wallet transactions: %w", op, err)
	}
	return history, nil
}

// cacheWallet вызывается до коммита, пока строка кошелька заблокирована:
// так записи в кэш идут в том же порядке, что и изменения баланса
func cacheWallet(ctx context.Context, logger *slog.Logger, c cache.Cache, wallet *models.Wallet, ttl time.Duration) {
	fresh := *wallet
	if err := c.Set(ctx, cache.WalletKey(wallet.AccountID), &fresh, ttl); err != nil {
		logger.Warn("failed to write wallet cache", slog.Any("error", err))
		dropCachedWallet(ctx, logger, c, wallet.AccountID)
	}
}

func dropCachedWallet(ctx context.Context, logger *slog.Logger, c cache.Cache, accountID int64) {
	if err := c.Delete(ctx, cache.WalletKey(accountID)); err != nil {
		logger.Warn("failed to invalidate wallet cache", slog.Any("error", err))
	}
}
