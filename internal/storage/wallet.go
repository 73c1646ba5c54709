package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
)

var ErrWalletNotFound = errors.New("wallet not found")

// WalletStorage описывает методы для работы с кошельками.
type WalletStorage interface {
	CreateWallet(ctx context.Context, tx *sql.Tx, accountID int64, balance decimal.Decimal) (*models.Wallet, error)
	GetWalletByAccountID(ctx context.Context, accountID int64) (*models.Wallet, error)
	// LockWalletByAccountIDTx берёт блокировку строки до конца транзакции
	LockWalletByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Wallet, error)
	UpdateWalletBalance(ctx context.Context, tx *sql.Tx, walletID int64, balance decimal.Decimal) error
}

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) WalletStorage {
	return &walletRepository{db: db}
}

func (r *walletRepository) CreateWallet(ctx context.Context, tx *sql.Tx, accountID int64, balance decimal.Decimal) (*models.Wallet, error) {
	wallet := &models.Wallet{AccountID: accountID, Balance: balance}
	err := tx.QueryRowContext(ctx,
		"INSERT INTO wallets (account_id, balance) VALUES ($1, $2) RETURNING id",
		accountID, balance,
	).Scan(&wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) GetWalletByAccountID(ctx context.Context, accountID int64) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	row := r.db.QueryRowContext(ctx, "SELECT id, account_id, balance FROM wallets WHERE account_id = $1", accountID)
	if err := row.Scan(&wallet.ID, &wallet.AccountID, &wallet.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) LockWalletByAccountIDTx(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	row := tx.QueryRowContext(ctx, "SELECT id, account_id, balance FROM wallets WHERE account_id = $1 FOR UPDATE", accountID)
	if err := row.Scan(&wallet.ID, &wallet.AccountID, &wallet.Balance); err != nil {
		if isLockNotAvailable(err) { // lock
			return nil, fmt.Errorf("%w: %v", ErrResourceLocked, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) UpdateWalletBalance(ctx context.Context, tx *sql.Tx, walletID int64, balance decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, "UPDATE wallets SET balance = $1 WHERE id = $2", balance, walletID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWalletNotFound
	}
	return nil
}
