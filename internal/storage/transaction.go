package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
)

// WalletTransactionStorage описывает методы для работы с журналом операций по кошельку.
type WalletTransactionStorage interface {
	// CreateTransaction пишет запись об операции в рамках транзакции списания/пополнения.
	CreateTransaction(ctx context.Context, tx *sql.Tx, walletID int64, amount decimal.Decimal, txType string, orderID *int64) error
	// GetTransactionsByWalletID возвращает операции кошелька, новые первыми.
	GetTransactionsByWalletID(ctx context.Context, walletID int64) ([]*models.WalletTransaction, error)
}

type walletTransactionRepository struct {
	db *sql.DB
}

func NewWalletTransactionRepository(db *sql.DB) WalletTransactionStorage {
	return &walletTransactionRepository{db: db}
}

func (r *walletTransactionRepository) CreateTransaction(ctx context.Context, tx *sql.Tx, walletID int64, amount decimal.Decimal, txType string, orderID *int64) error {
	query := `INSERT INTO wallet_transactions (wallet_id, amount, type, order_id, created_at)
	          VALUES ($1, $2, $3, $4, NOW())`
	_, err := tx.ExecContext(ctx, query, walletID, amount, txType, orderID)
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

func (r *walletTransactionRepository) GetTransactionsByWalletID(ctx context.Context, walletID int64) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, amount, type, order_id, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*models.WalletTransaction{}
	for rows.Next() {
		wt := &models.WalletTransaction{}
		if err := rows.Scan(&wt.ID, &wt.WalletID, &wt.Amount, &wt.Type, &wt.OrderID, &wt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		transactions = append(transactions, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}
