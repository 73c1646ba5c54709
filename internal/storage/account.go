package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// AccountStorage описывает методы для работы с аккаунтами и профилями.
type AccountStorage interface {
	CreateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error)
	CreateProfile(ctx context.Context, tx *sql.Tx, profile *models.AccountProfile) error
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context, q string, limit, offset int) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountStorage {
	return &accountRepository{db: db}
}

const accountColumns = "id, username, pass_hash, role, status, created_at"

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	account := &models.Account{}
	if err := row.Scan(&account.ID, &account.Username, &account.PassHash, &account.Role, &account.Status, &account.CreatedAt); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) CreateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error) {
	err := tx.QueryRowContext(ctx,
		"INSERT INTO accounts (username, pass_hash, role, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		account.Username, account.PassHash, account.Role, account.Status,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// CreateProfile: email уникален, конфликт тоже считаем дублем аккаунта
func (r *accountRepository) CreateProfile(ctx context.Context, tx *sql.Tx, profile *models.AccountProfile) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO account_profiles (account_id, full_name, date_of_birth, email, phone_number)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.AccountID, profile.FullName, profile.DateOfBirth, profile.Email, profile.PhoneNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *accountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE username = $1", username)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts: пустой q означает без фильтра
func (r *accountRepository) ListAccounts(ctx context.Context, q string, limit, offset int) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE $1 = '' OR username ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET username = $1, pass_hash = $2, role = $3, status = $4 WHERE id = $5",
		account.Username, account.PassHash, account.Role, account.Status, account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount: профиль, кошелёк, корзина и заказы удаляются каскадом
func (r *accountRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
