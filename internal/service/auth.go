package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/storage"
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]{3,20}$`)

// bcrypt не принимает пароли длиннее 72 байт
const maxPasswordBytes = 72

func checkPasswordLen(password string) error {
	if len(password) > maxPasswordBytes {
		return invalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

type AuthServiceInterface interface {
	Register(ctx context.Context, username, password, confirm string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthService struct {
	log         *slog.Logger
	db          *sql.DB
	provisioner *accountProvisioner
	accountRepo storage.AccountStorage
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuthService(
	log *slog.Logger,
	db *sql.DB,
	accountRepo storage.AccountStorage,
	cartRepo storage.CartStorage,
	walletRepo storage.WalletStorage,
	walletTxRepo storage.WalletTransactionStorage,
	startingBalance decimal.Decimal,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		log: log,
		db:  db,
		provisioner: &accountProvisioner{
			accountRepo:     accountRepo,
			cartRepo:        cartRepo,
			walletRepo:      walletRepo,
			walletTxRepo:    walletTxRepo,
			startingBalance: startingBalance,
		},
		accountRepo: accountRepo,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

// Register создаёт аккаунт покупателя вместе с профилем, корзиной и кошельком одной транзакцией
func (a *AuthService) Register(ctx context.Context, username, password, confirm string) (*models.Account, error) {
	const op = "service.AuthService.Register"
	username = strings.TrimSpace(username)
	logger := a.log.With(slog.String("op", op), slog.String("username", username))

	if !usernameRe.MatchString(username) {
		return nil, invalidInput("username must be 3-20 letters, digits or @.+-_")
	}
	if password == "" {
		return nil, invalidInput("password is required")
	}
	if err := checkPasswordLen(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, invalidInput("passwords do not match")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	account, err := a.provisioner.provision(ctx, tx, &models.Account{
		Username: username,
		PassHash: passHash,
		Role:     models.RoleUser,
		Status:   models.StatusNormal,
	})
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, ErrAlreadyExists) {
			logger.Info("username already taken")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to provision account", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("account registered", slog.Int64("accountID", account.ID))
	return account, nil
}

// Login проверяет пароль и статус аккаунта и выдаёт JWT-токен.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	const op = "service.AuthService.Login"
	username = strings.TrimSpace(username)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)
	logger.Info("checking user")

	account, err := a.accountRepo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			logger.Warn("account not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get account", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get account: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if account.IsLocked() {
		logger.Warn("account is locked")
		return "", fmt.Errorf("%s: %w", op, ErrAccountLocked)
	}

	token, err := security.NewToken(account, a.jwtSecret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("accountID", account.ID))
	return token, nil
}

// accountProvisioner создаёт аккаунт со всеми зависимыми строками. Общий для регистрации и админки
type accountProvisioner struct {
	accountRepo     storage.AccountStorage
	cartRepo        storage.CartStorage
	walletRepo      storage.WalletStorage
	walletTxRepo    storage.WalletTransactionStorage
	startingBalance decimal.Decimal
}

func (p *accountProvisioner) provision(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error) {
	account, err := p.accountRepo.CreateAccount(ctx, tx, account)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// профиль с заглушками, пользователь заполняет его позже
	err = p.accountRepo.CreateProfile(ctx, tx, &models.AccountProfile{
		AccountID:   account.ID,
		FullName:    account.Username,
		DateOfBirth: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		Email:       account.Username + "@example.com",
		PhoneNumber: "0000000000",
	})
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if _, err := p.cartRepo.GetOrCreateCartTx(ctx, tx, account.ID); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	wallet, err := p.walletRepo.CreateWallet(ctx, tx, account.ID, p.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if p.startingBalance.IsPositive() {
		if err := p.walletTxRepo.CreateTransaction(ctx, tx, wallet.ID, p.startingBalance, models.WalletTxTopUp, nil); err != nil {
			return nil, fmt.Errorf("failed to record starting balance: %w", err)
		}
	}
	return account, nil
}
