package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// UserInput: пустой Password при редактировании оставляет прежний пароль
type UserInput struct {
	Username string
	Password string
	Role     string
	Status   string
}

type AdminUserService interface {
	ListUsers(ctx context.Context, q string, page int) ([]*models.Account, error)
	CreateUser(ctx context.Context, in UserInput) (*models.Account, error)
	UpdateUser(ctx context.Context, actorID, id int64, in UserInput) (*models.Account, error)
	ToggleUser(ctx context.Context, actorID, id int64) (*models.Account, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
}

type adminUserService struct {
	log         *slog.Logger
	db          *sql.DB
	accountRepo storage.AccountStorage
	provisioner *accountProvisioner
	pageSize    int
}

func NewAdminUserService(
	log *slog.Logger,
	db *sql.DB,
	accountRepo storage.AccountStorage,
	cartRepo storage.CartStorage,
	walletRepo storage.WalletStorage,
	walletTxRepo storage.WalletTransactionStorage,
	pageSize int,
) AdminUserService {
	return &adminUserService{
		log:         log,
		db:          db,
		accountRepo: accountRepo,
		provisioner: &accountProvisioner{
			accountRepo:     accountRepo,
			cartRepo:        cartRepo,
			walletRepo:      walletRepo,
			walletTxRepo:    walletTxRepo,
			startingBalance: decimal.Zero,
		},
		pageSize: pageSize,
	}
}

func normalizeUserInput(in *UserInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Status == "" {
		in.Status = models.StatusNormal
	}
	if !usernameRe.MatchString(in.Username) {
		return invalidInput("username must be 3-20 letters, digits or @.+-_")
	}
	if err := checkPasswordLen(in.Password); err != nil {
		return err
	}
	if !models.ValidRole(in.Role) {
		return invalidInput("unknown role")
	}
	if !models.ValidStatus(in.Status) {
		return invalidInput("unknown status")
	}
	return nil
}

func (s *adminUserService) ListUsers(ctx context.Context, q string, page int) ([]*models.Account, error) {
	const op = "service.AdminUserService.ListUsers"

	_, off := offset(page, s.pageSize)
	accounts, err := s.accountRepo.ListAccounts(ctx, strings.TrimSpace(q), s.pageSize, off)
	if err != nil {
		s.log.Error("failed to list accounts", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list accounts: %w", op, err)
	}
	return accounts, nil
}

func (s *adminUserService) CreateUser(ctx context.Context, in UserInput) (*models.Account, error) {
	const op = "service.AdminUserService.CreateUser"
	logger := s.log.With(slog.String("op", op), slog.String("username", in.Username))

	if err := normalizeUserInput(&in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, invalidInput("password is required"))
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	account, err := s.provisioner.provision(ctx, tx, &models.Account{
		Username: in.Username,
		PassHash: passHash,
		Role:     in.Role,
		Status:   in.Status,
	})
	if err != nil {
		rollback(logger, tx)
		if !errors.Is(err, ErrAlreadyExists) {
			logger.Error("failed to provision account", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("account created", slog.Int64("accountID", account.ID))
	return account, nil
}

func (s *adminUserService) getAccount(ctx context.Context, op string, id int64) (*models.Account, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: account %d: %w", op, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get account: %w", op, err)
	}
	return account, nil
}

func (s *adminUserService) save(ctx context.Context, op string, logger *slog.Logger, account *models.Account) error {
	if err := s.accountRepo.UpdateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, storage.ErrAccountExists):
			return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		case errors.Is(err, storage.ErrAccountNotFound):
			return fmt.Errorf("%s: account %d: %w", op, account.ID, ErrNotFound)
		}
		logger.Error("failed to update account", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update account: %w", op, err)
	}
	return nil
}

func (s *adminUserService) UpdateUser(ctx context.Context, actorID, id int64, in UserInput) (*models.Account, error) {
	const op = "service.AdminUserService.UpdateUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("actorID", actorID), slog.Int64("accountID", id))

	if err := normalizeUserInput(&in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actorID == id && in.Status == models.StatusLocked {
		return nil, fmt.Errorf("%s: %w", op, invalidInput("cannot lock your own account"))
	}

	account, err := s.getAccount(ctx, op, id)
	if err != nil {
		return nil, err
	}

	account.Username = in.Username
	account.Role = in.Role
	account.Status = in.Status
	if in.Password != "" {
		passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash password", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		account.PassHash = passHash
	}

	if err := s.save(ctx, op, logger, account); err != nil {
		return nil, err
	}
	logger.Info("account updated")
	return account, nil
}

// ToggleUser переключает normal <-> locked
func (s *adminUserService) ToggleUser(ctx context.Context, actorID, id int64) (*models.Account, error) {
	const op = "service.AdminUserService.ToggleUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("actorID", actorID), slog.Int64("accountID", id))

	if actorID == id {
		return nil, fmt.Errorf("%s: %w", op, invalidInput("cannot lock your own account"))
	}

	account, err := s.getAccount(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if account.Status == models.StatusNormal {
		account.Status = models.StatusLocked
	} else {
		account.Status = models.StatusNormal
	}

	if err := s.save(ctx, op, logger, account); err != nil {
		return nil, err
	}
	logger.Info("account status toggled", slog.String("status", account.Status))
	return account, nil
}

func (s *adminUserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	const op = "service.AdminUserService.DeleteUser"
	logger := s.log.With(slog.String("op", op), slog.Int64("actorID", actorID), slog.Int64("accountID", id))

	if actorID == id {
		return fmt.Errorf("%s: %w", op, invalidInput("cannot delete your own account"))
	}

	if err := s.accountRepo.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return fmt.Errorf("%s: account %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to delete account", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete account: %w", op, err)
	}

	logger.Info("account deleted")
	return nil
}
