package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/service"
)

// TopUpRequest: сумма принимается строкой или числом
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type WalletResponse struct {
	Balance string `json:"balance"`
}

// WalletHandler обрабатывает GET /api/wallet
func WalletHandler(log *slog.Logger, wallets service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.WalletHandler"))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		wallet, err := wallets.Balance(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, WalletResponse{Balance: wallet.Balance.StringFixed(2)})
	}
}

// TopUpHandler обрабатывает POST /api/wallet/topup
func TopUpHandler(log *slog.Logger, wallets service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TopUpHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		var req TopUpRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		wallet, err := wallets.TopUp(r.Context(), userID, req.Amount)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, WalletResponse{Balance: wallet.Balance.StringFixed(2)})
	}
}

// WalletTransactionsHandler обрабатывает GET /api/wallet/transactions
func WalletTransactionsHandler(log *slog.Logger, wallets service.WalletService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.WalletTransactionsHandler"))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		history, err := wallets.History(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, history)
	}
}
