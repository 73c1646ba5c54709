package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// CheckoutRequest: данные получателя, пустые поля сервис отклонит после trim
type CheckoutRequest struct {
	ReceiverName    string `json:"receiver_name" validate:"max=100"`
	ReceiverPhone   string `json:"receiver_phone" validate:"max=20"`
	ReceiverAddress string `json:"receiver_address" validate:"max=255"`
}

// CheckoutHandler обрабатывает POST /api/checkout
func CheckoutHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		var req CheckoutRequest
		if !decodeRequest(w, r, logger, &req) {
			return
		}

		order, err := checkout.Checkout(r.Context(), userID, models.Receiver{
			Name:    req.ReceiverName,
			Phone:   req.ReceiverPhone,
			Address: req.ReceiverAddress,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		logger.Info("order placed", slog.Int64("orderID", order.ID))
		writeJSON(w, logger, http.StatusCreated, order)
	}
}
