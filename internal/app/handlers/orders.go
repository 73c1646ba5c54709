package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

// MyOrdersHandler обрабатывает GET /api/orders
func MyOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MyOrdersHandler"))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		list, err := orders.MyOrders(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// OrderHandler обрабатывает GET /api/orders/{id}
func OrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.OrderHandler"))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}
		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		view, err := orders.OrderDetail(r.Context(), userID, orderID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, view)
	}
}
