package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// CartResponse: счётчик корзины после изменения
type CartResponse struct {
	CartID   int64 `json:"cart_id"`
	Quantity int   `json:"quantity"`
}

type cartMutation func(ctx context.Context, accountID, productID int64) (*models.Cart, error)

// CartHandler обрабатывает GET /api/cart
func CartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}

		view, err := carts.View(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, view)
	}
}

func cartMutationHandler(log *slog.Logger, op string, mutate cartMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		userID, ok := accountID(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "productID")
		if !ok {
			return
		}

		cart, err := mutate(r.Context(), userID, productID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, CartResponse{CartID: cart.ID, Quantity: cart.Quantity})
	}
}

// CartAddHandler обрабатывает POST /api/cart/items/{productID}
func CartAddHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return cartMutationHandler(log, "handlers.CartAddHandler", carts.Add)
}

// CartIncrementHandler обрабатывает POST /api/cart/items/{productID}/inc
func CartIncrementHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return cartMutationHandler(log, "handlers.CartIncrementHandler", carts.Increment)
}

// CartDecrementHandler обрабатывает POST /api/cart/items/{productID}/dec
func CartDecrementHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return cartMutationHandler(log, "handlers.CartDecrementHandler", carts.Decrement)
}

// CartRemoveHandler обрабатывает DELETE /api/cart/items/{productID}
func CartRemoveHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return cartMutationHandler(log, "handlers.CartRemoveHandler", carts.Remove)
}
