package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
)

var validate = validator.New()

// ErrorResponse: тело любого ответа с ошибкой
type ErrorResponse struct {
	Errors string `json:"errors"`
}

// InsufficientFundsResponse дополнительно отдаёт баланс и сумму заказа
type InsufficientFundsResponse struct {
	Errors  string `json:"errors"`
	Balance string `json:"balance"`
	Total   string `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// statusFor переводит ошибку сервиса в HTTP-статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrAccountLocked):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, storage.ErrResourceLocked):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError пишет ошибку сервиса. Текст внутренних ошибок наружу не отдаётся
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
		writeJSON(w, logger, status, ErrorResponse{Errors: "internal server error"})
		return
	}
	logger.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))

	var funds *service.InsufficientFundsError
	if errors.As(err, &funds) {
		writeJSON(w, logger, status, InsufficientFundsResponse{
			Errors:  service.ErrInsufficientFunds.Error(),
			Balance: funds.Balance.StringFixed(2),
			Total:   funds.Total.StringFixed(2),
		})
		return
	}
	writeJSON(w, logger, status, ErrorResponse{Errors: publicMessage(err)})
}

// publicMessage: для ошибок ввода отдаём текст целиком, для остальных только sentinel
func publicMessage(err error) string {
	sentinels := []error{
		service.ErrUnauthenticated, service.ErrInvalidCredentials, service.ErrForbidden,
		service.ErrAccountLocked, service.ErrNotFound, service.ErrAlreadyExists,
		service.ErrEmptyCart, service.ErrInvalidAmount, storage.ErrResourceLocked,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, service.ErrInvalidInput) {
		var unwrapped error = err
		for {
			next := errors.Unwrap(unwrapped)
			if next == nil || next == service.ErrInvalidInput {
				break
			}
			unwrapped = next
		}
		return unwrapped.Error()
	}
	return err.Error()
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Warn("invalid request: "+msg, slog.Any("error", err))
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Errors: msg})
}

// decodeRequest читает JSON-тело и проверяет его тегами validate
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, logger, "invalid request", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		badRequest(w, logger, "validation error", err)
		return false
	}
	return true
}

func accountID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Errors: "unauthorized"})
		return 0, false
	}
	return id, true
}

func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, logger, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
