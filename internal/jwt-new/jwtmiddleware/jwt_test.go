package jwtmiddleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/storage"
)

const secret = "testsecret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			http.Error(w, "userID not found", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strconv.FormatInt(userID, 10)))
	})
}

func TestJWTMiddleware_MissingAuthorization(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(secret)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "missing token"))
}

func TestJWTMiddleware_InvalidAuthorizationFormat(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(secret)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "InvalidFormat")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "invalid token format"))
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	tokenStr, err := security.NewToken(&models.Account{ID: 5, Role: models.RoleUser}, "other", time.Hour)
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(secret)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	tokenStr, err := security.NewToken(&models.Account{ID: 5, Role: models.RoleUser}, secret, -time.Minute)
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(secret)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tokenStr, err := security.NewToken(&models.Account{ID: 123, Username: "alice", Role: models.RoleUser}, secret, time.Hour)
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(secret)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "123", rr.Body.String())
}

func TestNewToken_EmptySecret(t *testing.T) {
	_, err := security.NewToken(&models.Account{ID: 1}, "", time.Hour)
	assert.ErrorIs(t, err, security.ErrEmptySecret)
}

func TestFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), jwtmiddleware.UserIDKey, int64(456))
	userID, ok := jwtmiddleware.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(456), userID)

	_, ok = jwtmiddleware.FromContext(context.Background())
	assert.False(t, ok)
}

type fakeAccounts map[int64]*models.Account

func (f fakeAccounts) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, storage.ErrAccountNotFound
}

func TestRequireAdmin(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	accounts := fakeAccounts{
		1: {ID: 1, Role: models.RoleAdmin, Status: models.StatusNormal},
		2: {ID: 2, Role: models.RoleUser, Status: models.StatusNormal},
		3: {ID: 3, Role: models.RoleAdmin, Status: models.StatusLocked},
	}
	handler := jwtmiddleware.RequireAdmin(log, accounts)(okHandler())

	cases := []struct {
		name   string
		userID int64
		want   int
	}{
		{"active admin", 1, http.StatusOK},
		{"plain user", 2, http.StatusForbidden},
		{"locked admin", 3, http.StatusForbidden},
		{"unknown account", 4, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), jwtmiddleware.UserIDKey, tc.userID))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
