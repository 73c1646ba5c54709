package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrResourceLocked возвращается, когда строку держит другая транзакция дольше lock_timeout
var ErrResourceLocked = errors.New("resource is locked, please try again")

const (
	pqLockNotAvailable = "55P03"
	pqUniqueViolation  = "23505"
	pqForeignKey       = "23503"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isLockNotAvailable(err error) bool { return pqCode(err) == pqLockNotAvailable }
func isUniqueViolation(err error) bool  { return pqCode(err) == pqUniqueViolation }
func isForeignKey(err error) bool       { return pqCode(err) == pqForeignKey }

// querier: общий интерфейс *sql.DB и *sql.Tx для чтения
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
