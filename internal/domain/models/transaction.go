package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletTxTopUp    = "topup"
	WalletTxCheckout = "checkout"
)

// WalletTransaction представляет операцию по кошельку.
type WalletTransaction struct {
	ID        int64           `json:"id"`
	WalletID  int64           `json:"wallet_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"` // "topup" или "checkout"
	OrderID   *int64          `json:"order_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
