package models

import "github.com/shopspring/decimal"

// Wallet хранит баланс аккаунта. Меняется только пополнением и оформлением заказа
type Wallet struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// MoneyScale: количество знаков после запятой в NUMERIC(10,2)
const MoneyScale = 2
