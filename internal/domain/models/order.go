package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPaid      = "PAID"
	OrderStatusPending   = "PENDING"
	OrderStatusFailed    = "FAILED"
	OrderStatusCancelled = "CANCELLED"
)

// ValidOrderStatus проверяет статус без учёта регистра и возвращает каноничное значение
func ValidOrderStatus(status string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(status))
	switch s {
	case OrderStatusPaid, OrderStatusPending, OrderStatusFailed, OrderStatusCancelled:
		return s, true
	}
	return "", false
}

// Receiver: данные получателя, копируются в заказ при оформлении
type Receiver struct {
	Name    string `json:"receiver_name"`
	Phone   string `json:"receiver_phone"`
	Address string `json:"receiver_address"`
}

// Trimmed возвращает копию без пробелов по краям
func (r Receiver) Trimmed() Receiver {
	return Receiver{
		Name:    strings.TrimSpace(r.Name),
		Phone:   strings.TrimSpace(r.Phone),
		Address: strings.TrimSpace(r.Address),
	}
}

func (r Receiver) Complete() bool {
	return r.Name != "" && r.Phone != "" && r.Address != ""
}

// Order представляет оплаченный (или иной статус) заказ
type Order struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Username    string          `json:"username,omitempty"` // для админки, через JOIN
	Reference   uuid.UUID       `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Receiver
	Items []*OrderItem `json:"items,omitempty"`
}

// OrderItem: снимок строки корзины на момент покупки
type OrderItem struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order_id"`
	ProductID        *int64          `json:"product_id,omitempty"` // товар может быть удалён
	ProductName      string          `json:"product_name"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	ProductImageName string          `json:"product_image_name"`
}

func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SnapshotCartLine копирует значения строки корзины в позицию заказа
func SnapshotCartLine(orderID int64, line *CartLine) *OrderItem {
	productID := line.ProductID
	return &OrderItem{
		OrderID:          orderID,
		ProductID:        &productID,
		ProductName:      line.ProductName,
		UnitPrice:        line.UnitPrice,
		Quantity:         line.Quantity,
		ProductImageName: line.ImageName,
	}
}
