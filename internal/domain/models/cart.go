package models

import "github.com/shopspring/decimal"

// Cart: корзина аккаунта. Quantity всегда равно сумме количеств по строкам
type Cart struct {
	ID        int64 `json:"id"`
	AccountID int64 `json:"account_id"`
	Quantity  int   `json:"quantity"`
}

// CartItem: строка корзины, уникальна по паре (cart, product)
type CartItem struct {
	ID        int64 `json:"id"`
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLine: строка корзины вместе с текущими данными товара
type CartLine struct {
	CartItem
	ProductName  string          `json:"product_name"`
	CategoryName string          `json:"category_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ImageName    string          `json:"image_name"`
}

// Subtotal считается по живой цене товара
func (l *CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartQuantity пересчитывает счётчик корзины по текущим строкам
func CartQuantity(lines []*CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// CartTotal: сумма подытогов по всем строкам
func CartTotal(lines []*CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
