package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category: категория каталога
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// Product представляет товар каталога. Цена читается вживую, фиксируется только в заказе
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"` // заполняется через JOIN
	Price        decimal.Decimal `json:"price"`
	ImageName    string          `json:"image_name"`
	Description  string          `json:"description"`
	IsGenuine    bool            `json:"is_genuine"`
	IsFastShip   bool            `json:"is_fast_ship"`
	HintText     string          `json:"hint_text"`
	StorageShort string          `json:"storage_short"`
	ReturnPolicy string          `json:"return_policy"`
	StorageGuide string          `json:"storage_guide"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	SortNewest    = "new"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ProductFilter: параметры выборки товаров
type ProductFilter struct {
	Query      string
	CategoryID int64
	Sort       string
	Limit      int
	Offset     int
}
