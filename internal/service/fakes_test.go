package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
)

// fakeStore: общее in-memory хранилище, реализует все интерфейсы storage.
// Транзакции не эмулируются, их begin/commit/rollback проверяет sqlmock.
type fakeStore struct {
	accounts   map[int64]*models.Account
	profiles   map[int64]*models.AccountProfile
	wallets    map[int64]*models.Wallet // ключ: accountID
	walletTxs  []*models.WalletTransaction
	carts      map[int64]*models.Cart // ключ: accountID
	items      map[int64]*models.CartItem
	products   map[int64]*models.Product
	categories map[int64]*models.Category
	orders     map[int64]*models.Order
	orderItems map[int64][]*models.OrderItem

	nextID int64
	fail   map[string]error // имя метода -> ошибка

	// beforeLockCart вызывается перед блокировкой корзины, чтобы подменить её содержимое
	beforeLockCart func()
}

var (
	_ storage.AccountStorage           = (*fakeStore)(nil)
	_ storage.WalletStorage            = (*fakeStore)(nil)
	_ storage.WalletTransactionStorage = (*fakeStore)(nil)
	_ storage.CartStorage              = (*fakeStore)(nil)
	_ storage.ProductStorage           = (*fakeStore)(nil)
	_ storage.CategoryStorage          = (*fakeStore)(nil)
	_ storage.OrderStorage             = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:   make(map[int64]*models.Account),
		profiles:   make(map[int64]*models.AccountProfile),
		wallets:    make(map[int64]*models.Wallet),
		carts:      make(map[int64]*models.Cart),
		items:      make(map[int64]*models.CartItem),
		products:   make(map[int64]*models.Product),
		categories: make(map[int64]*models.Category),
		orders:     make(map[int64]*models.Order),
		orderItems: make(map[int64][]*models.OrderItem),
		fail:       make(map[string]error),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) failed(method string) error {
	return f.fail[method]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seed helpers

func (f *fakeStore) addAccount(username string, balance string) *models.Account {
	a := &models.Account{ID: f.id(), Username: username, Role: models.RoleUser, Status: models.StatusNormal, CreatedAt: time.Now()}
	f.accounts[a.ID] = a
	f.wallets[a.ID] = &models.Wallet{ID: f.id(), AccountID: a.ID, Balance: money(balance)}
	f.carts[a.ID] = &models.Cart{ID: f.id(), AccountID: a.ID}
	return a
}

func (f *fakeStore) addProduct(name, price string) *models.Product {
	var cat *models.Category
	for _, c := range f.categories {
		cat = c
	}
	if cat == nil {
		cat = &models.Category{ID: f.id(), Name: "Default"}
		f.categories[cat.ID] = cat
	}
	p := &models.Product{ID: f.id(), Name: name, CategoryID: cat.ID, CategoryName: cat.Name, Price: money(price), ImageName: strings.ToLower(name) + ".png", CreatedAt: time.Now()}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) putLine(accountID, productID int64, quantity int) {
	cart := f.carts[accountID]
	item := &models.CartItem{ID: f.id(), CartID: cart.ID, ProductID: productID, Quantity: quantity}
	f.items[item.ID] = item
	cart.Quantity = f.sumCart(cart.ID)
}

func (f *fakeStore) sumCart(cartID int64) int {
	total := 0
	for _, it := range f.items {
		if it.CartID == cartID {
			total += it.Quantity
		}
	}
	return total
}

func (f *fakeStore) cartByID(cartID int64) *models.Cart {
	for _, c := range f.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

// AccountStorage

func (f *fakeStore) CreateAccount(_ context.Context, _ *sql.Tx, account *models.Account) (*models.Account, error) {
	if err := f.failed("CreateAccount"); err != nil {
		return nil, err
	}
	for _, a := range f.accounts {
		if a.Username == account.Username {
			return nil, storage.ErrAccountExists
		}
	}
	account.ID = f.id()
	account.CreatedAt = time.Now()
	f.accounts[account.ID] = account
	return account, nil
}

func (f *fakeStore) CreateProfile(_ context.Context, _ *sql.Tx, profile *models.AccountProfile) error {
	f.profiles[profile.AccountID] = profile
	return nil
}

func (f *fakeStore) GetAccountByUsername(_ context.Context, username string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (f *fakeStore) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, storage.ErrAccountNotFound
}

func (f *fakeStore) ListAccounts(_ context.Context, q string, limit, offset int) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		if q == "" || strings.Contains(a.Username, q) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateAccount(_ context.Context, account *models.Account) error {
	for _, a := range f.accounts {
		if a.ID != account.ID && a.Username == account.Username {
			return storage.ErrAccountExists
		}
	}
	if _, ok := f.accounts[account.ID]; !ok {
		return storage.ErrAccountNotFound
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteAccount(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return storage.ErrAccountNotFound
	}
	delete(f.accounts, id)
	delete(f.wallets, id)
	delete(f.carts, id)
	return nil
}

// WalletStorage

func (f *fakeStore) CreateWallet(_ context.Context, _ *sql.Tx, accountID int64, balance decimal.Decimal) (*models.Wallet, error) {
	w := &models.Wallet{ID: f.id(), AccountID: accountID, Balance: balance}
	f.wallets[accountID] = w
	return w, nil
}

func (f *fakeStore) GetWalletByAccountID(_ context.Context, accountID int64) (*models.Wallet, error) {
	if w, ok := f.wallets[accountID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, storage.ErrWalletNotFound
}

func (f *fakeStore) LockWalletByAccountIDTx(ctx context.Context, _ *sql.Tx, accountID int64) (*models.Wallet, error) {
	if err := f.failed("LockWalletByAccountIDTx"); err != nil {
		return nil, err
	}
	return f.GetWalletByAccountID(ctx, accountID)
}

func (f *fakeStore) UpdateWalletBalance(_ context.Context, _ *sql.Tx, walletID int64, balance decimal.Decimal) error {
	for _, w := range f.wallets {
		if w.ID == walletID {
			w.Balance = balance
			return nil
		}
	}
	return storage.ErrWalletNotFound
}

// WalletTransactionStorage

func (f *fakeStore) CreateTransaction(_ context.Context, _ *sql.Tx, walletID int64, amount decimal.Decimal, txType string, orderID *int64) error {
	f.walletTxs = append(f.walletTxs, &models.WalletTransaction{
		ID: f.id(), WalletID: walletID, Amount: amount, Type: txType, OrderID: orderID, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) GetTransactionsByWalletID(_ context.Context, walletID int64) ([]*models.WalletTransaction, error) {
	var out []*models.WalletTransaction
	for i := len(f.walletTxs) - 1; i >= 0; i-- {
		if f.walletTxs[i].WalletID == walletID {
			out = append(out, f.walletTxs[i])
		}
	}
	return out, nil
}

// CartStorage

func (f *fakeStore) GetOrCreateCartTx(_ context.Context, _ *sql.Tx, accountID int64) (*models.Cart, error) {
	if c, ok := f.carts[accountID]; ok {
		cp := *c
		return &cp, nil
	}
	c := &models.Cart{ID: f.id(), AccountID: accountID}
	f.carts[accountID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeStore) LockCartByAccountIDTx(ctx context.Context, _ *sql.Tx, accountID int64) (*models.Cart, error) {
	if f.beforeLockCart != nil {
		f.beforeLockCart()
	}
	return f.GetCartByAccountID(ctx, accountID)
}

func (f *fakeStore) GetCartByAccountID(_ context.Context, accountID int64) (*models.Cart, error) {
	if c, ok := f.carts[accountID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, storage.ErrCartNotFound
}

func (f *fakeStore) GetCartItemTx(_ context.Context, _ *sql.Tx, cartID, productID int64) (*models.CartItem, error) {
	for _, it := range f.items {
		if it.CartID == cartID && it.ProductID == productID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, storage.ErrCartItemNotFound
}

func (f *fakeStore) CreateCartItem(_ context.Context, _ *sql.Tx, cartID, productID int64, quantity int) (*models.CartItem, error) {
	it := &models.CartItem{ID: f.id(), CartID: cartID, ProductID: productID, Quantity: quantity}
	f.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (f *fakeStore) UpdateCartItemQuantity(_ context.Context, _ *sql.Tx, itemID int64, quantity int) error {
	it, ok := f.items[itemID]
	if !ok {
		return storage.ErrCartItemNotFound
	}
	it.Quantity = quantity
	return nil
}

func (f *fakeStore) DeleteCartItem(_ context.Context, _ *sql.Tx, itemID int64) error {
	delete(f.items, itemID)
	return nil
}

func (f *fakeStore) DeleteCartItems(_ context.Context, _ *sql.Tx, cartID int64) error {
	for id, it := range f.items {
		if it.CartID == cartID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) RecalcCartQuantity(_ context.Context, _ *sql.Tx, cartID int64) (int, error) {
	c := f.cartByID(cartID)
	if c == nil {
		return 0, storage.ErrCartNotFound
	}
	c.Quantity = f.sumCart(cartID)
	return c.Quantity, nil
}

func (f *fakeStore) GetCartLines(_ context.Context, cartID int64) ([]*models.CartLine, error) {
	var lines []*models.CartLine
	for _, it := range f.items {
		if it.CartID != cartID {
			continue
		}
		p, ok := f.products[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, &models.CartLine{
			CartItem:     *it,
			ProductName:  p.Name,
			CategoryName: p.CategoryName,
			UnitPrice:    p.Price,
			ImageName:    p.ImageName,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (f *fakeStore) GetCartLinesTx(ctx context.Context, _ *sql.Tx, cartID int64) ([]*models.CartLine, error) {
	return f.GetCartLines(ctx, cartID)
}

// ProductStorage

func (f *fakeStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, storage.ErrProductNotFound
}

func (f *fakeStore) ListProducts(_ context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) CountProducts(ctx context.Context, filter models.ProductFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	out, err := f.ListProducts(ctx, filter)
	return len(out), err
}

func (f *fakeStore) ListRelatedProducts(_ context.Context, categoryID, excludeID int64, limit int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		if p.CategoryID == categoryID && p.ID != excludeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountProductsByCategory(_ context.Context, categoryID int64) (int, error) {
	n := 0
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	if _, ok := f.categories[p.CategoryID]; !ok {
		return nil, storage.ErrCategoryNotFound
	}
	p.ID = f.id()
	p.CreatedAt = time.Now()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return storage.ErrProductNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

// DeleteProduct повторяет каскад: строки корзин удаляются, позиции заказов теряют ссылку
func (f *fakeStore) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	for itemID, it := range f.items {
		if it.ProductID == id {
			delete(f.items, itemID)
		}
	}
	for _, items := range f.orderItems {
		for _, oi := range items {
			if oi.ProductID != nil && *oi.ProductID == id {
				oi.ProductID = nil
			}
		}
	}
	return nil
}

// CategoryStorage

func (f *fakeStore) ListCategories(ctx context.Context, q string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		if q == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			cp := *c
			cp.ProductCount, _ = f.CountProductsByCategory(ctx, c.ID)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, storage.ErrCategoryNotFound
}

func (f *fakeStore) CategoryNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, c := range f.categories {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	c := &models.Category{ID: f.id(), Name: name}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, id int64, name string) error {
	c, ok := f.categories[id]
	if !ok {
		return storage.ErrCategoryNotFound
	}
	c.Name = name
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

// OrderStorage

func (f *fakeStore) CreateOrder(_ context.Context, _ *sql.Tx, order *models.Order) (*models.Order, error) {
	if err := f.failed("CreateOrder"); err != nil {
		return nil, err
	}
	order.ID = f.id()
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeStore) CreateOrderItem(_ context.Context, _ *sql.Tx, item *models.OrderItem) error {
	if err := f.failed("CreateOrderItem"); err != nil {
		return err
	}
	item.ID = f.id()
	cp := *item
	f.orderItems[item.OrderID] = append(f.orderItems[item.OrderID], &cp)
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		cp := *o
		cp.Items = nil
		return &cp, nil
	}
	return nil, storage.ErrOrderNotFound
}

func (f *fakeStore) GetOrdersByAccountID(_ context.Context, accountID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.AccountID == accountID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) ListOrders(_ context.Context, limit, offset int) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetOrderItems(_ context.Context, orderID int64) ([]*models.OrderItem, error) {
	return f.orderItems[orderID], nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int64, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

// fakeCache: map вместо redis, Get понимает только типы, которые кэшируют сервисы
type fakeCache struct {
	data    map[string]any
	deleted []string
	// beforeSetNX срабатывает между чтением из БД и заполнением кэша
	beforeSetNX func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]any)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *models.Wallet:
		*d = *(v.(*models.Wallet))
	case *service.ProductDetail:
		*d = *(v.(*service.ProductDetail))
	default:
		return false, nil
	}
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if c.beforeSetNX != nil {
		c.beforeSetNX()
	}
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}
