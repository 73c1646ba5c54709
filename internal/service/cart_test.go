package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

func TestCartService_AddIncrementDecrementRemove(t *testing.T) {
	store := newFakeStore()
	account := store.addAccount("alice", "0")
	apple := store.addProduct("Apple", "10.00")
	pear := store.addProduct("Pear", "5.50")

	db, mock := newMockDB(t)
	svc := service.NewCartService(testLogger(), db, store, store)
	ctx := context.Background()
	cartID := store.carts[account.ID].ID

	steps := []struct {
		name    string
		run     func() (*models.Cart, error)
		wantQty int
	}{
		{"add apple", func() (*models.Cart, error) { return svc.Add(ctx, account.ID, apple.ID) }, 1},
		{"add apple again", func() (*models.Cart, error) { return svc.Add(ctx, account.ID, apple.ID) }, 2},
		{"increment pear", func() (*models.Cart, error) { return svc.Increment(ctx, account.ID, pear.ID) }, 3},
		{"decrement apple", func() (*models.Cart, error) { return svc.Decrement(ctx, account.ID, apple.ID) }, 2},
		{"decrement apple to zero", func() (*models.Cart, error) { return svc.Decrement(ctx, account.ID, apple.ID) }, 1},
		{"decrement missing line", func() (*models.Cart, error) { return svc.Decrement(ctx, account.ID, apple.ID) }, 1},
		{"remove pear", func() (*models.Cart, error) { return svc.Remove(ctx, account.ID, pear.ID) }, 0},
	}

	for _, step := range steps {
		mock.ExpectBegin()
		mock.ExpectCommit()

		cart, err := step.run()
		require.NoError(t, err, step.name)
		assert.Equal(t, step.wantQty, cart.Quantity, step.name)
		// счётчик всегда равен сумме строк
		assert.Equal(t, store.sumCart(cartID), store.carts[account.ID].Quantity, step.name)
		// строк с количеством <= 0 не бывает
		for _, it := range store.items {
			assert.Greater(t, it.Quantity, 0, step.name)
		}
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartService_AddCreatesMissingCart(t *testing.T) {
	store := newFakeStore()
	account := store.addAccount("alice", "0")
	delete(store.carts, account.ID)
	apple := store.addProduct("Apple", "10.00")

	db, mock := newMockDB(t)
	svc := service.NewCartService(testLogger(), db, store, store)

	mock.ExpectBegin()
	mock.ExpectCommit()

	cart, err := svc.Add(context.Background(), account.ID, apple.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity)
	assert.NotNil(t, store.carts[account.ID])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartService_Errors(t *testing.T) {
	store := newFakeStore()
	account := store.addAccount("alice", "0")
	apple := store.addProduct("Apple", "10.00")

	db, mock := newMockDB(t)
	svc := service.NewCartService(testLogger(), db, store, store)
	ctx := context.Background()

	_, err := svc.Add(ctx, 0, apple.ID)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = svc.Add(ctx, account.ID, 404)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Remove(ctx, account.ID, 404)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// у аккаунта нет корзины: dec/remove отдают NotFound и откатываются
	delete(store.carts, account.ID)
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Decrement(ctx, account.ID, apple.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartService_ViewUsesLivePrices(t *testing.T) {
	store := newFakeStore()
	account := store.addAccount("alice", "0")
	apple := store.addProduct("Apple", "10.00")
	pear := store.addProduct("Pear", "5.50")
	store.putLine(account.ID, apple.ID, 2)
	store.putLine(account.ID, pear.ID, 1)

	db, _ := newMockDB(t)
	svc := service.NewCartService(testLogger(), db, store, store)

	view, err := svc.View(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Quantity)
	assert.True(t, money("25.50").Equal(view.Total))
	require.Len(t, view.Items, 2)
	assert.True(t, money("20.00").Equal(view.Items[0].Subtotal))
	assert.Equal(t, "Default", view.Items[0].CategoryName)

	store.products[apple.ID].Price = money("12.00")
	view, err = svc.View(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, money("29.50").Equal(view.Total))
}

func TestCartService_ViewWithoutCart(t *testing.T) {
	store := newFakeStore()
	db, _ := newMockDB(t)
	svc := service.NewCartService(testLogger(), db, store, store)

	view, err := svc.View(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Quantity)
	assert.True(t, view.Total.IsZero())

	_, err = svc.View(context.Background(), -1)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}
