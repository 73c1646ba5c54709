package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

var productCols = []string{"id", "name", "category_id", "category_name", "price", "image_name", "description",
	"is_genuine", "is_fast_ship", "hint_text", "storage_short", "return_policy", "storage_guide", "created_at"}

func TestGetProductByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(productCols).
		AddRow(10, "Apple", 1, "Fruit", "10.00", "apple.png", "red", true, false, "", "", "", "", now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs(int64(10)).WillReturnRows(rows)

	p, err := repo.GetProductByID(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, "Apple", p.Name)
	assert.Equal(t, "Fruit", p.CategoryName)
	assert.True(t, decimal.NewFromInt(10).Equal(p.Price))
	assert.True(t, p.IsGenuine)
	assert.False(t, p.IsFastShip)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(productCols))
	p, err = repo.GetProductByID(context.Background(), 99)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, storage.ErrProductNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_SortAndFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(productCols).
		AddRow(11, "Pear", 1, "Fruit", "5.50", "", "", true, true, "", "", "", "", now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.price ASC, p.id DESC LIMIT $3 OFFSET $4")).
		WithArgs("pe", int64(1), 10, 0).WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background(), models.ProductFilter{
		Query: "pe", CategoryID: 1, Sort: models.SortPriceAsc, Limit: 10,
	})
	assert.NoError(t, err)
	assert.Len(t, products, 1)

	// неизвестная сортировка откатывается к новым первыми
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_at DESC, p.id DESC LIMIT $3 OFFSET $4")).
		WithArgs("", int64(0), 8, 0).WillReturnRows(sqlmock.NewRows(productCols))

	products, err = repo.ListProducts(context.Background(), models.ProductFilter{Sort: "bogus", Limit: 8})
	assert.NoError(t, err)
	assert.Empty(t, products)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).WillReturnError(&pq.Error{Code: "23503"})

	p, err := repo.CreateProduct(context.Background(), &models.Product{Name: "X", CategoryID: 42, Price: decimal.NewFromInt(1)})
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, storage.ErrCategoryNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteProduct(context.Background(), 3)
	assert.True(t, errors.Is(err, storage.ErrProductNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryNameTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1) AND id <> $2")).
		WithArgs("fruit", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.CategoryNameTaken(context.Background(), "fruit", 0)
	assert.NoError(t, err)
	assert.True(t, taken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCategoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "count"}).AddRow(2, "Veg", 0).AddRow(1, "Fruit", 5)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN products p ON p.category_id = c.id")).
		WithArgs("").WillReturnRows(rows)

	categories, err := repo.ListCategories(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, 5, categories[1].ProductCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_InUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCategoryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs(int64(1)).WillReturnError(&pq.Error{Code: "23503"})

	err = repo.DeleteCategory(context.Background(), 1)
	assert.True(t, errors.Is(err, storage.ErrCategoryInUse))

	assert.NoError(t, mock.ExpectationsWereMet())
}
