package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ProductStorage описывает методы для работы с товарами каталога.
type ProductStorage interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	CountProducts(ctx context.Context, filter models.ProductFilter) (int, error)
	// ListRelatedProducts возвращает товары той же категории, кроме самого товара
	ListRelatedProducts(ctx context.Context, categoryID, excludeID int64, limit int) ([]*models.Product, error)
	CountProductsByCategory(ctx context.Context, categoryID int64) (int, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.category_id, c.name, p.price, p.image_name, p.description,
	       p.is_genuine, p.is_fast_ship, p.hint_text, p.storage_short, p.return_policy,
	       p.storage_guide, p.created_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// фильтр по тексту и категории, $1 = q, $2 = category_id
const productWhere = `
	WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%' OR c.name ILIKE '%' || $1 || '%')
	  AND ($2 = 0 OR p.category_id = $2)`

var productOrder = map[string]string{
	models.SortNewest:    " ORDER BY p.created_at DESC, p.id DESC",
	models.SortPriceAsc:  " ORDER BY p.price ASC, p.id DESC",
	models.SortPriceDesc: " ORDER BY p.price DESC, p.id DESC",
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.Price, &p.ImageName, &p.Description,
		&p.IsGenuine, &p.IsFastShip, &p.HintText, &p.StorageShort, &p.ReturnPolicy, &p.StorageGuide, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	order, ok := productOrder[filter.Sort]
	if !ok {
		order = productOrder[models.SortNewest]
	}
	query := productSelect + productWhere + order + " LIMIT $3 OFFSET $4"
	return r.queryProducts(ctx, query, filter.Query, filter.CategoryID, filter.Limit, filter.Offset)
}

func (r *productRepository) CountProducts(ctx context.Context, filter models.ProductFilter) (int, error) {
	query := "SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id" + productWhere
	var count int
	if err := r.db.QueryRowContext(ctx, query, filter.Query, filter.CategoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) ListRelatedProducts(ctx context.Context, categoryID, excludeID int64, limit int) ([]*models.Product, error) {
	query := productSelect + " WHERE p.category_id = $1 AND p.id <> $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3"
	return r.queryProducts(ctx, query, categoryID, excludeID, limit)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CountProductsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE category_id = $1", categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, category_id, price, image_name, description, is_genuine, is_fast_ship,
		                      hint_text, storage_short, return_policy, storage_guide)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.CategoryID, p.Price, p.ImageName, p.Description,
		p.IsGenuine, p.IsFastShip, p.HintText, p.StorageShort, p.ReturnPolicy, p.StorageGuide,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isForeignKey(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, category_id = $2, price = $3, image_name = $4, description = $5, is_genuine = $6,
		    is_fast_ship = $7, hint_text = $8, storage_short = $9, return_policy = $10, storage_guide = $11
		WHERE id = $12`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.CategoryID, p.Price, p.ImageName, p.Description,
		p.IsGenuine, p.IsFastShip, p.HintText, p.StorageShort, p.ReturnPolicy, p.StorageGuide, p.ID)
	if err != nil {
		if isForeignKey(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct: строки корзин удаляются каскадом, позиции заказов теряют ссылку (SET NULL)
func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
