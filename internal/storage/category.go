package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrCategoryExists = errors.New("category already exists")
	ErrCategoryInUse  = errors.New("category has products")
)

// CategoryStorage описывает методы для работы с категориями.
type CategoryStorage interface {
	ListCategories(ctx context.Context, q string) ([]*models.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	// CategoryNameTaken сравнивает имена без учёта регистра, excludeID пропускается
	CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryStorage {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListCategories(ctx context.Context, q string) ([]*models.Category, error) {
	query := `
		SELECT c.id, c.name, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE $1 = '' OR c.name ILIKE '%' || $1 || '%'
		GROUP BY c.id, c.name, c.created_at
		ORDER BY c.created_at DESC, c.id DESC`
	rows, err := r.db.QueryContext(ctx, query, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c := &models.Category{}
	query := `
		SELECT c.id, c.name, (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)
		FROM categories c WHERE c.id = $1`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.ProductCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	query := "SELECT EXISTS (SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1) AND id <> $2)"
	if err := r.db.QueryRowContext(ctx, query, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return taken, nil
}

func (r *categoryRepository) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := &models.Category{Name: name}
	if err := r.db.QueryRowContext(ctx, "INSERT INTO categories (name) VALUES ($1) RETURNING id", name).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryExists
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory: при наличии товаров FK (RESTRICT) не даст удалить
func (r *categoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		if isForeignKey(err) {
			return ErrCategoryInUse
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
