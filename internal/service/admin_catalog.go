package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/cache"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// пределы длины совпадают с VARCHAR в схеме
const (
	maxProductNameLen  = 100
	maxCategoryNameLen = 50
)

// значения по умолчанию для текстовых полей нового товара
const (
	defaultHintText     = "Best served chilled"
	defaultStorageShort = "Keep in a cool, dry place"
	defaultReturnPolicy = "7-day return if defective"
	defaultStorageGuide = "Store in a cool, dry place.\nKeep sealed after opening.\nBest served chilled."
)

type ProductInput struct {
	Name         string
	CategoryID   int64
	Price        decimal.Decimal
	ImageName    string
	Description  string
	IsGenuine    bool
	IsFastShip   bool
	HintText     string
	StorageShort string
	ReturnPolicy string
	StorageGuide string
}

type ProductPage struct {
	Items    []*models.Product `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}

// AdminCatalogService: управление товарами и категориями из админки.
type AdminCatalogService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter, page int) (*ProductPage, error)
	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context, q string) ([]*models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type adminCatalogService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	categoryRepo storage.CategoryStorage
	cache        cache.Cache
	pageSize     int
}

func NewAdminCatalogService(log *slog.Logger, productRepo storage.ProductStorage, categoryRepo storage.CategoryStorage, c cache.Cache, pageSize int) AdminCatalogService {
	return &adminCatalogService{
		log:          log,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        c,
		pageSize:     pageSize,
	}
}

func offset(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * pageSize
}

func (s *adminCatalogService) ListProducts(ctx context.Context, filter models.ProductFilter, page int) (*ProductPage, error) {
	const op = "service.AdminCatalogService.ListProducts"

	filter.Query = strings.TrimSpace(filter.Query)
	filter.Limit = s.pageSize
	page, filter.Offset = offset(page, s.pageSize)

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	total, err := s.productRepo.CountProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to count products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count products: %w", op, err)
	}
	return &ProductPage{Items: products, Page: page, PageSize: s.pageSize, Total: total}, nil
}

func (s *adminCatalogService) validateProduct(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || !ValidAmount(in.Price) || in.CategoryID <= 0 {
		return invalidInput("name, price (> 0) and category are required")
	}
	if utf8.RuneCountInString(in.Name) > maxProductNameLen {
		return invalidInput(fmt.Sprintf("product name must be at most %d characters", maxProductNameLen))
	}
	if _, err := s.categoryRepo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return invalidInput("unknown category")
		}
		return err
	}
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func (s *adminCatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.AdminCatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op))

	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		Name:         in.Name,
		CategoryID:   in.CategoryID,
		Price:        in.Price,
		ImageName:    strings.TrimSpace(in.ImageName),
		Description:  strings.TrimSpace(in.Description),
		IsGenuine:    in.IsGenuine,
		IsFastShip:   in.IsFastShip,
		HintText:     orDefault(in.HintText, defaultHintText),
		StorageShort: orDefault(in.StorageShort, defaultStorageShort),
		ReturnPolicy: orDefault(in.ReturnPolicy, defaultReturnPolicy),
		StorageGuide: orDefault(in.StorageGuide, defaultStorageGuide),
	})
	if err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, invalidInput("unknown category"))
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

// UpdateProduct: пустые картинка и тексты сохраняют прежние значения
func (s *adminCatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	const op = "service.AdminCatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: product %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product.Name = in.Name
	product.CategoryID = in.CategoryID
	product.Price = in.Price
	product.ImageName = orDefault(in.ImageName, product.ImageName)
	product.Description = strings.TrimSpace(in.Description)
	product.IsGenuine = in.IsGenuine
	product.IsFastShip = in.IsFastShip
	product.HintText = orDefault(in.HintText, product.HintText)
	product.StorageShort = orDefault(in.StorageShort, product.StorageShort)
	product.ReturnPolicy = orDefault(in.ReturnPolicy, product.ReturnPolicy)
	product.StorageGuide = orDefault(in.StorageGuide, product.StorageGuide)

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return nil, fmt.Errorf("%s: product %d: %w", op, id, ErrNotFound)
		case errors.Is(err, storage.ErrCategoryNotFound):
			return nil, fmt.Errorf("%s: %w", op, invalidInput("unknown category"))
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product: %w", op, err)
	}

	s.invalidateProduct(ctx, logger, id)
	logger.Info("product updated")
	return product, nil
}

// DeleteProduct: строки корзин уходят каскадом, позиции заказов сохраняют снимок
func (s *adminCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "service.AdminCatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: product %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete product: %w", op, err)
	}

	s.invalidateProduct(ctx, logger, id)
	logger.Info("product deleted")
	return nil
}

func (s *adminCatalogService) invalidateProduct(ctx context.Context, logger *slog.Logger, id int64) {
	if err := s.cache.Delete(ctx, cache.ProductKey(id)); err != nil {
		logger.Warn("failed to invalidate product cache", slog.Any("error", err))
	}
}

func (s *adminCatalogService) ListCategories(ctx context.Context, q string) ([]*models.Category, error) {
	const op = "service.AdminCatalogService.ListCategories"

	categories, err := s.categoryRepo.ListCategories(ctx, strings.TrimSpace(q))
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list categories: %w", op, err)
	}
	return categories, nil
}

func (s *adminCatalogService) checkCategoryName(ctx context.Context, name string, excludeID int64) error {
	if name == "" {
		return invalidInput("category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return invalidInput(fmt.Sprintf("category name must be at most %d characters", maxCategoryNameLen))
	}
	taken, err := s.categoryRepo.CategoryNameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrAlreadyExists
	}
	return nil
}

func (s *adminCatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	const op = "service.AdminCatalogService.CreateCategory"
	name = strings.TrimSpace(name)
	logger := s.log.With(slog.String("op", op), slog.String("name", name))

	if err := s.checkCategoryName(ctx, name, 0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	category, err := s.categoryRepo.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrCategoryExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		logger.Error("failed to create category", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create category: %w", op, err)
	}

	logger.Info("category created", slog.Int64("categoryID", category.ID))
	return category, nil
}

func (s *adminCatalogService) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	const op = "service.AdminCatalogService.UpdateCategory"
	name = strings.TrimSpace(name)
	logger := s.log.With(slog.String("op", op), slog.Int64("categoryID", id))

	if err := s.checkCategoryName(ctx, name, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.categoryRepo.UpdateCategory(ctx, id, name); err != nil {
		switch {
		case errors.Is(err, storage.ErrCategoryNotFound):
			return nil, fmt.Errorf("%s: category %d: %w", op, id, ErrNotFound)
		case errors.Is(err, storage.ErrCategoryExists):
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		logger.Error("failed to update category", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update category: %w", op, err)
	}

	return s.categoryRepo.GetCategoryByID(ctx, id)
}

// DeleteCategory отказывает, пока на категорию ссылаются товары
func (s *adminCatalogService) DeleteCategory(ctx context.Context, id int64) error {
	const op = "service.AdminCatalogService.DeleteCategory"
	logger := s.log.With(slog.String("op", op), slog.Int64("categoryID", id))

	count, err := s.productRepo.CountProductsByCategory(ctx, id)
	if err != nil {
		logger.Error("failed to count products", slog.Any("error", err))
		return fmt.Errorf("%s: failed to count products: %w", op, err)
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", op, invalidInput("category still has products"))
	}

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrCategoryNotFound):
			return fmt.Errorf("%s: category %d: %w", op, id, ErrNotFound)
		case errors.Is(err, storage.ErrCategoryInUse):
			return fmt.Errorf("%s: %w", op, invalidInput("category still has products"))
		}
		logger.Error("failed to delete category", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete category: %w", op, err)
	}

	logger.Info("category deleted")
	return nil
}
