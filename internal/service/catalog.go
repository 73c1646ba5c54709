package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linemk/storefront/internal/cache"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// CatalogLimits: размеры выдачи витрины
type CatalogLimits struct {
	Home    int
	Search  int
	Related int
}

// ProductDetail: карточка товара и похожие товары той же категории
type ProductDetail struct {
	Product *models.Product   `json:"product"`
	Related []*models.Product `json:"related"`
}

type CatalogService interface {
	// Products: без q отдаёт витрину, с q ищет по имени, описанию и категории
	Products(ctx context.Context, q string) ([]*models.Product, error)
	Product(ctx context.Context, id int64) (*ProductDetail, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	cache       cache.Cache
	cacheTTL    time.Duration
	limits      CatalogLimits
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage, c cache.Cache, cacheTTL time.Duration, limits CatalogLimits) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
		cache:       c,
		cacheTTL:    cacheTTL,
		limits:      limits,
	}
}

func (s *catalogService) Products(ctx context.Context, q string) ([]*models.Product, error) {
	const op = "service.CatalogService.Products"
	q = strings.TrimSpace(q)

	limit := s.limits.Home
	if q != "" {
		limit = s.limits.Search
	}

	products, err := s.productRepo.ListProducts(ctx, models.ProductFilter{Query: q, Sort: models.SortNewest, Limit: limit})
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) Product(ctx context.Context, id int64) (*ProductDetail, error) {
	const op = "service.CatalogService.Product"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	key := cache.ProductKey(id)
	detail := &ProductDetail{}
	found, err := s.cache.Get(ctx, key, detail)
	if err != nil {
		logger.Warn("failed to read product cache", slog.Any("error", err))
	}
	if found {
		return detail, nil
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: product %d: %w", op, id, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	related, err := s.productRepo.ListRelatedProducts(ctx, product.CategoryID, product.ID, s.limits.Related)
	if err != nil {
		logger.Error("failed to list related products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list related products: %w", op, err)
	}

	detail = &ProductDetail{Product: product, Related: related}
	if err := s.cache.Set(ctx, key, detail, s.cacheTTL); err != nil {
		logger.Warn("failed to write product cache", slog.Any("error", err))
	}
	return detail, nil
}
