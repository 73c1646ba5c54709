package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения: конфиг, БД и кэш
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	db := application.DB
	accountRepo := storage.NewAccountRepository(db)
	walletRepo := storage.NewWalletRepository(db)
	walletTxRepo := storage.NewWalletTransactionRepository(db)
	cartRepo := storage.NewCartRepository(db)
	productRepo := storage.NewProductRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)
	orderRepo := storage.NewOrderRepository(db)

	shop := cfg.Shop
	authService := service.NewAuthService(log, db, accountRepo, cartRepo, walletRepo, walletTxRepo,
		shop.StartingBalanceAmount(), cfg.JWT.Secret, cfg.JWT.TTL())
	catalogService := service.NewCatalogService(log, productRepo, application.Cache, cfg.Cache.ProductTTL,
		service.CatalogLimits{Home: shop.HomeProducts, Search: shop.SearchLimit, Related: shop.RelatedLimit})
	cartService := service.NewCartService(log, db, cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(log, db, cartRepo, walletRepo, walletTxRepo, orderRepo, application.Cache, cfg.Cache.WalletTTL)
	walletService := service.NewWalletService(log, db, walletRepo, walletTxRepo, application.Cache, cfg.Cache.WalletTTL)
	orderService := service.NewOrderService(log, orderRepo)

	admin := handlers.NewAdminHandlers(log,
		service.NewAdminCatalogService(log, productRepo, categoryRepo, application.Cache, shop.PageSize),
		service.NewAdminOrderService(log, orderRepo, shop.PageSize),
		service.NewAdminUserService(log, db, accountRepo, cartRepo, walletRepo, walletTxRepo, shop.PageSize),
	)

	// публичные эндпоинты
	router.Post("/api/auth/register", handlers.RegisterHandler(log, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(log, authService))
	router.Get("/api/products", handlers.ProductsHandler(log, catalogService))
	router.Get("/api/products/{id}", handlers.ProductHandler(log, catalogService))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret))

		r.Get("/api/cart", handlers.CartHandler(log, cartService))
		r.Post("/api/cart/items/{productID}", handlers.CartAddHandler(log, cartService))
		r.Post("/api/cart/items/{productID}/inc", handlers.CartIncrementHandler(log, cartService))
		r.Post("/api/cart/items/{productID}/dec", handlers.CartDecrementHandler(log, cartService))
		r.Delete("/api/cart/items/{productID}", handlers.CartRemoveHandler(log, cartService))

		r.Post("/api/checkout", handlers.CheckoutHandler(log, checkoutService))

		r.Get("/api/orders", handlers.MyOrdersHandler(log, orderService))
		r.Get("/api/orders/{id}", handlers.OrderHandler(log, orderService))

		r.Get("/api/wallet", handlers.WalletHandler(log, walletService))
		r.Post("/api/wallet/topup", handlers.TopUpHandler(log, walletService))
		r.Get("/api/wallet/transactions", handlers.WalletTransactionsHandler(log, walletService))

		// админка: роль и статус проверяются по БД на каждый запрос
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(jwtmiddleware.RequireAdmin(log, accountRepo))

			r.Get("/products", admin.ListProducts)
			r.Post("/products", admin.CreateProduct)
			r.Put("/products/{id}", admin.UpdateProduct)
			r.Delete("/products/{id}", admin.DeleteProduct)

			r.Get("/categories", admin.ListCategories)
			r.Post("/categories", admin.CreateCategory)
			r.Put("/categories/{id}", admin.UpdateCategory)
			r.Delete("/categories/{id}", admin.DeleteCategory)

			r.Get("/orders", admin.ListOrders)
			r.Get("/orders/{id}", admin.GetOrder)
			r.Post("/orders/{id}/status", admin.UpdateOrderStatus)

			r.Get("/users", admin.ListUsers)
			r.Post("/users", admin.CreateUser)
			r.Put("/users/{id}", admin.UpdateUser)
			r.Delete("/users/{id}", admin.DeleteUser)
			r.Post("/users/{id}/toggle", admin.ToggleUser)
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
