package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/linemk/storefront/internal/cache"
	"github.com/linemk/storefront/internal/config"
)

const pingTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Redis  *redis.Client // nil, если redis не настроен
	Cache  cache.Cache
}

// NewApp создаёт новый экземпляр App: подключается к БД и, если задан адрес, к redis
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Cache:  cache.Nop{},
	}

	if !cfg.Redis.Enabled() {
		log.Info("redis is not configured, cache disabled")
		return app, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// кэш не обязателен, работаем без него
		log.Warn("redis is unavailable, cache disabled", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		rdb.Close()
		return app, nil
	}

	app.Redis = rdb
	app.Cache = cache.NewRedisCache(rdb)
	log.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr))
	return app, nil
}

// Close освобождает подключения
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
	return a.DB.Close()
}
