package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache: read-through кэш для баланса кошелька и карточек товаров.
// Ошибки кэша не фатальны, сервисы их только логируют.
type Cache interface {
	// Get возвращает false, если ключа нет
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// SetNX пишет, только если ключа ещё нет, и сообщает, была ли запись
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

func WalletKey(accountID int64) string {
	return fmt.Sprintf("wallet:%d", accountID)
}

func ProductKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}

type redisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) Cache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *redisCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	return c.rdb.SetNX(ctx, key, b, ttl).Result()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Nop используется, когда redis не настроен: всегда промах
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error)                  { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error           { return nil }
func (Nop) SetNX(context.Context, string, any, time.Duration) (bool, error) { return false, nil }
func (Nop) Delete(context.Context, ...string) error                         { return nil }
