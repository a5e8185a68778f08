package redisrank

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

const (
	cacheDetailKeyPrefix = "cache:product:detail:"
	cacheListKeyPattern  = "cache:product:list:*"

	cacheScanBatch = 100
)

type cacheInvalidator struct {
	rdb *redis.Client
}

// NewCacheInvalidator создаёт Redis-реализацию CacheInvalidator для кэша
// каталога. Удаление отсутствующего ключа не является ошибкой.
func NewCacheInvalidator(rdb *redis.Client) domain.CacheInvalidator {
	return &cacheInvalidator{rdb: rdb}
}

func (c *cacheInvalidator) InvalidateDetail(productID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := cacheDetailKeyPrefix + strconv.FormatInt(productID, 10)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidate detail cache: %w", err)
	}
	return nil
}

// InvalidateListCaches удаляет страницы листинга батчами через SCAN,
// чтобы не блокировать Redis на больших keyspace.
func (c *cacheInvalidator) InvalidateListCaches() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, cacheListKeyPattern, cacheScanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan list cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("invalidate list caches: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ domain.CacheInvalidator = (*cacheInvalidator)(nil)
