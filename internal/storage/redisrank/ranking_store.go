// Package redisrank реализует дневной рейтинг товаров поверх Redis sorted set.
package redisrank

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

const opTimeout = 5 * time.Second

// commands — используемое подмножество команд Redis-клиента.
type commands interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

type rankingStore struct {
	rdb commands
}

// NewClient создаёт клиент Redis и проверяет соединение.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRankingStore создаёт Redis-реализацию RankingStore.
func NewRankingStore(rdb *redis.Client) domain.RankingStore {
	return &rankingStore{rdb: rdb}
}

func dayKey(date time.Time) string {
	return "ranking:daily:" + domain.MetricsDay(date).Format("2006-01-02")
}

// IncrementScore добавляет delta к баллу товара в дневном sorted set.
// TTL назначается только при первом касании дня: ключ живёт RankingDayTTL
// от первого события, последующие инкременты срок не продлевают.
func (s *rankingStore) IncrementScore(date time.Time, productID int64, delta float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := dayKey(date)

	if err := s.rdb.ZIncrBy(ctx, key, delta, strconv.FormatInt(productID, 10)).Err(); err != nil {
		return fmt.Errorf("increment ranking score: %w", err)
	}

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read ranking key ttl: %w", err)
	}
	// Отрицательный TTL означает ключ без срока жизни.
	if ttl < 0 {
		if err := s.rdb.Expire(ctx, key, domain.RankingDayTTL).Err(); err != nil {
			return fmt.Errorf("set ranking key ttl: %w", err)
		}
	}
	return nil
}

// TopN возвращает страницу дневного рейтинга по убыванию балла.
// Неположительный limit даёт пустую страницу.
func (s *rankingStore) TopN(date time.Time, offset, limit int) ([]domain.RankingEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	members, err := s.rdb.ZRevRangeWithScores(ctx, dayKey(date), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read ranking page: %w", err)
	}

	entries := make([]domain.RankingEntry, 0, len(members))
	for _, member := range members {
		raw, ok := member.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected ranking member type %T", member.Member)
		}
		productID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ranking member %q: %w", raw, err)
		}
		entries = append(entries, domain.RankingEntry{ProductID: productID, Score: member.Score})
	}
	return entries, nil
}

var _ domain.RankingStore = (*rankingStore)(nil)
