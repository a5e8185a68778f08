package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// rankingDay — дневной срез рейтинга с моментом первого касания для TTL.
type rankingDay struct {
	scores    map[int64]float64
	createdAt time.Time
}

// rankingStoreInMemory — in-memory аналог сортированного по баллам хранилища.
// Повторяет контракт Redis-реализации, включая ограничение времени жизни
// дневного ключа.
type rankingStoreInMemory struct {
	mu   sync.Mutex
	days map[string]*rankingDay
	ttl  time.Duration
	now  func() time.Time
}

// NewRankingStore создаёт in-memory рейтинг с TTL по умолчанию.
func NewRankingStore() *rankingStoreInMemory {
	return &rankingStoreInMemory{
		days: make(map[string]*rankingDay),
		ttl:  domain.RankingDayTTL,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func dayKey(date time.Time) string {
	return domain.MetricsDay(date).Format("2006-01-02")
}

// IncrementScore добавляет delta к баллу товара за день. Первое касание дня
// фиксирует момент создания ключа, от которого отсчитывается TTL.
func (s *rankingStoreInMemory) IncrementScore(date time.Time, productID int64, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()

	key := dayKey(date)
	day, ok := s.days[key]
	if !ok {
		day = &rankingDay{scores: make(map[int64]float64), createdAt: s.now()}
		s.days[key] = day
	}
	day.scores[productID] += delta
	return nil
}

// TopN возвращает страницу рейтинга по убыванию балла; при равенстве баллов
// порядок определяет идентификатор товара.
func (s *rankingStoreInMemory) TopN(date time.Time, offset, limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()

	day, ok := s.days[dayKey(date)]
	if !ok {
		return nil, nil
	}

	entries := make([]domain.RankingEntry, 0, len(day.scores))
	for productID, score := range day.scores {
		entries = append(entries, domain.RankingEntry{ProductID: productID, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ProductID < entries[j].ProductID
	})

	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *rankingStoreInMemory) evictExpired() {
	cutoff := s.now().Add(-s.ttl)
	for key, day := range s.days {
		if day.createdAt.Before(cutoff) {
			delete(s.days, key)
		}
	}
}

var _ domain.RankingStore = (*rankingStoreInMemory)(nil)
