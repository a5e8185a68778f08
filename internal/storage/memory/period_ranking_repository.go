package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// periodRankingRepositoryInMemory хранит материализованные рейтинги периодов.
type periodRankingRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string][]domain.PeriodRanking
}

// NewPeriodRankingRepository создаёт in-memory реализацию PeriodRankingRepository.
func NewPeriodRankingRepository() domain.PeriodRankingRepository {
	return &periodRankingRepositoryInMemory{items: make(map[string][]domain.PeriodRanking)}
}

func periodKey(period domain.RankingPeriod, periodStart time.Time) string {
	return fmt.Sprintf("%s:%s", period, domain.MetricsDay(periodStart).Format("2006-01-02"))
}

// Replace атомарно заменяет строки периода: прежние строки удаляются, новые
// вставляются одним действием под общим мьютексом.
func (r *periodRankingRepositoryInMemory) Replace(period domain.RankingPeriod, periodStart time.Time, entries []domain.PeriodRanking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]domain.PeriodRanking, len(entries))
	copy(copied, entries)
	r.items[periodKey(period, periodStart)] = copied
	return nil
}

// List возвращает строки периода, ограничивая выборку limit (если >0).
func (r *periodRankingRepositoryInMemory) List(period domain.RankingPeriod, periodStart time.Time, limit int) ([]domain.PeriodRanking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.items[periodKey(period, periodStart)]
	result := make([]domain.PeriodRanking, len(stored))
	copy(result, stored)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.PeriodRankingRepository = (*periodRankingRepositoryInMemory)(nil)
