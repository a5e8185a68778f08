package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// metricsRepositoryInMemory хранит дневные счётчики товара.
// Ключ — productID + календарный день.
type metricsRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]domain.ProductMetrics
}

// NewMetricsRepository создаёт in-memory реализацию MetricsRepository.
func NewMetricsRepository() domain.MetricsRepository {
	return &metricsRepositoryInMemory{items: make(map[string]domain.ProductMetrics)}
}

func metricsKey(productID int64, date time.Time) string {
	return fmt.Sprintf("%d:%s", productID, domain.MetricsDay(date).Format("2006-01-02"))
}

// Get возвращает счётчики товара за день; отсутствие строки — нулевые счётчики.
func (r *metricsRepositoryInMemory) Get(productID int64, date time.Time) (domain.ProductMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.items[metricsKey(productID, date)]
	if !ok {
		return domain.ProductMetrics{ProductID: productID, Date: domain.MetricsDay(date)}, nil
	}
	return row, nil
}

// IncrementViews добавляет n просмотров к дневной строке.
func (r *metricsRepositoryInMemory) IncrementViews(productID int64, date time.Time, n int64) error {
	if n < 0 {
		return domain.ErrAmountInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.load(productID, date)
	row.ViewCount += n
	r.store(row)
	return nil
}

// ApplyLike применяет like/unlike с last-writer-wins по occurredAt. Событие
// старше уже применённого игнорируется. Счётчик лайков не уходит в минус.
func (r *metricsRepositoryInMemory) ApplyLike(productID int64, date time.Time, liked bool, occurredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.load(productID, date)
	if !occurredAt.After(row.LastLikeEventAt) {
		return false, nil
	}

	if liked {
		row.LikeCount++
	} else if row.LikeCount > 0 {
		row.LikeCount--
	}
	row.LastLikeEventAt = occurredAt
	r.store(row)
	return true, nil
}

// IncrementOrders фиксирует завершённый заказ: счётчик заказов и суммарное количество.
func (r *metricsRepositoryInMemory) IncrementOrders(productID int64, date time.Time, qty int64) error {
	if qty <= 0 {
		return domain.ErrAmountInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.load(productID, date)
	row.OrderCount++
	row.TotalQuantity += qty
	r.store(row)
	return nil
}

// ListRange возвращает строки за полуинтервал [from, to), отсортированные по
// товару и дню.
func (r *metricsRepositoryInMemory) ListRange(from, to time.Time) ([]domain.ProductMetrics, error) {
	from = domain.MetricsDay(from)
	to = domain.MetricsDay(to)

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.ProductMetrics, 0, len(r.items))
	for _, row := range r.items {
		if row.Date.Before(from) || !row.Date.Before(to) {
			continue
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

func (r *metricsRepositoryInMemory) load(productID int64, date time.Time) domain.ProductMetrics {
	row, ok := r.items[metricsKey(productID, date)]
	if !ok {
		row = domain.ProductMetrics{ProductID: productID, Date: domain.MetricsDay(date)}
	}
	return row
}

func (r *metricsRepositoryInMemory) store(row domain.ProductMetrics) {
	row.UpdatedAt = time.Now().UTC()
	r.items[metricsKey(row.ProductID, row.Date)] = row
}

var _ domain.MetricsRepository = (*metricsRepositoryInMemory)(nil)
