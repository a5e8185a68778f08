package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// consumedEventRepositoryInMemory хранит маркеры обработанных сообщений.
// Идемпотентность строится на уникальности eventID, без блокировок.
type consumedEventRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewConsumedEventRepository создаёт in-memory реализацию ConsumedEventRepository.
func NewConsumedEventRepository() domain.ConsumedEventRepository {
	return &consumedEventRepositoryInMemory{items: make(map[string]time.Time)}
}

// MarkConsumed вставляет маркер; повторная вставка того же id отклоняется.
func (r *consumedEventRepositoryInMemory) MarkConsumed(eventID string, handledAt time.Time) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return domain.ErrEventAlreadyConsumed
	}
	if handledAt.IsZero() {
		handledAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[eventID]; ok {
		return domain.ErrEventAlreadyConsumed
	}
	r.items[eventID] = handledAt
	return nil
}

// IsConsumed сообщает, обработано ли сообщение с таким id.
func (r *consumedEventRepositoryInMemory) IsConsumed(eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[eventID]
	return ok, nil
}

// DeleteOlderThan удаляет маркеры, обработанные раньше before, батчами до limit.
func (r *consumedEventRepositoryInMemory) DeleteOlderThan(before time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, handledAt := range r.items {
		if !handledAt.Before(before) {
			continue
		}
		delete(r.items, id)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}
	return removed, nil
}

var _ domain.ConsumedEventRepository = (*consumedEventRepositoryInMemory)(nil)
