package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// cacheInvalidatorInMemory учитывает инвалидации кэша каталога; используется
// в memory-режиме и тестах потребителей.
type cacheInvalidatorInMemory struct {
	mu             sync.Mutex
	detailCalls    map[int64]int
	listCacheCalls int
}

// NewCacheInvalidator создаёт in-memory реализацию CacheInvalidator.
func NewCacheInvalidator() domain.CacheInvalidator {
	return &cacheInvalidatorInMemory{detailCalls: make(map[int64]int)}
}

func (c *cacheInvalidatorInMemory) InvalidateDetail(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detailCalls[productID]++
	return nil
}

func (c *cacheInvalidatorInMemory) InvalidateListCaches() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listCacheCalls++
	return nil
}

// DetailInvalidations возвращает число инвалидаций карточки товара.
func (c *cacheInvalidatorInMemory) DetailInvalidations(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.detailCalls[productID]
}

// ListInvalidations возвращает число инвалидаций листингов.
func (c *cacheInvalidatorInMemory) ListInvalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listCacheCalls
}

var _ domain.CacheInvalidator = (*cacheInvalidatorInMemory)(nil)
