// Package catalog содержит read-модель каталога товаров.
package catalog

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// MockCatalog — конфигурируемая заглушка ProductReader для тестов и
// demo-режима.
type MockCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product

	FindErr error
}

// NewMockCatalog возвращает mock с преднастроенным набором товаров.
func NewMockCatalog(products ...domain.Product) *MockCatalog {
	byID := make(map[int64]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return &MockCatalog{products: byID}
}

// Put добавляет или заменяет товар в каталоге.
func (m *MockCatalog) Put(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

// FindByID возвращает товар или ErrProductNotFound.
func (m *MockCatalog) FindByID(id int64) (domain.Product, error) {
	if m.FindErr != nil {
		return domain.Product{}, m.FindErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// FindAllByIDs возвращает найденные товары без ошибок по отсутствующим.
func (m *MockCatalog) FindAllByIDs(ids []int64) (map[int64]domain.Product, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			found[id] = product
		}
	}
	return found, nil
}

var _ domain.ProductReader = (*MockCatalog)(nil)
