// Package coupon содержит клиент внешнего сервиса купонов.
package coupon

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// MockService — конфигурируемая заглушка CouponService для тестов и
// demo-режима. Купон одноразовый: повторное использование отклоняется.
type MockService struct {
	mu        sync.Mutex
	discounts map[string]int64
	used      map[string]bool

	ValidateErr error
}

// NewMockService возвращает mock без зарегистрированных купонов.
func NewMockService() *MockService {
	return &MockService{
		discounts: make(map[string]int64),
		used:      make(map[string]bool),
	}
}

// Register регистрирует купон с фиксированной скидкой.
func (m *MockService) Register(couponID string, discount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discounts[couponID] = discount
}

// ValidateAndUse помечает купон использованным и возвращает скидку.
func (m *MockService) ValidateAndUse(_ string, couponID string, _ int64) (int64, error) {
	if m.ValidateErr != nil {
		return 0, m.ValidateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	discount, ok := m.discounts[couponID]
	if !ok || m.used[couponID] {
		return 0, domain.ErrCouponRejected
	}
	m.used[couponID] = true
	return discount, nil
}

var _ domain.CouponService = (*MockService)(nil)
