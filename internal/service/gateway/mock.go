package gateway

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// MockGateway — конфигурируемая заглушка внешнего шлюза для тестов и
// demo-режима. По умолчанию каждый submit одобряется.
type MockGateway struct {
	mu           sync.Mutex
	transactions map[string]domain.GatewayResult

	SubmitStatus domain.GatewayStatus
	SubmitErr    error
	QueryErr     error

	SubmitCalls int
	QueryCalls  int
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		transactions: make(map[string]domain.GatewayResult),
		SubmitStatus: domain.GatewayStatusSuccess,
	}
}

// Submit возвращает преднастроенный статус и запоминает транзакцию.
func (m *MockGateway) Submit(req domain.GatewayRequest) (domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SubmitCalls++
	if m.SubmitErr != nil {
		return domain.GatewayResult{}, m.SubmitErr
	}

	result := domain.GatewayResult{
		TransactionID: uuid.NewString(),
		Status:        m.SubmitStatus,
	}
	if result.Status == domain.GatewayStatusFailed {
		result.FailureReason = "declined by mock gateway"
	}
	m.transactions[result.TransactionID] = result
	return result, nil
}

// QueryStatus возвращает запомненную транзакцию или UNKNOWN.
func (m *MockGateway) QueryStatus(txID string) (domain.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls++
	if m.QueryErr != nil {
		return domain.GatewayResult{}, m.QueryErr
	}

	result, ok := m.transactions[txID]
	if !ok {
		return domain.GatewayResult{TransactionID: txID, Status: domain.GatewayStatusUnknown}, nil
	}
	return result, nil
}

// Resolve переводит запомненную pending-транзакцию в финальный статус.
func (m *MockGateway) Resolve(txID string, status domain.GatewayStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, ok := m.transactions[txID]
	if !ok {
		return fmt.Errorf("unknown transaction %s", txID)
	}
	result.Status = status
	result.FailureReason = reason
	m.transactions[txID] = result
	return nil
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
