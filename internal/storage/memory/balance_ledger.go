package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// balanceLedgerInMemory — in-memory реализация BalanceLedger. У каждого
// пользователя ровно одна строка баланса, межпользовательские блокировки
// не нужны.
type balanceLedgerInMemory struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewBalanceLedger возвращает in-memory реестр балансов.
func NewBalanceLedger() *balanceLedgerInMemory {
	return &balanceLedgerInMemory{balances: make(map[string]int64)}
}

// SetBalance задаёт баланс пользователя (seed для тестов).
func (l *balanceLedgerInMemory) SetBalance(userID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
}

// Balance возвращает текущий баланс пользователя.
func (l *balanceLedgerInMemory) Balance(userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[userID]
	if !ok {
		return 0, domain.ErrBalanceNotFound
	}
	return balance, nil
}

// Deduct атомарно списывает amount; при нехватке средств отказывает,
// не изменяя баланс.
func (l *balanceLedgerInMemory) Deduct(userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrAmountInvalid
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[userID]
	if !ok {
		return domain.ErrBalanceNotFound
	}
	if balance < amount {
		return domain.ErrInsufficientFunds
	}
	l.balances[userID] = balance - amount
	return nil
}

// Credit атомарно начисляет amount на баланс.
func (l *balanceLedgerInMemory) Credit(userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrAmountInvalid
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[userID] += amount
	return nil
}

var _ domain.BalanceLedger = (*balanceLedgerInMemory)(nil)
