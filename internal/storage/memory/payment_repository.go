package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// paymentRepositoryInMemory — in-memory реализация PaymentRepository.
// Уникальность orderID обеспечивает инвариант «один платёж на заказ».
type paymentRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.Payment
	byOrder map[string]string
}

// NewPaymentRepository возвращает in-memory репозиторий платежей.
func NewPaymentRepository() domain.PaymentRepository {
	return &paymentRepositoryInMemory{
		items:   make(map[string]domain.Payment),
		byOrder: make(map[string]string),
	}
}

// Create сохраняет платёж; второй платёж на тот же заказ отклоняется.
func (r *paymentRepositoryInMemory) Create(payment domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[payment.ID]; exists {
		return domain.ErrInvalidStateTransition
	}
	if _, exists := r.byOrder[payment.OrderID]; exists {
		return domain.ErrInvalidStateTransition
	}
	r.items[payment.ID] = payment
	r.byOrder[payment.OrderID] = payment.ID
	return nil
}

// Get возвращает платёж или ErrPaymentNotFound.
func (r *paymentRepositoryInMemory) Get(id string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.items[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// GetByOrder возвращает платёж заказа.
func (r *paymentRepositoryInMemory) GetByOrder(orderID string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return r.items[id], nil
}

// GetByGatewayTransaction находит платёж по внешнему ключу транзакции.
func (r *paymentRepositoryInMemory) GetByGatewayTransaction(txID string) (domain.Payment, error) {
	if txID == "" {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, payment := range r.items {
		if payment.GatewayTransactionID == txID {
			return payment, nil
		}
	}
	return domain.Payment{}, domain.ErrPaymentNotFound
}

// Save перезаписывает существующий платёж.
func (r *paymentRepositoryInMemory) Save(payment domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	r.items[payment.ID] = payment
	return nil
}

var _ domain.PaymentRepository = (*paymentRepositoryInMemory)(nil)
