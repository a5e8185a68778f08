package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// productStock держит остаток и собственный мьютекс: аналог строчной
// блокировки реляционной базы, без глобального лока на весь склад.
type productStock struct {
	mu      sync.Mutex
	count   int64
	version int64
}

// stockLedgerInMemory — in-memory реализация StockLedger для тестов и
// локальной разработки.
type stockLedgerInMemory struct {
	mu       sync.RWMutex
	products map[int64]*productStock
}

// NewStockLedger возвращает in-memory реестр остатков.
func NewStockLedger() *stockLedgerInMemory {
	return &stockLedgerInMemory{products: make(map[int64]*productStock)}
}

// SetStock задаёт остаток товара (seed для тестов и локальных запусков).
func (l *stockLedgerInMemory) SetStock(productID, qty int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.products[productID]; ok {
		p.mu.Lock()
		p.count = qty
		p.version++
		p.mu.Unlock()
		return
	}
	l.products[productID] = &productStock{count: qty}
}

// Stock возвращает текущий остаток товара.
func (l *stockLedgerInMemory) Stock(productID int64) (int64, error) {
	p, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, nil
}

// Reserve атомарно проверяет остаток и списывает qty под эксклюзивной
// блокировкой строки товара. Остаток никогда не уходит в минус.
func (l *stockLedgerInMemory) Reserve(productID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrAmountInvalid
	}

	p, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count < qty {
		return p.count, domain.ErrInsufficientStock
	}
	p.count -= qty
	p.version++
	return p.count, nil
}

// Release возвращает qty на остаток (компенсация или ручное восстановление).
func (l *stockLedgerInMemory) Release(productID, qty int64) error {
	if qty <= 0 {
		return domain.ErrAmountInvalid
	}

	p, err := l.lookup(productID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.count += qty
	p.version++
	return nil
}

// AdminSetStock обновляет остаток с optimistic-проверкой версии: путь для
// низкоконтентных административных правок, в обход строчной блокировки.
func (l *stockLedgerInMemory) AdminSetStock(productID, qty, expectedVersion int64) error {
	p, err := l.lookup(productID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.version != expectedVersion {
		return domain.ErrStockVersionConflict
	}
	p.count = qty
	p.version++
	return nil
}

// Version возвращает версию строки товара для optimistic-обновлений.
func (l *stockLedgerInMemory) Version(productID int64) (int64, error) {
	p, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version, nil
}

func (l *stockLedgerInMemory) lookup(productID int64) (*productStock, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

var _ domain.StockLedger = (*stockLedgerInMemory)(nil)
