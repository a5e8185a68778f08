package domain

import "time"

// StockLedger владеет остатками товара. Reserve захватывает эксклюзивную
// блокировку строки товара, проверяет остаток и списывает атомарно; возвращает
// остаток после списания, чтобы вызывающий мог заметить обнуление стока.
// Мульти-позиционные заказы обязаны резервировать в порядке возрастания
// productID и освобождать в порядке убывания.
type StockLedger interface {
	Reserve(productID, qty int64) (remaining int64, err error)
	Release(productID, qty int64) error
}

// BalanceLedger владеет балльным балансом пользователя. Deduct и Credit —
// однострочные атомарные обновления; Deduct отказывает при нехватке средств.
// Balance — read-only снимок для ранней валидации: авторитетной проверкой
// остаётся атомарный Deduct.
type BalanceLedger interface {
	Balance(userID string) (int64, error)
	Deduct(userID string, amount int64) error
	Credit(userID string, amount int64) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя с опциональным лимитом.
	ListByUser(userID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// PaymentRepository хранит платежи. На заказ — не более одного платежа.
type PaymentRepository interface {
	Create(payment Payment) error
	Get(id string) (Payment, error)
	GetByOrder(orderID string) (Payment, error)
	// GetByGatewayTransaction находит платёж по внешнему ключу транзакции
	// (используется обработчиком callback шлюза).
	GetByGatewayTransaction(txID string) (Payment, error)
	Save(payment Payment) error
}

// OutboxMessage хранит данные публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	CreatedAt     time.Time
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository сохраняет события для последующей публикации. Enqueue
// вызывается внутри той же локальной транзакции, что и доменная мутация.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit pending-записей в порядке создания.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	// MarkProcessed помечает запись после подтверждённой публикации. Запись
	// без подтверждения остаётся pending и будет перечитана следующим тиком.
	MarkProcessed(id string) error
}

// OutboxPublisher публикует события из transactional outbox; обязан нести
// id записи как dedup-заголовок.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}

// TxScope — репозитории, связанные общей транзакцией хранилища.
type TxScope struct {
	Orders   OrderRepository
	Payments PaymentRepository
	Outbox   OutboxRepository
}

// UnitOfWork выполняет fn атомарно: все мутации через репозитории scope либо
// фиксируются вместе, либо не фиксируются вовсе. Строка события в outbox
// существует тогда и только тогда, когда породившая её транзакция закоммичена.
type UnitOfWork interface {
	Within(fn func(scope TxScope) error) error
}

// passthroughUnitOfWork передаёт fn те же репозитории без общей транзакции.
// Для in-memory реализаций этого достаточно: каждая мутация атомарна под
// собственным мьютексом.
type passthroughUnitOfWork struct {
	scope TxScope
}

// NewPassthroughUnitOfWork оборачивает репозитории в UnitOfWork без общей
// транзакции.
func NewPassthroughUnitOfWork(orders OrderRepository, payments PaymentRepository, outbox OutboxRepository) UnitOfWork {
	return passthroughUnitOfWork{scope: TxScope{Orders: orders, Payments: payments, Outbox: outbox}}
}

func (u passthroughUnitOfWork) Within(fn func(scope TxScope) error) error {
	return fn(u.scope)
}

// ConsumedEventRepository хранит маркеры обработанных сообщений.
type ConsumedEventRepository interface {
	// MarkConsumed вставляет маркер; повторная вставка того же id возвращает
	// ErrEventAlreadyConsumed (uniqueness вместо блокировок).
	MarkConsumed(eventID string, handledAt time.Time) error
	IsConsumed(eventID string) (bool, error)
	// DeleteOlderThan удаляет устаревшие маркеры батчами.
	DeleteOlderThan(before time.Time, limit int) (int, error)
}

// MetricsRepository хранит денормализованные счётчики товара по дням.
type MetricsRepository interface {
	Get(productID int64, date time.Time) (ProductMetrics, error)
	IncrementViews(productID int64, date time.Time, n int64) error
	// ApplyLike применяет like/unlike с last-writer-wins по occurredAt;
	// возвращает false, если событие устарело и было проигнорировано.
	ApplyLike(productID int64, date time.Time, liked bool, occurredAt time.Time) (bool, error)
	IncrementOrders(productID int64, date time.Time, qty int64) error
	// ListRange возвращает метрики за полуинтервал [from, to) для батч-агрегации.
	ListRange(from, to time.Time) ([]ProductMetrics, error)
}

// RankingStore — сортированное по баллам хранилище дневного рейтинга.
type RankingStore interface {
	// IncrementScore добавляет delta к баллу товара за день; первое касание
	// дневного ключа выставляет TTL RankingDayTTL.
	IncrementScore(date time.Time, productID int64, delta float64) error
	// TopN возвращает страницу рейтинга по убыванию балла. Неположительный
	// limit даёт пустой результат.
	TopN(date time.Time, offset, limit int) ([]RankingEntry, error)
}

// PeriodRankingRepository хранит материализованные недельные/месячные рейтинги.
type PeriodRankingRepository interface {
	// Replace атомарно заменяет строки периода: delete + bulk insert в одной
	// транзакции, ключ — начало периода.
	Replace(period RankingPeriod, periodStart time.Time, entries []PeriodRanking) error
	List(period RankingPeriod, periodStart time.Time, limit int) ([]PeriodRanking, error)
}

// GatewayStatus — статус платежа на стороне внешнего шлюза.
type GatewayStatus string

const (
	GatewayStatusSuccess GatewayStatus = "SUCCESS"
	GatewayStatusFailed  GatewayStatus = "FAILED"
	GatewayStatusPending GatewayStatus = "PENDING"
	GatewayStatusUnknown GatewayStatus = "UNKNOWN"
)

// GatewayRequest — запрос на списание через внешний платёжный шлюз.
type GatewayRequest struct {
	OrderID string
	UserID  string
	Amount  int64
	Card    CardDetails
}

// GatewayResult — ответ шлюза на submit или запрос статуса.
type GatewayResult struct {
	TransactionID string
	Status        GatewayStatus
	FailureReason string
}

// PaymentGateway описывает внешний платёжный шлюз. Submit не идемпотентен на
// стороне шлюза, QueryStatus — read-only.
type PaymentGateway interface {
	Submit(req GatewayRequest) (GatewayResult, error)
	QueryStatus(txID string) (GatewayResult, error)
}

// CouponService — внешний сервис купонов. ValidateAndUse проверяет купон и
// помечает его использованным, возвращая размер скидки.
type CouponService interface {
	ValidateAndUse(userID, couponID string, amount int64) (discount int64, err error)
}

// ProductReader — внешняя read-модель каталога для снапшотов цены и имени.
type ProductReader interface {
	FindByID(id int64) (Product, error)
	FindAllByIDs(ids []int64) (map[int64]Product, error)
}

// CacheInvalidator — контракт инвалидации кэша каталога.
type CacheInvalidator interface {
	InvalidateDetail(productID int64) error
	InvalidateListCaches() error
}
