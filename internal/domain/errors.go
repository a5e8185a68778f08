package domain

import "errors"

var (
	// Ошибка пустого списка позиций при создании заказа.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// Ошибка нехватки товара на складе.
	ErrInsufficientStock = errors.New("insufficient stock")
	// Ошибка нехватки баллов на балансе пользователя.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// Ошибка отрицательного количества или суммы.
	ErrAmountInvalid = errors.New("amount must be non-negative")
	// Ошибка некорректного разбиения суммы между баллами и картой.
	ErrPaymentSplitMismatch = errors.New("point and card amounts must sum to total")
	// Ошибка неизвестного типа оплаты: конфигурационная, а не пользовательская.
	ErrUnsupportedPaymentType = errors.New("unsupported payment type")
	// Смешанная оплата с ненулевой карточной частью пока не поддерживается.
	ErrMixedCardUnsupported = errors.New("mixed payment with card leg is not yet supported")
	// Ошибка недопустимого перехода состояния заказа или платежа.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// Ошибка попытки привязать к платежу другой gateway transaction id.
	ErrGatewayTransactionMismatch = errors.New("gateway transaction id already set to a different value")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPaymentNotFound возвращается, если платёж не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrProductNotFound возвращается, если товар или его сток неизвестны.
	ErrProductNotFound = errors.New("product not found")
	// ErrBalanceNotFound возвращается, если у пользователя нет строки баланса.
	ErrBalanceNotFound = errors.New("balance not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении заказа.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrStockVersionConflict сигнализирует о конфликте версий при административном обновлении стока.
	ErrStockVersionConflict = errors.New("stock version conflict")
	// ErrEventAlreadyConsumed означает, что сообщение с таким id уже обработано.
	ErrEventAlreadyConsumed = errors.New("event already consumed")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrCouponRejected — купон не прошёл проверку у сервиса купонов.
	ErrCouponRejected = errors.New("coupon rejected")
	// ErrGatewayUnavailable — шлюз недоступен (таймаут, 5xx, открытый circuit breaker).
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict) || errors.Is(err, ErrStockVersionConflict)
}

// IsRetryable сообщает, имеет ли смысл повторять операцию после этой ошибки.
// Бизнес-отказы (нехватка стока, средств, отклонённый купон) повторять бессмысленно.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrCouponRejected),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrPaymentSplitMismatch),
		errors.Is(err, ErrUnsupportedPaymentType),
		errors.Is(err, ErrInvalidStateTransition):
		return false
	default:
		return true
	}
}
