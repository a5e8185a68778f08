package domain

import "time"

// PaymentType перечисляет поддерживаемые способы оплаты заказа.
type PaymentType string

const (
	// PaymentTypePointOnly — оплата целиком баллами с баланса.
	PaymentTypePointOnly PaymentType = "point_only"
	// PaymentTypeCardOnly — оплата целиком картой через внешний шлюз.
	PaymentTypeCardOnly PaymentType = "card_only"
	// PaymentTypeMixed — комбинированная оплата: баллы плюс карта.
	PaymentTypeMixed PaymentType = "mixed"
)

// PaymentStatus описывает состояние платежа.
type PaymentStatus string

const (
	// PaymentStatusPending — платёж инициирован, итог ещё не известен.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusSuccess — платёж завершён успешно.
	PaymentStatusSuccess PaymentStatus = "success"
	// PaymentStatusFailed — платёж отклонён или не удался.
	PaymentStatusFailed PaymentStatus = "failed"
)

// Payment описывает платёж, связанный с заказом. На заказ приходится не более
// одного платежа.
type Payment struct {
	ID                   string
	OrderID              string
	UserID               string
	Amount               int64
	Type                 PaymentType
	Status               PaymentStatus
	GatewayTransactionID string
	FailureReason        string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SetGatewayTransactionID привязывает внешний идентификатор транзакции.
// Идентификатор выставляется не более одного раза: повторная привязка другого
// значения отклоняется.
func (p *Payment) SetGatewayTransactionID(txID string) error {
	if txID == "" {
		return nil
	}
	if p.GatewayTransactionID != "" && p.GatewayTransactionID != txID {
		return ErrGatewayTransactionMismatch
	}
	p.GatewayTransactionID = txID
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSuccess переводит платёж в success. Повторный вызов на успешном платеже —
// no-op; переход из failed запрещён.
func (p *Payment) MarkSuccess() error {
	if p.Status == PaymentStatusSuccess {
		return nil
	}
	if p.Status != PaymentStatusPending {
		return ErrInvalidStateTransition
	}
	p.Status = PaymentStatusSuccess
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed переводит платёж в failed с причиной. Повторный вызов на
// проваленном платеже — no-op; переход из success запрещён.
func (p *Payment) MarkFailed(reason string) error {
	if p.Status == PaymentStatusFailed {
		return nil
	}
	if p.Status != PaymentStatusPending {
		return ErrInvalidStateTransition
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate проверяет корректность полей платежа.
func (p *Payment) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderNotFound)
	}
	if p.Amount < 0 {
		errs = append(errs, ErrAmountInvalid)
	}
	switch p.Type {
	case PaymentTypePointOnly, PaymentTypeCardOnly, PaymentTypeMixed:
	default:
		errs = append(errs, ErrUnsupportedPaymentType)
	}

	return errs
}
