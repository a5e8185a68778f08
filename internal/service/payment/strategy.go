// Package payment реализует диспетчеризацию способов оплаты: стратегия на
// каждый PaymentType, собранные в реестр при старте.
package payment

import (
	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// Outcome — итог исполнения стратегии.
type Outcome string

const (
	// OutcomeApproved — средства списаны, заказ можно подтверждать.
	OutcomeApproved Outcome = "approved"
	// OutcomePending — итог не известен, заказ ждёт callback шлюза.
	OutcomePending Outcome = "pending"
	// OutcomeDeclined — оплата отклонена, заказ подлежит компенсации.
	OutcomeDeclined Outcome = "declined"
)

// Context — входные данные оплаты одного заказа.
type Context struct {
	UserID      string
	OrderID     string
	TotalAmount int64
	PointAmount int64
	CardAmount  int64
	Card        domain.CardDetails
}

// Result — итог исполнения стратегии: статус плюс атрибуты шлюза, если
// оплата уходила во внешний шлюз. Cause несёт sentinel-причину отказа для
// проверок errors.Is выше по стеку.
type Result struct {
	Outcome              Outcome
	GatewayTransactionID string
	FailureReason        string
	Cause                error
}

// Strategy исполняет один способ оплаты. Validate проверяет применимость без
// побочных эффектов; Execute двигает деньги. Ошибки валидации заказа и
// ошибки конфигурации различаются на уровне реестра.
type Strategy interface {
	Validate(pc Context) error
	Execute(pc Context) (Result, error)
}
