package payment

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// cardStrategy оплачивает заказ целиком картой через внешний шлюз.
type cardStrategy struct {
	gateway domain.PaymentGateway
	logger  *log.Entry
}

// NewCardStrategy создаёт стратегию оплаты картой.
func NewCardStrategy(gateway domain.PaymentGateway, logger *log.Entry) Strategy {
	if logger == nil {
		logger = log.New().WithField("component", "payment-card")
	}
	return &cardStrategy{gateway: gateway, logger: logger}
}

// Validate проверяет сумму и разбивку; достаточность средств знает только шлюз.
func (s *cardStrategy) Validate(pc Context) error {
	if pc.TotalAmount <= 0 {
		return domain.ErrAmountInvalid
	}
	if pc.CardAmount != pc.TotalAmount || pc.PointAmount != 0 {
		return domain.ErrPaymentSplitMismatch
	}
	if pc.Card.Number == "" {
		return domain.ErrAmountInvalid
	}
	return nil
}

// Execute отправляет списание в шлюз и транслирует его статус в Outcome.
// Ошибок транспортного уровня здесь не бывает: устойчивый клиент шлюза
// деградирует их в PENDING.
func (s *cardStrategy) Execute(pc Context) (Result, error) {
	res, err := s.gateway.Submit(domain.GatewayRequest{
		OrderID: pc.OrderID,
		UserID:  pc.UserID,
		Amount:  pc.CardAmount,
		Card:    pc.Card,
	})
	if err != nil {
		return Result{}, fmt.Errorf("submit card payment: %w", err)
	}

	out := Result{GatewayTransactionID: res.TransactionID, FailureReason: res.FailureReason}
	switch res.Status {
	case domain.GatewayStatusSuccess:
		out.Outcome = OutcomeApproved
	case domain.GatewayStatusFailed:
		out.Outcome = OutcomeDeclined
	default:
		// PENDING и UNKNOWN трактуем одинаково: ждём callback или reconciliation.
		s.logger.WithFields(log.Fields{
			"order_id": pc.OrderID,
			"status":   res.Status,
		}).Info("card payment pending gateway resolution")
		out.Outcome = OutcomePending
	}
	return out, nil
}

var _ Strategy = (*cardStrategy)(nil)
