package payment

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// pointStrategy оплачивает заказ целиком баллами с баланса пользователя.
type pointStrategy struct {
	balances domain.BalanceLedger
	logger   *log.Entry
}

// NewPointStrategy создаёт стратегию оплаты баллами.
func NewPointStrategy(balances domain.BalanceLedger, logger *log.Entry) Strategy {
	if logger == nil {
		logger = log.New().WithField("component", "payment-point")
	}
	return &pointStrategy{balances: balances, logger: logger}
}

// Validate проверяет сумму и достаточность баланса. Проверка выполняется до
// создания строк заказа и платежа: заказ с заведомо нехватающим балансом не
// оставляет следов в хранилище. Авторитетной остаётся атомарная проверка
// внутри Deduct — баланс может измениться между Validate и Execute.
func (s *pointStrategy) Validate(pc Context) error {
	if pc.TotalAmount <= 0 {
		return domain.ErrAmountInvalid
	}
	if pc.PointAmount != pc.TotalAmount || pc.CardAmount != 0 {
		return domain.ErrPaymentSplitMismatch
	}

	balance, err := s.balances.Balance(pc.UserID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance < pc.TotalAmount {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// Execute списывает полную сумму с баланса. Нехватка средств — decline, а не
// ошибка инфраструктуры.
func (s *pointStrategy) Execute(pc Context) (Result, error) {
	if err := s.balances.Deduct(pc.UserID, pc.TotalAmount); err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			s.logger.WithFields(log.Fields{
				"order_id": pc.OrderID,
				"user_id":  pc.UserID,
				"amount":   pc.TotalAmount,
			}).Warn("point payment declined: insufficient funds")
			return Result{Outcome: OutcomeDeclined, FailureReason: err.Error(), Cause: domain.ErrInsufficientFunds}, nil
		}
		return Result{}, fmt.Errorf("deduct points: %w", err)
	}
	return Result{Outcome: OutcomeApproved}, nil
}

var _ Strategy = (*pointStrategy)(nil)
