package payment

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// mixedStrategy комбинирует баллы и карту. Балльная нога списывается первой;
// карточная нога пока не поддерживается в production, так что ненулевая
// карточная часть отклоняется с компенсацией уже списанных баллов.
type mixedStrategy struct {
	balances domain.BalanceLedger
	logger   *log.Entry
}

// NewMixedStrategy создаёт комбинированную стратегию.
func NewMixedStrategy(balances domain.BalanceLedger, logger *log.Entry) Strategy {
	if logger == nil {
		logger = log.New().WithField("component", "payment-mixed")
	}
	return &mixedStrategy{balances: balances, logger: logger}
}

// Validate проверяет разбивку и достаточность баланса для балльной ноги.
// Структурные проверки идут первыми, чтение баланса — до создания строк заказа;
// авторитетная проверка остаётся за атомарным Deduct в Execute.
func (s *mixedStrategy) Validate(pc Context) error {
	if pc.TotalAmount <= 0 {
		return domain.ErrAmountInvalid
	}
	if pc.PointAmount < 0 || pc.CardAmount < 0 {
		return domain.ErrAmountInvalid
	}
	if pc.PointAmount+pc.CardAmount != pc.TotalAmount {
		return domain.ErrPaymentSplitMismatch
	}

	if pc.PointAmount > 0 {
		balance, err := s.balances.Balance(pc.UserID)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		if balance < pc.PointAmount {
			return domain.ErrInsufficientFunds
		}
	}
	return nil
}

// Execute списывает балльную часть, затем обрабатывает карточную. Ненулевая
// карточная нога завершается decline с ErrMixedCardUnsupported в качестве
// причины; баллы возвращаются на баланс до выхода.
func (s *mixedStrategy) Execute(pc Context) (Result, error) {
	if pc.PointAmount > 0 {
		if err := s.balances.Deduct(pc.UserID, pc.PointAmount); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				s.logger.WithFields(log.Fields{
					"order_id": pc.OrderID,
					"user_id":  pc.UserID,
					"amount":   pc.PointAmount,
				}).Warn("mixed payment declined: insufficient funds for point leg")
				return Result{Outcome: OutcomeDeclined, FailureReason: err.Error(), Cause: domain.ErrInsufficientFunds}, nil
			}
			return Result{}, fmt.Errorf("deduct point leg: %w", err)
		}
	}

	if pc.CardAmount > 0 {
		// Локальная компенсация: баллы уже ушли, карточную ногу провести нечем.
		if pc.PointAmount > 0 {
			if err := s.balances.Credit(pc.UserID, pc.PointAmount); err != nil {
				s.logger.WithError(err).WithFields(log.Fields{
					"order_id": pc.OrderID,
					"user_id":  pc.UserID,
					"amount":   pc.PointAmount,
				}).Error("failed to re-credit point leg after card rejection")
				return Result{}, fmt.Errorf("re-credit point leg: %w", err)
			}
		}
		s.logger.WithFields(log.Fields{
			"order_id":    pc.OrderID,
			"card_amount": pc.CardAmount,
		}).Warn("mixed payment declined: card leg unsupported")
		return Result{Outcome: OutcomeDeclined, FailureReason: domain.ErrMixedCardUnsupported.Error(), Cause: domain.ErrMixedCardUnsupported}, nil
	}

	return Result{Outcome: OutcomeApproved}, nil
}

var _ Strategy = (*mixedStrategy)(nil)
