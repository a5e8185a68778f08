package payment

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// Registry хранит по стратегии на каждый поддерживаемый PaymentType.
// Собирается один раз при старте и дальше только читается.
type Registry struct {
	strategies map[domain.PaymentType]Strategy
}

// NewRegistry собирает реестр стандартных стратегий.
func NewRegistry(balances domain.BalanceLedger, gateway domain.PaymentGateway, logger *log.Entry) *Registry {
	if logger == nil {
		logger = log.New().WithField("component", "payment")
	}
	return &Registry{
		strategies: map[domain.PaymentType]Strategy{
			domain.PaymentTypePointOnly: NewPointStrategy(balances, logger),
			domain.PaymentTypeCardOnly:  NewCardStrategy(gateway, logger),
			domain.PaymentTypeMixed:     NewMixedStrategy(balances, logger),
		},
	}
}

// NewRegistryWith собирает реестр из явного набора стратегий (для тестов).
func NewRegistryWith(strategies map[domain.PaymentType]Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// Resolve возвращает стратегию для типа оплаты. Неизвестный тип — ошибка
// конфигурации, а не ошибка валидации заказа.
func (r *Registry) Resolve(t domain.PaymentType) (Strategy, error) {
	s, ok := r.strategies[t]
	if !ok {
		return nil, fmt.Errorf("payment type %q: %w", t, domain.ErrUnsupportedPaymentType)
	}
	return s, nil
}
