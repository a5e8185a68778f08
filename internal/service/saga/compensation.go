package saga

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
)

// Compensator откатывает заказ после неудавшейся оплаты: платёж failed,
// заказ failed и событие PaymentFailed пишутся одной транзакцией unit of work,
// резервы возвращаются после её фиксации.
type Compensator struct {
	orders   domain.OrderRepository
	payments domain.PaymentRepository
	stock    domain.StockLedger
	uow      domain.UnitOfWork
	logger   *log.Entry
	metrics  *metrics.SagaMetrics
}

// NewCompensator создаёт сервис компенсации. При nil uow записи идут в
// переданные репозитории напрямую.
func NewCompensator(
	orders domain.OrderRepository,
	payments domain.PaymentRepository,
	stock domain.StockLedger,
	outbox domain.OutboxRepository,
	uow domain.UnitOfWork,
	logger *log.Entry,
	m *metrics.SagaMetrics,
) *Compensator {
	if logger == nil {
		logger = log.New().WithField("component", "compensation")
	}
	if uow == nil {
		uow = domain.NewPassthroughUnitOfWork(orders, payments, outbox)
	}
	return &Compensator{
		orders:   orders,
		payments: payments,
		stock:    stock,
		uow:      uow,
		logger:   logger,
		metrics:  m,
	}
}

// Compensate откатывает заказ. Действует только на заказы в статусе paying:
// повторный вызов и вызов на финализированном заказе — no-op, что делает
// компенсацию идемпотентной при гонке callback и reconciliation.
func (c *Compensator) Compensate(orderID, reason string) {
	order, err := c.orders.Get(orderID)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", orderID).Warn("order not found for compensation")
		return
	}

	if order.Status != domain.OrderStatusPaying {
		c.logger.WithFields(log.Fields{
			"order_id": orderID,
			"status":   order.Status,
		}).Debug("order not in paying state, compensation skipped")
		return
	}

	var (
		paymentID string
		havePay   bool
	)
	pay, err := c.payments.GetByOrder(orderID)
	if err == nil {
		paymentID = pay.ID
		if markErr := pay.MarkFailed(reason); markErr != nil {
			c.logger.WithError(markErr).WithField("order_id", orderID).Warn("payment already finalized, compensation skipped")
			return
		}
		havePay = true
	} else {
		c.logger.WithError(err).WithField("order_id", orderID).Warn("no payment found during compensation")
	}

	if err := order.Fail(); err != nil {
		c.logger.WithError(err).WithField("order_id", orderID).Error("failed to mark order failed")
		return
	}

	err = c.uow.Within(func(scope domain.TxScope) error {
		if havePay {
			if saveErr := scope.Payments.Save(pay); saveErr != nil {
				return fmt.Errorf("save failed payment: %w", saveErr)
			}
		}
		if saveErr := scope.Orders.Save(order); saveErr != nil {
			return fmt.Errorf("save failed order: %w", saveErr)
		}
		return c.emitPaymentFailed(scope.Outbox, order.ID, paymentID, reason)
	})
	if err != nil {
		// Заказ остаётся в paying, повторная компенсация доделает откат.
		c.logger.WithError(err).WithField("order_id", orderID).Error("compensation transaction failed")
		return
	}

	// Резервы возвращаются в порядке, обратном захвату, и только после
	// фиксации транзакции: иначе повторная компенсация вернула бы их дважды.
	for i := len(order.Items) - 1; i >= 0; i-- {
		item := order.Items[i]
		if relErr := c.stock.Release(item.ProductID, item.Quantity); relErr != nil {
			c.logger.WithError(relErr).WithFields(log.Fields{
				"order_id":   orderID,
				"product_id": item.ProductID,
			}).Error("failed to release reservation during compensation")
		}
	}

	if c.metrics != nil {
		c.metrics.RecordOrderCompensated()
		c.metrics.RecordOrderFailed()
	}
	c.logger.WithFields(log.Fields{
		"order_id": orderID,
		"reason":   reason,
	}).Info("order compensated")
}

func (c *Compensator) emitPaymentFailed(outbox domain.OutboxRepository, orderID, paymentID, reason string) error {
	payload, err := json.Marshal(domain.PaymentFailedEvent{
		OrderID:   orderID,
		PaymentID: paymentID,
		Reason:    reason,
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payment failed event: %w", err)
	}
	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     domain.EventTypePaymentFailed,
		Topic:         kafka.TopicOrderEvents,
		Payload:       payload,
	}
	if _, err := outbox.Enqueue(msg); err != nil {
		return fmt.Errorf("enqueue payment failed event: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordOutboxEvent()
	}
	return nil
}
