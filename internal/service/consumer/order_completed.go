package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
)

// OrderCompletedHandler обновляет счётчики заказов и дневной рейтинг по
// завершённым заказам. Топик заказов несёт несколько типов событий; остальные
// типы подтверждаются без эффекта.
type OrderCompletedHandler struct {
	metrics   domain.MetricsRepository
	ranking   domain.RankingStore
	processor *processor
	logger    *log.Entry
}

// NewOrderCompletedHandler создаёт обработчик топика order.events.
func NewOrderCompletedHandler(
	metrics domain.MetricsRepository,
	ranking domain.RankingStore,
	consumed domain.ConsumedEventRepository,
	logger *log.Entry,
) *OrderCompletedHandler {
	if logger == nil {
		logger = log.WithField("component", "order-completed-consumer")
	}
	return &OrderCompletedHandler{
		metrics:   metrics,
		ranking:   ranking,
		processor: newProcessor(consumed, logger),
		logger:    logger,
	}
}

// Handle реализует kafka.MessageHandler.
func (h *OrderCompletedHandler) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	if eventType := kafka.EventType(message); eventType != "" && eventType != domain.EventTypeOrderCompleted {
		return nil
	}

	var event domain.OrderCompletedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("unmarshal order completed event: %w", err)
	}

	return h.processor.process(kafka.DedupID(message), func() error {
		day := domain.MetricsDay(event.CompletedAt)
		for _, item := range event.Items {
			if item.Quantity <= 0 {
				continue
			}
			if err := h.metrics.IncrementOrders(item.ProductID, day, item.Quantity); err != nil {
				return fmt.Errorf("increment orders for product %d: %w", item.ProductID, err)
			}
			delta := domain.RankingOrderWeight * float64(item.Quantity)
			if err := h.ranking.IncrementScore(day, item.ProductID, delta); err != nil {
				return fmt.Errorf("increment ranking score for product %d: %w", item.ProductID, err)
			}
		}
		return nil
	})
}
