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

// ProductViewedHandler обрабатывает батчи просмотров товара.
type ProductViewedHandler struct {
	metrics   domain.MetricsRepository
	ranking   domain.RankingStore
	processor *processor
	logger    *log.Entry
}

// NewProductViewedHandler создаёт обработчик топика product.viewed.
func NewProductViewedHandler(
	metrics domain.MetricsRepository,
	ranking domain.RankingStore,
	consumed domain.ConsumedEventRepository,
	logger *log.Entry,
) *ProductViewedHandler {
	if logger == nil {
		logger = log.WithField("component", "product-viewed-consumer")
	}
	return &ProductViewedHandler{
		metrics:   metrics,
		ranking:   ranking,
		processor: newProcessor(consumed, logger),
		logger:    logger,
	}
}

// Handle реализует kafka.MessageHandler.
func (h *ProductViewedHandler) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	var event domain.ProductViewedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("unmarshal product viewed event: %w", err)
	}
	if event.ViewCount <= 0 {
		h.logger.WithField("product_id", event.ProductID).Warn("product viewed event with non-positive count skipped")
		return nil
	}

	return h.processor.process(kafka.DedupID(message), func() error {
		day := domain.MetricsDay(event.ViewedAt)
		if err := h.metrics.IncrementViews(event.ProductID, day, event.ViewCount); err != nil {
			return fmt.Errorf("increment views: %w", err)
		}
		delta := domain.RankingViewWeight * float64(event.ViewCount)
		if err := h.ranking.IncrementScore(day, event.ProductID, delta); err != nil {
			return fmt.Errorf("increment ranking score: %w", err)
		}
		return nil
	})
}
