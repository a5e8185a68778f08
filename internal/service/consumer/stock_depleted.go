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

// StockDepletedHandler инвалидирует кэш каталога при обнулении остатка.
// Инвалидация идемпотентна, поэтому повторная доставка безвредна.
type StockDepletedHandler struct {
	invalidator domain.CacheInvalidator
	processor   *processor
	logger      *log.Entry
}

// NewStockDepletedHandler создаёт обработчик топика stock.depleted.
func NewStockDepletedHandler(
	invalidator domain.CacheInvalidator,
	consumed domain.ConsumedEventRepository,
	logger *log.Entry,
) *StockDepletedHandler {
	if logger == nil {
		logger = log.WithField("component", "stock-depleted-consumer")
	}
	return &StockDepletedHandler{
		invalidator: invalidator,
		processor:   newProcessor(consumed, logger),
		logger:      logger,
	}
}

// Handle реализует kafka.MessageHandler.
func (h *StockDepletedHandler) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	var event domain.StockDepletedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("unmarshal stock depleted event: %w", err)
	}

	return h.processor.process(kafka.DedupID(message), func() error {
		if err := h.invalidator.InvalidateDetail(event.ProductID); err != nil {
			return fmt.Errorf("invalidate product detail cache: %w", err)
		}
		if err := h.invalidator.InvalidateListCaches(); err != nil {
			return fmt.Errorf("invalidate product list caches: %w", err)
		}
		h.logger.WithField("product_id", event.ProductID).Info("catalog cache invalidated after stock depletion")
		return nil
	})
}
