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

// ProductLikedHandler обрабатывает like/unlike события. Счётчик лайков
// обновляется по last-writer-wins, дневной рейтинг растёт только когда лайк
// действительно применён.
type ProductLikedHandler struct {
	metrics   domain.MetricsRepository
	ranking   domain.RankingStore
	processor *processor
	logger    *log.Entry
}

// NewProductLikedHandler создаёт обработчик топика product.liked.
func NewProductLikedHandler(
	metrics domain.MetricsRepository,
	ranking domain.RankingStore,
	consumed domain.ConsumedEventRepository,
	logger *log.Entry,
) *ProductLikedHandler {
	if logger == nil {
		logger = log.WithField("component", "product-liked-consumer")
	}
	return &ProductLikedHandler{
		metrics:   metrics,
		ranking:   ranking,
		processor: newProcessor(consumed, logger),
		logger:    logger,
	}
}

// Handle реализует kafka.MessageHandler.
func (h *ProductLikedHandler) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	var event domain.ProductLikedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("unmarshal product liked event: %w", err)
	}

	return h.processor.process(kafka.DedupID(message), func() error {
		day := domain.MetricsDay(event.OccurredAt)
		applied, err := h.metrics.ApplyLike(event.ProductID, day, event.Liked, event.OccurredAt)
		if err != nil {
			return fmt.Errorf("apply like: %w", err)
		}
		if !applied {
			h.logger.WithFields(log.Fields{
				"product_id": event.ProductID,
				"liked":      event.Liked,
			}).Debug("stale like event ignored")
			return nil
		}
		if !event.Liked {
			return nil
		}
		if err := h.ranking.IncrementScore(day, event.ProductID, domain.RankingLikeWeight); err != nil {
			return fmt.Errorf("increment ranking score: %w", err)
		}
		return nil
	})
}
