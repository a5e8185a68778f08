package kafka

import (
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// OutboxTopicPublisher публикует outbox-записи в Kafka. Topic берётся из самой
// записи; id записи уходит в заголовок x-dedup-id для идемпотентных
// потребителей.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string // fallback для записей без topic
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, fallbackTopic string) domain.OutboxPublisher {
	if fallbackTopic == "" {
		fallbackTopic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    fallbackTopic,
	}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized: %w", domain.ErrOutboxPublish)
	}

	topic := event.Topic
	if topic == "" {
		topic = p.topic
	}
	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	headers := map[string]string{
		HeaderDedupID: event.ID,
	}
	if event.EventType != "" {
		headers[HeaderEventType] = event.EventType
	}
	if err := p.producer.PublishRaw(topic, key, event.Payload, headers); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOutboxPublish, err)
	}
	return nil
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
