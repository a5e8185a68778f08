package kafka

// Topics для Kafka
const (
	TopicOrderEvents     = "commerce.order.events"
	TopicProductLiked    = "commerce.product.liked"
	TopicProductViewed   = "commerce.product.viewed"
	TopicStockDepleted   = "commerce.stock.depleted"
	TopicDeadLetterQueue = "commerce.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers
const (
	// HeaderDedupID несёт стабильный идентификатор события для идемпотентной
	// обработки на стороне потребителя.
	HeaderDedupID = "x-dedup-id"

	// HeaderEventType различает типы событий внутри общего топика.
	HeaderEventType = "x-event-type"
)
