package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/service/consumer"
)

const consumerMaxRetries = 3

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// initConsumers создаёт consumer group на топик для каждого обработчика
// метрик и кэша. Все потребители делят одну consumer group и DLQ.
func initConsumers(cfg Config, deps *Dependencies, dlqProducer *kafka.Producer, logger *log.Entry) ([]*kafka.Consumer, error) {
	brokers := strings.Split(cfg.KafkaBrokers, ",")

	liked := consumer.NewProductLikedHandler(deps.Metrics, deps.Ranking, deps.Consumed, nil)
	viewed := consumer.NewProductViewedHandler(deps.Metrics, deps.Ranking, deps.Consumed, nil)
	completed := consumer.NewOrderCompletedHandler(deps.Metrics, deps.Ranking, deps.Consumed, nil)
	depleted := consumer.NewStockDepletedHandler(deps.Invalidator, deps.Consumed, nil)

	specs := []struct {
		topic   string
		handler kafka.MessageHandler
	}{
		{kafka.TopicProductLiked, liked.Handle},
		{kafka.TopicProductViewed, viewed.Handle},
		{kafka.TopicOrderEvents, completed.Handle},
		{kafka.TopicStockDepleted, depleted.Handle},
	}

	consumers := make([]*kafka.Consumer, 0, len(specs))
	for _, spec := range specs {
		c, err := kafka.NewConsumerWithDLQ(
			brokers,
			cfg.KafkaConsumerGroup,
			[]string{spec.topic},
			spec.handler,
			dlqProducer,
			consumerMaxRetries,
		)
		if err != nil {
			stopConsumers(consumers, logger)
			return nil, err
		}
		consumers = append(consumers, c)
		logger.WithField("topic", spec.topic).Info("kafka consumer initialized")
	}

	return consumers, nil
}

func stopConsumers(consumers []*kafka.Consumer, logger *log.Entry) {
	for _, c := range consumers {
		if err := c.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
	}
}
