package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestNewProducerError(t *testing.T) {
	if _, err := NewProducer([]string{"invalid-broker:9092"}); err == nil {
		t.Fatal("expected new producer error")
	}
}

func TestPublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicProductViewed {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded["product_id"] != float64(42) {
			t.Fatalf("unexpected payload: %v", decoded)
		}
		return nil
	})

	producer := &Producer{producer: mockProducer, logger: log.WithField("test", "producer")}
	event := map[string]interface{}{"product_id": 42}
	if err := producer.PublishEvent(TopicProductViewed, "42", event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPublishEventMarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := &Producer{producer: mockProducer, logger: log.WithField("test", "producer")}

	// Каналы не сериализуются в JSON.
	if err := producer.PublishEvent(TopicProductViewed, "42", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPublishRawHeaders(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		if headers[HeaderDedupID] != "evt-1" {
			t.Fatalf("missing dedup header: %v", headers)
		}
		if headers[HeaderEventType] != "OrderCompleted" {
			t.Fatalf("missing event type header: %v", headers)
		}
		return nil
	})

	producer := &Producer{producer: mockProducer, logger: log.WithField("test", "producer")}
	err := producer.PublishRaw(TopicOrderEvents, "order-1", []byte(`{}`), map[string]string{
		HeaderDedupID:   "evt-1",
		HeaderEventType: "OrderCompleted",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPublishRawSendError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := &Producer{producer: mockProducer, logger: log.WithField("test", "producer")}
	if err := producer.PublishRaw(TopicOrderEvents, "order-1", []byte(`{}`), nil); err == nil {
		t.Fatal("expected send error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducerClose(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := &Producer{producer: mockProducer, logger: log.WithField("test", "producer")}
	if err := producer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
