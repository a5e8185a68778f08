package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestOutboxRepository_EnqueuePull(t *testing.T) {
	repo := NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     domain.EventTypeOrderCompleted,
		Topic:         "commerce.order.events",
		Payload:       []byte(`{"order_id":"order-1"}`),
		CreatedAt:     time.Now().UTC().Add(-time.Second),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if first.ID == "" {
		t.Fatal("enqueue must assign an id")
	}

	second, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-2",
		EventType:     domain.EventTypeOrderCompleted,
		Topic:         "commerce.order.events",
		Payload:       []byte(`{"order_id":"order-2"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Fatalf("pending must be ordered by creation time, got %s first", pending[0].ID)
	}

	if err := repo.MarkProcessed(second.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	pending, _ = repo.PullPending(10)
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("processed record must no longer be pending: %+v", pending)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog, got %d", stats.PendingCount)
	}

	msg, _ := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     domain.EventTypePaymentFailed,
		Topic:         "commerce.order.events",
		Payload:       []byte(`{}`),
	})

	stats, _ = repo.Stats()
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	_ = repo.MarkProcessed(msg.ID)
	stats, _ = repo.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog after processing, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_MarkProcessedUnknown(t *testing.T) {
	repo := NewOutboxRepository()

	if err := repo.MarkProcessed("missing"); err == nil {
		t.Fatal("marking a missing record must fail")
	}
}
