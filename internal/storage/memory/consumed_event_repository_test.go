package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestConsumedEventRepository_MarkOnce(t *testing.T) {
	repo := NewConsumedEventRepository()
	now := time.Now().UTC()

	if err := repo.MarkConsumed("event-1", now); err != nil {
		t.Fatalf("mark consumed: %v", err)
	}
	if err := repo.MarkConsumed("event-1", now); !errors.Is(err, domain.ErrEventAlreadyConsumed) {
		t.Fatalf("duplicate mark must be rejected, got %v", err)
	}

	consumed, err := repo.IsConsumed("event-1")
	if err != nil {
		t.Fatalf("is consumed: %v", err)
	}
	if !consumed {
		t.Fatal("event must be marked consumed")
	}
}

func TestConsumedEventRepository_DeleteOlderThan(t *testing.T) {
	repo := NewConsumedEventRepository()
	now := time.Now().UTC()

	_ = repo.MarkConsumed("old-1", now.Add(-48*time.Hour))
	_ = repo.MarkConsumed("old-2", now.Add(-24*time.Hour))
	_ = repo.MarkConsumed("fresh", now)

	removed, err := repo.DeleteOlderThan(now.Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	consumed, _ := repo.IsConsumed("fresh")
	if !consumed {
		t.Fatal("fresh marker must survive the cleanup")
	}
}
