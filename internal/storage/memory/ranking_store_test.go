package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestRankingStore_TopN(t *testing.T) {
	store := NewRankingStore()
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustIncrement(t, store, day, 1, domain.RankingViewWeight)
	mustIncrement(t, store, day, 2, domain.RankingLikeWeight)
	mustIncrement(t, store, day, 3, domain.RankingOrderWeight*3)
	mustIncrement(t, store, day, 2, domain.RankingLikeWeight)

	top, err := store.TopN(day, 0, 10)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].ProductID != 3 || top[1].ProductID != 2 || top[2].ProductID != 1 {
		t.Fatalf("unexpected ordering: %+v", top)
	}
}

func TestRankingStore_Pagination(t *testing.T) {
	store := NewRankingStore()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		mustIncrement(t, store, day, i, float64(i))
	}

	page, err := store.TopN(day, 2, 2)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	if page[0].ProductID != 3 || page[1].ProductID != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := store.TopN(day, 10, 2)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("offset past end must be empty, got %+v", empty)
	}
}

func TestRankingStore_DayKeyExpiry(t *testing.T) {
	store := NewRankingStore()
	current := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	day := current
	mustIncrement(t, store, day, 1, 1.0)

	// Сдвигаем часы за пределы TTL дневного ключа.
	current = current.Add(domain.RankingDayTTL + time.Hour)

	top, err := store.TopN(day, 0, 10)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expired day must be empty, got %+v", top)
	}
}

func mustIncrement(t *testing.T, store domain.RankingStore, day time.Time, productID int64, delta float64) {
	t.Helper()
	if err := store.IncrementScore(day, productID, delta); err != nil {
		t.Fatalf("increment score: %v", err)
	}
}
