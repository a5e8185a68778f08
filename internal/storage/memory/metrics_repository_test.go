package memory

import (
	"testing"
	"time"
)

func TestMetricsRepository_Counters(t *testing.T) {
	repo := NewMetricsRepository()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.IncrementViews(1, day, 5); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	if err := repo.IncrementOrders(1, day, 3); err != nil {
		t.Fatalf("increment orders: %v", err)
	}

	row, err := repo.Get(1, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.ViewCount != 5 || row.OrderCount != 1 || row.TotalQuantity != 3 {
		t.Fatalf("unexpected counters: %+v", row)
	}
	if got := row.PeriodScore(); got != 5+6 {
		t.Fatalf("expected period score 11, got %d", got)
	}
}

// Like в 10:00, пришедший после unlike в 09:00, должен победить: итоговое
// состояние отражает более поздний факт, лишнего декремента нет.
func TestMetricsRepository_LikeLastWriterWins(t *testing.T) {
	repo := NewMetricsRepository()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	likeAt := day.Add(10 * time.Hour)
	unlikeAt := day.Add(9 * time.Hour)

	applied, err := repo.ApplyLike(1, day, true, likeAt)
	if err != nil {
		t.Fatalf("apply like: %v", err)
	}
	if !applied {
		t.Fatal("like must be applied")
	}

	applied, err = repo.ApplyLike(1, day, false, unlikeAt)
	if err != nil {
		t.Fatalf("apply unlike: %v", err)
	}
	if applied {
		t.Fatal("stale unlike must be ignored")
	}

	row, _ := repo.Get(1, day)
	if row.LikeCount != 1 {
		t.Fatalf("expected like count 1, got %d", row.LikeCount)
	}
}

func TestMetricsRepository_UnlikeFloorsAtZero(t *testing.T) {
	repo := NewMetricsRepository()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	applied, err := repo.ApplyLike(1, day, false, day.Add(time.Hour))
	if err != nil {
		t.Fatalf("apply unlike: %v", err)
	}
	if !applied {
		t.Fatal("unlike must still advance the event timestamp")
	}

	row, _ := repo.Get(1, day)
	if row.LikeCount != 0 {
		t.Fatalf("like count must not go negative, got %d", row.LikeCount)
	}
}

func TestMetricsRepository_ListRange(t *testing.T) {
	repo := NewMetricsRepository()
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 7)

	_ = repo.IncrementViews(1, d1, 1)
	_ = repo.IncrementViews(1, d2, 1)
	_ = repo.IncrementViews(2, d3, 1)

	rows, err := repo.ListRange(d1, d1.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows inside the week, got %d", len(rows))
	}
}
