package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestPeriodRankingRepository_ReplaceList(t *testing.T) {
	repo := NewPeriodRankingRepository()
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	entries := []domain.PeriodRanking{
		{Period: domain.RankingPeriodWeekly, PeriodStart: weekStart, ProductID: 2, Score: 50, Rank: 1},
		{Period: domain.RankingPeriodWeekly, PeriodStart: weekStart, ProductID: 1, Score: 20, Rank: 2},
	}
	if err := repo.Replace(domain.RankingPeriodWeekly, weekStart, entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	listed, err := repo.List(domain.RankingPeriodWeekly, weekStart, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].ProductID != 2 || listed[1].Rank != 2 {
		t.Fatalf("unexpected ranking: %+v", listed)
	}

	// Повторный Replace полностью заменяет прежние строки периода.
	if err := repo.Replace(domain.RankingPeriodWeekly, weekStart, []domain.PeriodRanking{
		{Period: domain.RankingPeriodWeekly, PeriodStart: weekStart, ProductID: 3, Score: 70, Rank: 1},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	listed, _ = repo.List(domain.RankingPeriodWeekly, weekStart, 0)
	if len(listed) != 1 || listed[0].ProductID != 3 {
		t.Fatalf("replace must overwrite period rows: %+v", listed)
	}
}

func TestPeriodRankingRepository_PeriodsAreIsolated(t *testing.T) {
	repo := NewPeriodRankingRepository()
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Replace(domain.RankingPeriodWeekly, weekStart, []domain.PeriodRanking{
		{Period: domain.RankingPeriodWeekly, PeriodStart: weekStart, ProductID: 1, Score: 10, Rank: 1},
	}); err != nil {
		t.Fatalf("replace weekly: %v", err)
	}
	if err := repo.Replace(domain.RankingPeriodMonthly, monthStart, []domain.PeriodRanking{
		{Period: domain.RankingPeriodMonthly, PeriodStart: monthStart, ProductID: 2, Score: 40, Rank: 1},
	}); err != nil {
		t.Fatalf("replace monthly: %v", err)
	}

	weekly, _ := repo.List(domain.RankingPeriodWeekly, weekStart, 0)
	monthly, _ := repo.List(domain.RankingPeriodMonthly, monthStart, 0)
	if len(weekly) != 1 || weekly[0].ProductID != 1 {
		t.Fatalf("unexpected weekly ranking: %+v", weekly)
	}
	if len(monthly) != 1 || monthly[0].ProductID != 2 {
		t.Fatalf("unexpected monthly ranking: %+v", monthly)
	}

	empty, _ := repo.List(domain.RankingPeriodWeekly, weekStart.AddDate(0, 0, 7), 0)
	if len(empty) != 0 {
		t.Fatalf("expected no rows for the next week, got %+v", empty)
	}
}

func TestPeriodRankingRepository_Limit(t *testing.T) {
	repo := NewPeriodRankingRepository()
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	entries := make([]domain.PeriodRanking, 0, 5)
	for i := 1; i <= 5; i++ {
		entries = append(entries, domain.PeriodRanking{
			Period:      domain.RankingPeriodWeekly,
			PeriodStart: weekStart,
			ProductID:   int64(i),
			Score:       int64(60 - i*10),
			Rank:        i,
		})
	}
	if err := repo.Replace(domain.RankingPeriodWeekly, weekStart, entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	limited, err := repo.List(domain.RankingPeriodWeekly, weekStart, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 3 || limited[0].ProductID != 1 || limited[2].ProductID != 3 {
		t.Fatalf("limit not applied: %+v", limited)
	}
}
