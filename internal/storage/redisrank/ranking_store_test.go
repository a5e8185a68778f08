package redisrank

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// fakeCommands имитирует нужное подмножество Redis в памяти.
type fakeCommands struct {
	scores      map[string]map[string]float64
	ttls        map[string]time.Duration
	expireCalls int
	rangeCalls  int
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		scores: make(map[string]map[string]float64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeCommands) ZIncrBy(_ context.Context, key string, increment float64, member string) *redis.FloatCmd {
	if f.scores[key] == nil {
		f.scores[key] = make(map[string]float64)
	}
	f.scores[key][member] += increment
	return redis.NewFloatResult(f.scores[key][member], nil)
}

func (f *fakeCommands) TTL(_ context.Context, key string) *redis.DurationCmd {
	if ttl, ok := f.ttls[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	if _, ok := f.scores[key]; ok {
		// Ключ есть, срок жизни не назначен.
		return redis.NewDurationResult(-1*time.Second, nil)
	}
	return redis.NewDurationResult(-2*time.Second, nil)
}

func (f *fakeCommands) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expireCalls++
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	f.rangeCalls++

	members := make([]redis.Z, 0, len(f.scores[key]))
	for member, score := range f.scores[key] {
		members = append(members, redis.Z{Member: member, Score: score})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Score > members[j].Score })

	if start >= int64(len(members)) {
		return redis.NewZSliceCmdResult(nil, nil)
	}
	if stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return redis.NewZSliceCmdResult(members[start:stop+1], nil)
}

func TestIncrementScore_TTLSetOnFirstTouchOnly(t *testing.T) {
	fake := newFakeCommands()
	store := &rankingStore{rdb: fake}
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.IncrementScore(day, 1, 1); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := store.IncrementScore(day, 1, 2); err != nil {
		t.Fatalf("second increment: %v", err)
	}
	if err := store.IncrementScore(day, 2, 1); err != nil {
		t.Fatalf("third increment: %v", err)
	}

	// Срок жизни дня фиксируется первым событием и не продлевается
	// последующими инкрементами.
	if fake.expireCalls != 1 {
		t.Fatalf("expire calls = %d, want 1", fake.expireCalls)
	}
	if got := fake.ttls[dayKey(day)]; got != domain.RankingDayTTL {
		t.Fatalf("ttl = %v, want %v", got, domain.RankingDayTTL)
	}
	if got := fake.scores[dayKey(day)]["1"]; got != 3 {
		t.Fatalf("score = %v, want 3", got)
	}
}

func TestTopN_ReturnsPageByDescendingScore(t *testing.T) {
	fake := newFakeCommands()
	store := &rankingStore{rdb: fake}
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for productID, delta := range map[int64]float64{1: 5, 2: 9, 3: 1} {
		if err := store.IncrementScore(day, productID, delta); err != nil {
			t.Fatalf("increment %d: %v", productID, err)
		}
	}

	entries, err := store.TopN(day, 0, 2)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].ProductID != 2 || entries[1].ProductID != 1 {
		t.Fatalf("page = %+v", entries)
	}
}

func TestTopN_NonPositiveLimitReturnsNothing(t *testing.T) {
	fake := newFakeCommands()
	store := &rankingStore{rdb: fake}
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := store.IncrementScore(day, 1, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}

	for _, limit := range []int{0, -5} {
		entries, err := store.TopN(day, 0, limit)
		if err != nil {
			t.Fatalf("top n with limit %d: %v", limit, err)
		}
		if entries != nil {
			t.Fatalf("limit %d returned %+v, want nil", limit, entries)
		}
	}
	if fake.rangeCalls != 0 {
		t.Fatalf("range calls = %d, want 0", fake.rangeCalls)
	}
}
