// Package ranking содержит батч-агрегатор, материализующий недельные и
// месячные рейтинги товаров из дневных счётчиков.
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

const (
	defaultRecomputeInterval = 15 * time.Minute
	defaultTopLimit          = 100
)

var (
	rankingRecomputeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_ranking_recompute_runs_total",
		Help: "Total number of period ranking recompute runs grouped by period and result.",
	}, []string{"period", "result"})
	rankingRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "commerce_ranking_recompute_duration_seconds",
		Help:    "Duration of a period ranking recompute run.",
		Buckets: prometheus.DefBuckets,
	})
	rankingRecomputeRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "commerce_ranking_recompute_rows",
		Help: "Number of materialized rows during the last recompute per period.",
	}, []string{"period"})
)

// AggregatorOptions задаёт параметры батч-агрегатора.
type AggregatorOptions struct {
	Logger   *log.Entry
	Interval time.Duration
	TopLimit int
	Now      func() time.Time
}

// AggregatorOption настраивает Aggregator.
type AggregatorOption func(*AggregatorOptions)

// WithLogger задаёт logger для агрегатора.
func WithLogger(logger *log.Entry) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между пересчётами.
func WithInterval(interval time.Duration) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.Interval = interval
	}
}

// WithTopLimit ограничивает число материализуемых строк на период.
func WithTopLimit(limit int) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.TopLimit = limit
	}
}

// WithClock задаёт источник времени.
func WithClock(now func() time.Time) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.Now = now
	}
}

// Aggregator пересчитывает текущие недельный и месячный рейтинги из дневных
// счётчиков. Пересчёт идемпотентен: каждая итерация полностью заменяет строки
// периода.
type Aggregator struct {
	metrics  domain.MetricsRepository
	rankings domain.PeriodRankingRepository
	logger   *log.Entry
	interval time.Duration
	topLimit int
	now      func() time.Time
}

// NewAggregator создаёт батч-агрегатор периодных рейтингов.
func NewAggregator(metrics domain.MetricsRepository, rankings domain.PeriodRankingRepository, options ...AggregatorOption) *Aggregator {
	opts := AggregatorOptions{
		Interval: defaultRecomputeInterval,
		TopLimit: defaultTopLimit,
		Now:      time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "ranking-aggregator")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultRecomputeInterval
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = defaultTopLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Aggregator{
		metrics:  metrics,
		rankings: rankings,
		logger:   logger,
		interval: opts.Interval,
		topLimit: opts.TopLimit,
		now:      opts.Now,
	}
}

// Run запускает периодический пересчёт до отмены ctx.
func (a *Aggregator) Run(ctx context.Context) {
	if a.metrics == nil || a.rankings == nil {
		a.logger.Warn("ranking aggregator is disabled: metrics or rankings repo is nil")
		return
	}

	a.ProcessOnce(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce пересчитывает обе периодные таблицы для текущего момента.
func (a *Aggregator) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	now := a.now().UTC()
	for _, period := range []domain.RankingPeriod{domain.RankingPeriodWeekly, domain.RankingPeriodMonthly} {
		if ctx.Err() != nil {
			return
		}
		if err := a.Recompute(period, now); err != nil {
			rankingRecomputeRunsTotal.WithLabelValues(string(period), "error").Inc()
			a.logger.WithError(err).WithField("period", period).Warn("ranking recompute failed")
			continue
		}
		rankingRecomputeRunsTotal.WithLabelValues(string(period), "ok").Inc()
	}
}

// Recompute материализует рейтинг периода, содержащего момент at.
func (a *Aggregator) Recompute(period domain.RankingPeriod, at time.Time) error {
	started := time.Now()
	defer func() {
		rankingRecomputeDuration.Observe(time.Since(started).Seconds())
	}()

	periodStart := period.StartOf(at)
	periodEnd := period.Next(periodStart)

	rows, err := a.metrics.ListRange(periodStart, periodEnd)
	if err != nil {
		return err
	}

	entries := a.aggregate(period, periodStart, rows)
	if err := a.rankings.Replace(period, periodStart, entries); err != nil {
		return err
	}

	rankingRecomputeRows.WithLabelValues(string(period)).Set(float64(len(entries)))
	a.logger.WithFields(log.Fields{
		"period":       period,
		"period_start": periodStart.Format("2006-01-02"),
		"rows":         len(entries),
	}).Debug("period ranking recomputed")
	return nil
}

// aggregate сворачивает дневные строки в балл на товар и присваивает ранги.
// Совпадающие баллы упорядочиваются по возрастанию productID; ранг — позиция
// в отсортированном списке.
func (a *Aggregator) aggregate(period domain.RankingPeriod, periodStart time.Time, rows []domain.ProductMetrics) []domain.PeriodRanking {
	scores := make(map[int64]int64)
	for _, row := range rows {
		scores[row.ProductID] += row.PeriodScore()
	}

	entries := make([]domain.PeriodRanking, 0, len(scores))
	for productID, score := range scores {
		if score <= 0 {
			continue
		}
		entries = append(entries, domain.PeriodRanking{
			Period:      period,
			PeriodStart: periodStart,
			ProductID:   productID,
			Score:       score,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ProductID < entries[j].ProductID
	})

	if len(entries) > a.topLimit {
		entries = entries[:a.topLimit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
