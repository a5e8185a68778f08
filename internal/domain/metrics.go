package domain

import "time"

// Весовые коэффициенты рейтинга. Дневной рейтинг инкрементится событиями,
// периодный пересчитывается батчем по накопленным счётчикам.
const (
	RankingViewWeight  = 0.1
	RankingLikeWeight  = 0.2
	RankingOrderWeight = 0.6

	PeriodViewWeight  = 1
	PeriodLikeWeight  = 2
	PeriodOrderWeight = 6
)

// RankingDayTTL ограничивает время жизни дневного ключа рейтинга.
const RankingDayTTL = 48 * time.Hour

// ProductMetrics — денормализованные счётчики товара за календарный день.
type ProductMetrics struct {
	ProductID     int64
	Date          time.Time
	ViewCount     int64
	LikeCount     int64
	OrderCount    int64
	TotalQuantity int64
	// LastLikeEventAt — время последнего применённого like/unlike события;
	// обеспечивает last-writer-wins при перестановке событий.
	LastLikeEventAt time.Time
	UpdatedAt       time.Time
}

// PeriodScore возвращает агрегированный балл для недельных/месячных таблиц.
func (m ProductMetrics) PeriodScore() int64 {
	return m.ViewCount*PeriodViewWeight + m.LikeCount*PeriodLikeWeight + m.OrderCount*PeriodOrderWeight
}

// RankingEntry — позиция товара в рейтинге за день или период.
type RankingEntry struct {
	ProductID int64
	Score     float64
}

// RankingPeriod различает материализованные периоды рейтинга.
type RankingPeriod string

const (
	RankingPeriodWeekly  RankingPeriod = "weekly"
	RankingPeriodMonthly RankingPeriod = "monthly"
)

// StartOf возвращает начало периода, содержащего t: понедельник недели или
// первое число месяца, в UTC.
func (p RankingPeriod) StartOf(t time.Time) time.Time {
	day := MetricsDay(t)
	switch p {
	case RankingPeriodWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case RankingPeriodMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next возвращает начало следующего периода после periodStart.
func (p RankingPeriod) Next(periodStart time.Time) time.Time {
	switch p {
	case RankingPeriodWeekly:
		return periodStart.AddDate(0, 0, 7)
	case RankingPeriodMonthly:
		return periodStart.AddDate(0, 1, 0)
	default:
		return periodStart.AddDate(0, 0, 1)
	}
}

// PeriodRanking — строка материализованной таблицы рейтинга за период.
type PeriodRanking struct {
	Period      RankingPeriod
	PeriodStart time.Time
	ProductID   int64
	Score       int64
	Rank        int
}

// MetricsDay нормализует момент времени до календарного дня в UTC.
func MetricsDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
