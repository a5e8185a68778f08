package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type periodRankingRepository struct {
	db *sql.DB
}

// NewPeriodRankingRepository создаёт PostgreSQL-реализацию PeriodRankingRepository.
func NewPeriodRankingRepository(store *Store) domain.PeriodRankingRepository {
	return &periodRankingRepository{db: store.DB()}
}

// Replace атомарно заменяет строки периода: delete + bulk insert в одной
// транзакции. Читатели либо видят прежний период, либо новый, но не смесь.
func (r *periodRankingRepository) Replace(period domain.RankingPeriod, periodStart time.Time, entries []domain.PeriodRanking) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	start := domain.MetricsDay(periodStart)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ranking replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM period_rankings WHERE period = $1 AND period_start = $2
	`, period, start); err != nil {
		return fmt.Errorf("delete prior period rankings: %w", err)
	}

	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO period_rankings (period, period_start, product_id, score, rank)
			VALUES ($1,$2,$3,$4,$5)
		`, period, start, entry.ProductID, entry.Score, entry.Rank); err != nil {
			return fmt.Errorf("insert period ranking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ranking replace tx: %w", err)
	}
	return nil
}

// List возвращает строки периода в порядке возрастания rank.
func (r *periodRankingRepository) List(period domain.RankingPeriod, periodStart time.Time, limit int) ([]domain.PeriodRanking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT period, period_start, product_id, score, rank
		FROM period_rankings
		WHERE period = $1 AND period_start = $2
		ORDER BY rank
		LIMIT $3
	`, period, domain.MetricsDay(periodStart), limit)
	if err != nil {
		return nil, fmt.Errorf("list period rankings: %w", err)
	}
	defer rows.Close()

	result := make([]domain.PeriodRanking, 0, limit)
	for rows.Next() {
		var entry domain.PeriodRanking
		if err := rows.Scan(&entry.Period, &entry.PeriodStart, &entry.ProductID, &entry.Score, &entry.Rank); err != nil {
			return nil, fmt.Errorf("scan period ranking: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period rankings: %w", err)
	}
	return result, nil
}

var _ domain.PeriodRankingRepository = (*periodRankingRepository)(nil)
