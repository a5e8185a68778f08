package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type metricsRepository struct {
	db *sql.DB
}

// NewMetricsRepository создаёт PostgreSQL-реализацию MetricsRepository.
// Все инкременты — UPSERT одной строкой, last-writer-wins для лайков
// выражен условием в UPDATE.
func NewMetricsRepository(store *Store) domain.MetricsRepository {
	return &metricsRepository{db: store.DB()}
}

func (r *metricsRepository) Get(productID int64, date time.Time) (domain.ProductMetrics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	day := domain.MetricsDay(date)
	var row domain.ProductMetrics
	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, metric_date, view_count, like_count, order_count,
		       total_quantity, last_like_event_at, updated_at
		FROM product_metrics
		WHERE product_id = $1 AND metric_date = $2
	`, productID, day).Scan(
		&row.ProductID, &row.Date, &row.ViewCount, &row.LikeCount, &row.OrderCount,
		&row.TotalQuantity, &row.LastLikeEventAt, &row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProductMetrics{ProductID: productID, Date: day}, nil
	}
	if err != nil {
		return domain.ProductMetrics{}, fmt.Errorf("query product metrics: %w", err)
	}
	return row, nil
}

func (r *metricsRepository) IncrementViews(productID int64, date time.Time, n int64) error {
	if n < 0 {
		return domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_metrics (product_id, metric_date, view_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, metric_date)
		DO UPDATE SET view_count = product_metrics.view_count + $3, updated_at = $4
	`, productID, domain.MetricsDay(date), n, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// ApplyLike применяет like/unlike, только если occurredAt новее уже
// применённого события; устаревшее событие не трогает строку.
func (r *metricsRepository) ApplyLike(productID int64, date time.Time, liked bool, occurredAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	delta := int64(1)
	if !liked {
		delta = -1
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO product_metrics (product_id, metric_date, like_count, last_like_event_at, updated_at)
		VALUES ($1, $2, GREATEST($3, 0), $4, $5)
		ON CONFLICT (product_id, metric_date)
		DO UPDATE SET
			like_count = GREATEST(product_metrics.like_count + $3, 0),
			last_like_event_at = $4,
			updated_at = $5
		WHERE product_metrics.last_like_event_at < $4
	`, productID, domain.MetricsDay(date), delta, occurredAt, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("apply like: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for like: %w", err)
	}
	return affected > 0, nil
}

func (r *metricsRepository) IncrementOrders(productID int64, date time.Time, qty int64) error {
	if qty <= 0 {
		return domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_metrics (product_id, metric_date, order_count, total_quantity, updated_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (product_id, metric_date)
		DO UPDATE SET
			order_count = product_metrics.order_count + 1,
			total_quantity = product_metrics.total_quantity + $3,
			updated_at = $4
	`, productID, domain.MetricsDay(date), qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment orders: %w", err)
	}
	return nil
}

func (r *metricsRepository) ListRange(from, to time.Time) ([]domain.ProductMetrics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, metric_date, view_count, like_count, order_count,
		       total_quantity, last_like_event_at, updated_at
		FROM product_metrics
		WHERE metric_date >= $1 AND metric_date < $2
		ORDER BY product_id, metric_date
	`, domain.MetricsDay(from), domain.MetricsDay(to))
	if err != nil {
		return nil, fmt.Errorf("list product metrics: %w", err)
	}
	defer rows.Close()

	var result []domain.ProductMetrics
	for rows.Next() {
		var row domain.ProductMetrics
		if err := rows.Scan(
			&row.ProductID, &row.Date, &row.ViewCount, &row.LikeCount, &row.OrderCount,
			&row.TotalQuantity, &row.LastLikeEventAt, &row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product metrics: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product metrics: %w", err)
	}
	return result, nil
}

var _ domain.MetricsRepository = (*metricsRepository)(nil)
