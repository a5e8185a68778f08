package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// uniqueViolation — код ошибки PostgreSQL для нарушения уникальности.
const uniqueViolation = "23505"

type consumedEventRepository struct {
	db *sql.DB
}

// NewConsumedEventRepository создаёт PostgreSQL-реализацию ConsumedEventRepository.
// Идемпотентность строится на первичном ключе event_id, без блокировок.
func NewConsumedEventRepository(store *Store) domain.ConsumedEventRepository {
	return &consumedEventRepository{db: store.DB()}
}

func (r *consumedEventRepository) MarkConsumed(eventID string, handledAt time.Time) error {
	if eventID == "" {
		return domain.ErrEventAlreadyConsumed
	}
	if handledAt.IsZero() {
		handledAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consumed_events (event_id, handled_at) VALUES ($1, $2)
	`, eventID, handledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEventAlreadyConsumed
		}
		return fmt.Errorf("insert consumed event marker: %w", err)
	}
	return nil
}

func (r *consumedEventRepository) IsConsumed(eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM consumed_events WHERE event_id = $1)
	`, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check consumed event: %w", err)
	}
	return exists, nil
}

func (r *consumedEventRepository) DeleteOlderThan(before time.Time, limit int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 500
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM consumed_events
		WHERE event_id IN (
			SELECT event_id FROM consumed_events
			WHERE handled_at < $1
			LIMIT $2
		)
	`, before, limit)
	if err != nil {
		return 0, fmt.Errorf("delete consumed events: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for consumed events cleanup: %w", err)
	}
	return int(affected), nil
}

var _ domain.ConsumedEventRepository = (*consumedEventRepository)(nil)
