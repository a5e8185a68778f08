package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// querier покрывает общие методы *sql.DB и *sql.Tx, чтобы репозитории
// работали и автономно, и внутри разделяемой транзакции.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type unitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork создаёт UnitOfWork поверх общего пула соединений.
// Within даёт вызывающему репозитории заказов, платежей и outbox,
// привязанные к одной транзакции: либо фиксируются все записи, либо ни одна.
func NewUnitOfWork(store *Store) domain.UnitOfWork {
	return &unitOfWork{db: store.DB()}
}

func (u *unitOfWork) Within(fn func(scope domain.TxScope) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unit of work tx: %w", err)
	}

	scope := domain.TxScope{
		Orders:   &orderRepository{db: tx},
		Payments: &paymentRepository{db: tx},
		Outbox:   &outboxRepository{db: tx},
	}

	if err := fn(scope); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work tx: %w", err)
	}
	return nil
}

var _ domain.UnitOfWork = (*unitOfWork)(nil)
