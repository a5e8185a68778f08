package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// stockLedger — PostgreSQL-реализация StockLedger. Горячий путь списания
// использует пессимистичную строчную блокировку (SELECT ... FOR UPDATE):
// предсказуемое поведение под конкуренцией важнее, чем повторные попытки
// optimistic-пути.
type stockLedger struct {
	db *sql.DB
}

// NewStockLedger создаёт PostgreSQL-реализацию StockLedger.
func NewStockLedger(store *Store) *stockLedger {
	return &stockLedger{db: store.DB()}
}

// Reserve захватывает блокировку строки товара, проверяет остаток и списывает
// qty одной транзакцией. Возвращает остаток после списания.
func (l *stockLedger) Reserve(productID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stock int64
	err = tx.QueryRowContext(ctx, `
		SELECT stock FROM product_stock WHERE product_id = $1 FOR UPDATE
	`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock stock row: %w", err)
	}

	if stock < qty {
		return stock, domain.ErrInsufficientStock
	}

	remaining := stock - qty
	if _, err := tx.ExecContext(ctx, `
		UPDATE product_stock
		SET stock = $2, version = version + 1, updated_at = $3
		WHERE product_id = $1
	`, productID, remaining, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reserve tx: %w", err)
	}
	return remaining, nil
}

// Release возвращает qty на остаток одной атомарной строкой.
func (l *stockLedger) Release(productID, qty int64) error {
	if qty <= 0 {
		return domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		UPDATE product_stock
		SET stock = stock + $2, version = version + 1, updated_at = $3
		WHERE product_id = $1
	`, productID, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for release: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// AdminSetStock обновляет остаток с optimistic-проверкой версии:
// административный путь для редких низкоконтентных правок.
func (l *stockLedger) AdminSetStock(productID, qty, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		UPDATE product_stock
		SET stock = $2, version = version + 1, updated_at = $3
		WHERE product_id = $1 AND version = $4
	`, productID, qty, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("admin set stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for admin set stock: %w", err)
	}
	if affected == 0 {
		return domain.ErrStockVersionConflict
	}
	return nil
}

var _ domain.StockLedger = (*stockLedger)(nil)
