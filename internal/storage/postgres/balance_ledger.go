package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// balanceLedger — PostgreSQL-реализация BalanceLedger. Deduct и Credit —
// однострочные атомарные UPDATE; отдельная блокировка не нужна.
type balanceLedger struct {
	db *sql.DB
}

// NewBalanceLedger создаёт PostgreSQL-реализацию BalanceLedger.
func NewBalanceLedger(store *Store) *balanceLedger {
	return &balanceLedger{db: store.DB()}
}

// Balance возвращает текущий баланс пользователя.
func (l *balanceLedger) Balance(userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var balance int64
	err := l.db.QueryRowContext(ctx, `
		SELECT balance FROM user_balances WHERE user_id = $1
	`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrBalanceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Deduct списывает amount, если средств достаточно; условие в WHERE исключает
// окно между проверкой и списанием.
func (l *balanceLedger) Deduct(userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		UPDATE user_balances
		SET balance = balance - $2, updated_at = $3
		WHERE user_id = $1 AND balance >= $2
	`, userID, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deduct balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for deduct: %w", err)
	}
	if affected == 0 {
		// Либо пользователя нет, либо не хватило средств: различаем отдельным чтением.
		var balance int64
		err := l.db.QueryRowContext(ctx, `
			SELECT balance FROM user_balances WHERE user_id = $1
		`, userID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrBalanceNotFound
		}
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		return domain.ErrInsufficientFunds
	}
	return nil
}

// Credit начисляет amount на баланс пользователя.
func (l *balanceLedger) Credit(userID string, amount int64) error {
	if amount < 0 {
		return domain.ErrAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		UPDATE user_balances
		SET balance = balance + $2, updated_at = $3
		WHERE user_id = $1
	`, userID, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for credit: %w", err)
	}
	if affected == 0 {
		return domain.ErrBalanceNotFound
	}
	return nil
}

var _ domain.BalanceLedger = (*balanceLedger)(nil)
