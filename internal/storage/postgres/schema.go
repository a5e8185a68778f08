package postgres

import (
	"context"
	"fmt"
	"time"
)

// schemaLockKey сериализует применение схемы между параллельными инстансами.
const schemaLockKey = int64(20260314)

// schemaDDL перечисляет DDL в порядке применения. Все выражения идемпотентны,
// повторный запуск сервиса схему не ломает.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		total_amount BIGINT NOT NULL,
		discount_amount BIGINT NOT NULL DEFAULT 0,
		coupon_id TEXT,
		status TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID NOT NULL REFERENCES orders (id),
		product_id BIGINT NOT NULL,
		product_name TEXT NOT NULL,
		quantity BIGINT NOT NULL,
		unit_price BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL UNIQUE REFERENCES orders (id),
		user_id TEXT NOT NULL,
		amount BIGINT NOT NULL,
		payment_type TEXT NOT NULL,
		status TEXT NOT NULL,
		gateway_transaction_id TEXT,
		failure_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_gateway_tx
		ON payments (gateway_transaction_id) WHERE gateway_transaction_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS product_stock (
		product_id BIGINT PRIMARY KEY,
		stock BIGINT NOT NULL CHECK (stock >= 0),
		version BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_balances (
		user_id TEXT PRIMARY KEY,
		balance BIGINT NOT NULL CHECK (balance >= 0),
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_messages (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		topic TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempt_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending
		ON outbox_messages (created_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS consumed_events (
		event_id TEXT PRIMARY KEY,
		handled_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_metrics (
		product_id BIGINT NOT NULL,
		metric_date DATE NOT NULL,
		view_count BIGINT NOT NULL DEFAULT 0,
		like_count BIGINT NOT NULL DEFAULT 0,
		order_count BIGINT NOT NULL DEFAULT 0,
		total_quantity BIGINT NOT NULL DEFAULT 0,
		last_like_event_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (product_id, metric_date)
	)`,
	`CREATE TABLE IF NOT EXISTS period_rankings (
		period TEXT NOT NULL,
		period_start DATE NOT NULL,
		product_id BIGINT NOT NULL,
		score BIGINT NOT NULL,
		rank INT NOT NULL,
		PRIMARY KEY (period, period_start, product_id)
	)`,
}

// EnsureSchema применяет схему под advisory-lock, чтобы параллельные инстансы
// не наступали друг на друга.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", schemaLockKey)
	}()

	for _, ddl := range schemaDDL {
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	return nil
}
