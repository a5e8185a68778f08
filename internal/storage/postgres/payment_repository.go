package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type paymentRepository struct {
	db querier
}

// NewPaymentRepository создаёт PostgreSQL-реализацию PaymentRepository.
// Уникальный индекс на order_id обеспечивает «один платёж на заказ».
func NewPaymentRepository(store *Store) domain.PaymentRepository {
	return &paymentRepository{db: store.DB()}
}

func (r *paymentRepository) Create(payment domain.Payment) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, order_id, user_id, amount, payment_type, status,
			gateway_transaction_id, failure_reason, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NULLIF($8,''),$9,$10)
	`,
		payment.ID, payment.OrderID, payment.UserID, payment.Amount, payment.Type, payment.Status,
		payment.GatewayTransactionID, payment.FailureReason, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(id string) (domain.Payment, error) {
	return r.queryOne(`WHERE id = $1`, id)
}

func (r *paymentRepository) GetByOrder(orderID string) (domain.Payment, error) {
	return r.queryOne(`WHERE order_id = $1`, orderID)
}

func (r *paymentRepository) GetByGatewayTransaction(txID string) (domain.Payment, error) {
	if txID == "" {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return r.queryOne(`WHERE gateway_transaction_id = $1`, txID)
}

func (r *paymentRepository) Save(payment domain.Payment) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, gateway_transaction_id = NULLIF($3,''),
		    failure_reason = NULLIF($4,''), updated_at = $5
		WHERE id = $1
	`, payment.ID, payment.Status, payment.GatewayTransactionID, payment.FailureReason, payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for payment update: %w", err)
	}
	if affected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) queryOne(where string, arg any) (domain.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		payment domain.Payment
		txID    sql.NullString
		reason  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, amount, payment_type, status,
		       gateway_transaction_id, failure_reason, created_at, updated_at
		FROM payments `+where,
		arg,
	).Scan(
		&payment.ID, &payment.OrderID, &payment.UserID, &payment.Amount, &payment.Type, &payment.Status,
		&txID, &reason, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	if err != nil {
		return domain.Payment{}, fmt.Errorf("query payment: %w", err)
	}

	payment.GatewayTransactionID = txID.String
	payment.FailureReason = reason.String
	return payment, nil
}

var _ domain.PaymentRepository = (*paymentRepository)(nil)
