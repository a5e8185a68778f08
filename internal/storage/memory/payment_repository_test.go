package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func testPayment(id, orderID string) domain.Payment {
	now := time.Now().UTC()
	return domain.Payment{
		ID:        id,
		OrderID:   orderID,
		UserID:    "user-1",
		Amount:    15000,
		Type:      domain.PaymentTypePointOnly,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentRepository_CreateGet(t *testing.T) {
	repo := NewPaymentRepository()

	if err := repo.Create(testPayment("pay-1", "order-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	payment, err := repo.Get("pay-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if payment.OrderID != "order-1" || payment.Amount != 15000 {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestPaymentRepository_OnePaymentPerOrder(t *testing.T) {
	repo := NewPaymentRepository()

	if err := repo.Create(testPayment("pay-1", "order-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(testPayment("pay-2", "order-1")); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("second payment for the same order must be rejected, got %v", err)
	}
	if err := repo.Create(testPayment("pay-1", "order-2")); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("duplicate payment id must be rejected, got %v", err)
	}
}

func TestPaymentRepository_GetByOrder(t *testing.T) {
	repo := NewPaymentRepository()

	if err := repo.Create(testPayment("pay-1", "order-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	payment, err := repo.GetByOrder("order-1")
	if err != nil {
		t.Fatalf("get by order: %v", err)
	}
	if payment.ID != "pay-1" {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	if _, err := repo.GetByOrder("order-2"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestPaymentRepository_GetByGatewayTransaction(t *testing.T) {
	repo := NewPaymentRepository()

	payment := testPayment("pay-1", "order-1")
	payment.GatewayTransactionID = "tx-42"
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.GetByGatewayTransaction("tx-42")
	if err != nil {
		t.Fatalf("get by transaction: %v", err)
	}
	if found.ID != "pay-1" {
		t.Fatalf("unexpected payment: %+v", found)
	}

	if _, err := repo.GetByGatewayTransaction(""); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("empty transaction id must not match, got %v", err)
	}
	if _, err := repo.GetByGatewayTransaction("tx-unknown"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestPaymentRepository_Save(t *testing.T) {
	repo := NewPaymentRepository()

	if err := repo.Create(testPayment("pay-1", "order-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	payment, _ := repo.Get("pay-1")
	payment.Status = domain.PaymentStatusSuccess
	if err := repo.Save(payment); err != nil {
		t.Fatalf("save: %v", err)
	}

	updated, _ := repo.Get("pay-1")
	if updated.Status != domain.PaymentStatusSuccess {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	if err := repo.Save(testPayment("missing", "order-9")); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}
