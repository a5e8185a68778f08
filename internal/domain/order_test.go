package domain

import (
	"errors"
	"testing"
	"time"
)

func validOrder() Order {
	now := time.Now().UTC()
	return Order{
		ID:     "order-1",
		UserID: "user-1",
		Items: []OrderItem{
			{ProductID: 1, ProductName: "keyboard", Quantity: 2, UnitPrice: 10000, CreatedAt: now},
			{ProductID: 2, ProductName: "mouse", Quantity: 1, UnitPrice: 20000, CreatedAt: now},
		},
		TotalAmount: 40000,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOrder_PaymentAmount(t *testing.T) {
	order := validOrder()
	order.DiscountAmount = 15000

	if got := order.PaymentAmount(); got != 25000 {
		t.Fatalf("expected payment amount 25000, got %d", got)
	}
}

func TestOrder_StateMachine(t *testing.T) {
	order := validOrder()

	if err := order.Confirm(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("confirm from pending must fail, got %v", err)
	}
	if err := order.StartPayment(); err != nil {
		t.Fatalf("start payment: %v", err)
	}
	if err := order.StartPayment(); err != nil {
		t.Fatalf("start payment must be idempotent in paying: %v", err)
	}
	if err := order.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := order.Confirm(); err != nil {
		t.Fatalf("confirm on confirmed order must be a no-op: %v", err)
	}
	if err := order.Fail(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("fail on confirmed order must raise, got %v", err)
	}
}

func TestOrder_FailIdempotent(t *testing.T) {
	order := validOrder()
	order.Status = OrderStatusPaying

	if err := order.Fail(); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := order.Fail(); err != nil {
		t.Fatalf("fail on failed order must be a no-op: %v", err)
	}
	if order.Status != OrderStatusFailed {
		t.Fatalf("expected failed status, got %s", order.Status)
	}
}

func TestOrder_ValidateInvariants(t *testing.T) {
	order := validOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("valid order must produce no errors, got %v", errs)
	}

	order.TotalAmount = 1
	if errs := order.ValidateInvariants(); len(errs) == 0 {
		t.Fatal("amount mismatch must be reported")
	}

	order = validOrder()
	order.Items = nil
	order.TotalAmount = 0
	errs := order.ValidateInvariants()
	found := false
	for _, err := range errs {
		if errors.Is(err, ErrEmptyOrder) {
			found = true
		}
	}
	if !found {
		t.Fatalf("empty order must be reported, got %v", errs)
	}
}
