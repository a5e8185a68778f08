package domain

import (
	"errors"
	"testing"
)

func pendingPayment() Payment {
	return Payment{
		ID:      "payment-1",
		OrderID: "order-1",
		UserID:  "user-1",
		Amount:  40000,
		Type:    PaymentTypeCardOnly,
		Status:  PaymentStatusPending,
	}
}

func TestPayment_MarkSuccessIdempotent(t *testing.T) {
	payment := pendingPayment()

	if err := payment.MarkSuccess(); err != nil {
		t.Fatalf("mark success: %v", err)
	}
	if err := payment.MarkSuccess(); err != nil {
		t.Fatalf("mark success on success must be a no-op: %v", err)
	}
	if err := payment.MarkFailed("late failure"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("mark failed on success must raise, got %v", err)
	}
}

func TestPayment_MarkFailedIdempotent(t *testing.T) {
	payment := pendingPayment()

	if err := payment.MarkFailed("declined"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if payment.FailureReason != "declined" {
		t.Fatalf("expected failure reason, got %q", payment.FailureReason)
	}
	if err := payment.MarkFailed("declined again"); err != nil {
		t.Fatalf("mark failed on failed must be a no-op: %v", err)
	}
	if payment.FailureReason != "declined" {
		t.Fatalf("no-op must not overwrite the reason, got %q", payment.FailureReason)
	}
}

func TestPayment_GatewayTransactionSetOnce(t *testing.T) {
	payment := pendingPayment()

	if err := payment.SetGatewayTransactionID("tx-1"); err != nil {
		t.Fatalf("set tx id: %v", err)
	}
	if err := payment.SetGatewayTransactionID("tx-1"); err != nil {
		t.Fatalf("same tx id must be accepted: %v", err)
	}
	if err := payment.SetGatewayTransactionID("tx-2"); !errors.Is(err, ErrGatewayTransactionMismatch) {
		t.Fatalf("different tx id must be rejected, got %v", err)
	}
}

func TestPayment_Validate(t *testing.T) {
	payment := pendingPayment()
	if errs := payment.Validate(); len(errs) != 0 {
		t.Fatalf("valid payment must produce no errors, got %v", errs)
	}

	payment.Type = "bitcoin"
	payment.Amount = -1
	errs := payment.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
}
