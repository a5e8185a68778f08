package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestBalanceLedger_DeductCredit(t *testing.T) {
	ledger := NewBalanceLedger()
	ledger.SetBalance("user-1", 100000)

	if err := ledger.Deduct("user-1", 40000); err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	balance, err := ledger.Balance("user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 60000 {
		t.Fatalf("expected balance 60000, got %d", balance)
	}

	if err := ledger.Credit("user-1", 10000); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	balance, _ = ledger.Balance("user-1")
	if balance != 70000 {
		t.Fatalf("expected balance 70000, got %d", balance)
	}
}

func TestBalanceLedger_InsufficientFunds(t *testing.T) {
	ledger := NewBalanceLedger()
	ledger.SetBalance("user-1", 5000)

	if err := ledger.Deduct("user-1", 10000); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	balance, _ := ledger.Balance("user-1")
	if balance != 5000 {
		t.Fatalf("failed deduct must not change balance, got %d", balance)
	}
}

func TestBalanceLedger_UnknownUser(t *testing.T) {
	ledger := NewBalanceLedger()

	if err := ledger.Deduct("ghost", 1); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("expected ErrBalanceNotFound, got %v", err)
	}
}
