package guard

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/apexledger/transfer-engine/internal/models"
)

func acct(id int64, balance string) *models.Account {
	return &models.Account{ID: id, Balance: decimal.RequireFromString(balance)}
}

func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name        string
		source      *models.Account
		destination *models.Account
		amount      string
		wantErr     error
	}{
		{"missing source", nil, acct(2, "10"), "5", models.ErrAccountNotFound},
		{"missing destination", acct(1, "10"), nil, "5", models.ErrAccountNotFound},
		{"zero amount", acct(1, "10"), acct(2, "10"), "0", models.ErrInvalidAmount},
		{"negative amount", acct(1, "10"), acct(2, "10"), "-5", models.ErrInvalidAmount},
		{"over-precision amount", acct(1, "10"), acct(2, "10"), "1.005", models.ErrInvalidAmount},
		{"same account", acct(1, "10"), acct(1, "10"), "5", models.ErrSameAccount},
		{"insufficient funds", acct(1, "20"), acct(2, "10"), "30", models.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.source, tt.destination, decimal.RequireFromString(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Evaluate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluateDecision(t *testing.T) {
	source := acct(1, "100")
	destination := acct(2, "10")
	amount := decimal.RequireFromString("30")

	decision, err := Evaluate(source, destination, amount)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !decision.SourceBalance.Equal(decimal.RequireFromString("70")) {
		t.Errorf("source balance = %s, want 70", decision.SourceBalance)
	}
	if !decision.DestinationBalance.Equal(decimal.RequireFromString("40")) {
		t.Errorf("destination balance = %s, want 40", decision.DestinationBalance)
	}

	// no mutation of the snapshots
	if !source.Balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("source snapshot mutated to %s", source.Balance)
	}

	// referentially transparent: same inputs, same decision
	again, err := Evaluate(source, destination, amount)
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if !again.SourceBalance.Equal(decision.SourceBalance) || !again.DestinationBalance.Equal(decision.DestinationBalance) {
		t.Error("repeated evaluation produced a different decision")
	}
}

func TestEvaluateExactBalance(t *testing.T) {
	// transferring the whole balance is allowed, leaving exactly zero
	decision, err := Evaluate(acct(1, "25.50"), acct(2, "0"), decimal.RequireFromString("25.50"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !decision.SourceBalance.IsZero() {
		t.Errorf("source balance = %s, want 0", decision.SourceBalance)
	}
}

func TestEvaluateMinorUnits(t *testing.T) {
	// two fractional digits are the finest the stored type carries
	if _, err := Evaluate(acct(1, "10"), acct(2, "0"), decimal.RequireFromString("0.01")); err != nil {
		t.Errorf("0.01 rejected: %v", err)
	}
	if _, err := Evaluate(acct(1, "10"), acct(2, "0"), decimal.RequireFromString("0.001")); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("0.001 accepted, want ErrInvalidAmount (got %v)", err)
	}
}
