package guard

import (
	"github.com/shopspring/decimal"

	"github.com/apexledger/transfer-engine/internal/models"
)

// maxFractionalDigits pins amounts to integer minor units (cents). Amounts
// carrying more precision are rejected, never truncated.
const maxFractionalDigits = 2

// Decision carries the post-transfer balances for an approved transfer.
type Decision struct {
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
}

// Evaluate validates a proposed transfer against the two account snapshots
// and computes the resulting balances. It performs no I/O and no mutation;
// calling it again with the same inputs yields the same result. The
// snapshots must have been read while the caller holds both account locks,
// otherwise the decision is made on stale state.
func Evaluate(source, destination *models.Account, amount decimal.Decimal) (Decision, error) {
	if source == nil || destination == nil {
		return Decision{}, models.ErrAccountNotFound
	}
	if amount.Sign() <= 0 {
		return Decision{}, models.ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(maxFractionalDigits)) {
		return Decision{}, models.ErrInvalidAmount
	}
	if source.ID == destination.ID {
		return Decision{}, models.ErrSameAccount
	}
	if source.Balance.LessThan(amount) {
		return Decision{}, models.ErrInsufficientFunds
	}
	return Decision{
		SourceBalance:      source.Balance.Sub(amount),
		DestinationBalance: destination.Balance.Add(amount),
	}, nil
}
