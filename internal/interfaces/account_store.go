package interfaces

import (
	"context"

	"github.com/apexledger/transfer-engine/internal/models"
)

// AccountStore is the engine's capability over the account records. It is
// passed into the coordinator rather than reached through package state, so
// tests can substitute their own implementation.
//
// ApplyTransfer is the one multi-row operation: it must write both new
// balances and append the transfer record as a single all-or-nothing unit,
// assigning the transfer its id. Source and destination carry the
// post-transfer balances already computed under the account locks.
type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	CreateAccount(ctx context.Context, account models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	ApplyTransfer(ctx context.Context, source, destination models.Account, transfer models.Transfer) (*models.Transfer, error)
}
