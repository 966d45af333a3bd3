package interfaces

import (
	"context"

	"github.com/apexledger/transfer-engine/internal/models"
)

// TransferLedger is the read and correction side of the append-only
// transfer record store. Appending happens inside AccountStore.ApplyTransfer
// so that the record commits atomically with the balance writes.
// DeleteTransfer corrects the audit trail only; it never restores balances.
type TransferLedger interface {
	GetTransfer(ctx context.Context, id int64) (*models.Transfer, error)
	GetTransfers(ctx context.Context) ([]models.Transfer, error)
	DeleteTransfer(ctx context.Context, id int64) error
}
