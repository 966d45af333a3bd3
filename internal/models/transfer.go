package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is one immutable ledger record: money moved from the source
// account to the destination account. A Transfer exists if and only if
// both balance mutations it describes were durably applied.
type Transfer struct {
	ID                   int64           `json:"id"`
	SourceAccountID      int64           `json:"source_account_id"`
	DestinationAccountID int64           `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	CreatedAt            time.Time       `json:"created_at"`
}
