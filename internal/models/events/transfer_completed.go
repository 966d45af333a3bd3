package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferCompleted struct {
	TransferID           int64           `json:"transfer_id"`
	SourceAccountID      int64           `json:"source_account_id"`
	DestinationAccountID int64           `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	OccurredAt           time.Time       `json:"occurred_at"`
}
