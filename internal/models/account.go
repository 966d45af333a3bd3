package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the balance for a single bank account plus the descriptive
// fields carried over from account opening. Balance is a fixed-point
// decimal, never a float; it must be >= 0 at every commit point.
type Account struct {
	ID          int64           `json:"id"`
	Owner       string          `json:"owner"`
	Institution string          `json:"institution"`
	Number      string          `json:"number"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
}
