package models

import "errors"

var (
	// ErrAccountNotFound indicates that a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount indicates a non-positive amount, or one carrying more
	// precision than balances are stored with.
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")
	// ErrSameAccount indicates a transfer whose source and destination are
	// the same account.
	ErrSameAccount = errors.New("source and destination accounts must differ")
	// ErrInsufficientFunds indicates the source balance cannot cover the
	// requested amount. A business rejection, not a system fault.
	ErrInsufficientFunds = errors.New("insufficient funds in source account")
	// ErrTransferFailed indicates the store could not commit the transfer
	// after bounded retries.
	ErrTransferFailed = errors.New("transfer could not be completed")
	// ErrTransferNotFound indicates that a referenced transfer record does
	// not exist.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrAccountHasTransfers refuses deletion of an account that transfer
	// records still reference.
	ErrAccountHasTransfers = errors.New("account has transfer history")
)
