package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apexledger/transfer-engine/internal/guard"
	"github.com/apexledger/transfer-engine/internal/interfaces"
	"github.com/apexledger/transfer-engine/internal/models"
)

const (
	// DefaultMaxAttempts bounds the retries of the atomic-apply step when
	// the store reports a transient failure.
	DefaultMaxAttempts = 3

	retryBackoff = 25 * time.Millisecond
)

// accountLock is a context-aware mutex built on a buffered channel, so that
// acquisition can be abandoned when the caller's deadline expires without
// the account ever having been touched.
type accountLock chan struct{}

func (l accountLock) acquire(ctx context.Context) error {
	// An already-cancelled context must never win the lock: a two-way
	// select picks randomly when both cases are ready.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l accountLock) release() { <-l }

// Coordinator serializes transfers per account and turns an approved
// decision into one atomic store mutation. It holds a lock per account,
// created lazily; the map itself is protected by a second mutex.
type Coordinator struct {
	store       interfaces.AccountStore
	maxAttempts int
	muMap       map[int64]accountLock
	mapMu       sync.Mutex
}

// NewCoordinator creates a Coordinator over the given store. maxAttempts
// bounds the atomic-apply retries; zero or negative selects
// DefaultMaxAttempts.
func NewCoordinator(store interfaces.AccountStore, maxAttempts int) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Coordinator{
		store:       store,
		maxAttempts: maxAttempts,
		muMap:       make(map[int64]accountLock),
	}
}

func (c *Coordinator) getAccountLock(accountID int64) accountLock {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()

	if _, exists := c.muMap[accountID]; !exists {
		c.muMap[accountID] = make(accountLock, 1)
	}
	return c.muMap[accountID]
}

// TransferResult carries the post-transfer snapshots of both accounts and
// the newly appended transfer record.
type TransferResult struct {
	SourceAccount      models.Account  `json:"source_account"`
	DestinationAccount models.Account  `json:"destination_account"`
	Transfer           models.Transfer `json:"transfer"`
}

// Execute moves amount from the source account to the destination account.
//
// Each attempt acquires both account locks in ascending id order, re-reads
// both balances under the locks, validates with the guard, and asks the
// store to apply the two balance writes plus the ledger append as one unit.
// Validation failures are terminal. Store failures release the locks and
// retry with backoff up to the configured bound, then surface as
// ErrTransferFailed wrapping the last cause. ctx bounds the whole call,
// lock wait included.
func (c *Coordinator) Execute(ctx context.Context, sourceID, destinationID int64, amount decimal.Decimal) (*TransferResult, error) {
	// Rejected before any lock: acquiring the same lock twice would
	// self-deadlock.
	if sourceID == destinationID {
		return nil, models.ErrSameAccount
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt-1) * retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.attempt(ctx, sourceID, destinationID, amount)
		if err == nil {
			return result, nil
		}
		if terminal(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", models.ErrTransferFailed, c.maxAttempts, lastErr)
}

// attempt runs one full lock-read-validate-apply cycle. Both locks are
// released on every exit path by the deferred releases.
func (c *Coordinator) attempt(ctx context.Context, sourceID, destinationID int64, amount decimal.Decimal) (*TransferResult, error) {
	first := c.getAccountLock(sourceID)
	second := c.getAccountLock(destinationID)
	if destinationID < sourceID {
		first, second = second, first
	}

	if err := first.acquire(ctx); err != nil {
		return nil, err
	}
	defer first.release()
	if err := second.acquire(ctx); err != nil {
		return nil, err
	}
	defer second.release()

	// Fresh read now that both locks are held. Any balance observed before
	// this point must not be trusted for the mutation decision.
	source, err := c.store.GetAccount(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	destination, err := c.store.GetAccount(ctx, destinationID)
	if err != nil {
		return nil, err
	}

	decision, err := guard.Evaluate(source, destination, amount)
	if err != nil {
		return nil, err
	}

	src := *source
	src.Balance = decision.SourceBalance
	dst := *destination
	dst.Balance = decision.DestinationBalance

	transfer, err := c.store.ApplyTransfer(ctx, src, dst, models.Transfer{
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		Amount:               amount,
		CreatedAt:            time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		SourceAccount:      src,
		DestinationAccount: dst,
		Transfer:           *transfer,
	}, nil
}

// terminal reports whether err is a well-formed rejection (or cancellation)
// that must surface immediately instead of being retried.
func terminal(err error) bool {
	return errors.Is(err, models.ErrAccountNotFound) ||
		errors.Is(err, models.ErrInvalidAmount) ||
		errors.Is(err, models.ErrSameAccount) ||
		errors.Is(err, models.ErrInsufficientFunds) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
