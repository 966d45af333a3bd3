package memory

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/apexledger/transfer-engine/internal/interfaces"
	"github.com/apexledger/transfer-engine/internal/models"
)

// Store is an in-memory implementation of interfaces.AccountStore and
// interfaces.TransferLedger. A single mutex makes ApplyTransfer atomic:
// both balance writes and the transfer append happen under one critical
// section, so no reader can observe a partial transfer.
type Store struct {
	mu            sync.Mutex
	node          *snowflake.Node
	accounts      map[int64]models.Account
	transfers     []models.Transfer
	nextAccountID int64
}

// NewStore creates an empty in-memory store.
func NewStore() (*Store, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Store{
		node:     node,
		accounts: make(map[int64]models.Account),
	}, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, models.ErrAccountNotFound
	}
	// copy out so callers cannot mutate stored state
	return &account, nil
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccountID++
	account.ID = s.nextAccountID
	s.accounts[account.ID] = account
	return &account, nil
}

// DeleteAccount refuses to delete an account that any transfer record still
// references, keeping the ledger's references intact.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[id]; !exists {
		return models.ErrAccountNotFound
	}
	for _, t := range s.transfers {
		if t.SourceAccountID == id || t.DestinationAccountID == id {
			return models.ErrAccountHasTransfers
		}
	}
	delete(s.accounts, id)
	return nil
}

// ApplyTransfer writes both new balances and appends the transfer record as
// one unit, assigning the record its id.
func (s *Store) ApplyTransfer(ctx context.Context, source, destination models.Account, transfer models.Transfer) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[source.ID]; !exists {
		return nil, models.ErrAccountNotFound
	}
	if _, exists := s.accounts[destination.ID]; !exists {
		return nil, models.ErrAccountNotFound
	}

	transfer.ID = s.node.Generate().Int64()
	s.accounts[source.ID] = source
	s.accounts[destination.ID] = destination
	s.transfers = append(s.transfers, transfer)
	return &transfer, nil
}

func (s *Store) GetTransfer(ctx context.Context, id int64) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transfers {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, models.ErrTransferNotFound
}

func (s *Store) GetTransfers(ctx context.Context) ([]models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]models.Transfer, len(s.transfers))
	copy(copied, s.transfers)
	return copied, nil
}

// DeleteTransfer removes a ledger record without touching balances. It is
// an audit-trail correction, never a rollback.
func (s *Store) DeleteTransfer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.transfers {
		if t.ID == id {
			s.transfers = append(s.transfers[:i], s.transfers[i+1:]...)
			return nil
		}
	}
	return models.ErrTransferNotFound
}

var _ interfaces.AccountStore = (*Store)(nil)
var _ interfaces.TransferLedger = (*Store)(nil)
