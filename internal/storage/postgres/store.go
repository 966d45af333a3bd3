package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/apexledger/transfer-engine/internal/interfaces"
	"github.com/apexledger/transfer-engine/internal/models"
)

// ErrStaleBalance indicates that an account balance changed between the
// coordinator's read and the conditional update, e.g. because another
// process mutated the row. The coordinator retries from a fresh read.
var ErrStaleBalance = errors.New("account balance changed concurrently")

// pq error codes treated as transient commit conflicts.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeForeignKeyViolation  = "23503"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          BIGSERIAL PRIMARY KEY,
	owner       TEXT NOT NULL,
	institution TEXT NOT NULL,
	number      TEXT NOT NULL UNIQUE,
	balance     NUMERIC(20,2) NOT NULL CHECK (balance >= 0),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transfers (
	id                     BIGINT PRIMARY KEY,
	source_account_id      BIGINT NOT NULL REFERENCES accounts(id),
	destination_account_id BIGINT NOT NULL REFERENCES accounts(id),
	amount                 NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	created_at             TIMESTAMPTZ NOT NULL
);
`

// Store is the postgres implementation of interfaces.AccountStore and
// interfaces.TransferLedger.
type Store struct {
	db   *sql.DB
	node *snowflake.Node
}

func NewStore(db *sql.DB) (*Store, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, node: node}, nil
}

// EnsureSchema creates the account and transfer tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	const query = `SELECT id, owner, institution, number, balance, created_at
	FROM accounts WHERE id = $1`

	var a models.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Owner, &a.Institution, &a.Number, &a.Balance, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	const query = `INSERT INTO accounts (owner, institution, number, balance, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		account.Owner, account.Institution, account.Number, account.Balance, account.CreatedAt,
	).Scan(&account.ID)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount refuses to delete an account that any transfer record still
// references. Check and delete run in one transaction; a transfer committing
// in between still trips the foreign key, which maps to the same refusal.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const referenced = `SELECT 1 FROM transfers
	WHERE source_account_id = $1 OR destination_account_id = $1 LIMIT 1`
	var exists int
	err = dbTx.QueryRowContext(ctx, referenced, id).Scan(&exists)
	if err == nil {
		err = models.ErrAccountHasTransfers
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var res sql.Result
	res, err = dbTx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		err = mapForeignKey(err)
		return err
	}
	var n int64
	n, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = models.ErrAccountNotFound
		return err
	}

	err = dbTx.Commit()
	if err != nil {
		err = mapForeignKey(err)
		return err
	}
	return nil
}

// ApplyTransfer commits both balance writes and the transfer append in one
// database transaction. Rows are locked FOR UPDATE in ascending id order,
// and each balance write is conditional on the balance the coordinator read;
// a mismatch aborts with ErrStaleBalance so the coordinator re-reads.
func (s *Store) ApplyTransfer(ctx context.Context, source, destination models.Account, transfer models.Transfer) (*models.Transfer, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	first, second := source.ID, destination.ID
	if second < first {
		first, second = second, first
	}
	for _, id := range []int64{first, second} {
		var locked int64
		err = dbTx.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrAccountNotFound
			return nil, err
		}
		if err != nil {
			err = mapConflict(err)
			return nil, err
		}
	}

	// source old balance = new balance + amount; destination the inverse
	const update = `UPDATE accounts SET balance = $1 WHERE id = $2 AND balance = $3`
	writes := []struct {
		account  models.Account
		expected decimal.Decimal
	}{
		{source, source.Balance.Add(transfer.Amount)},
		{destination, destination.Balance.Sub(transfer.Amount)},
	}
	for _, w := range writes {
		var res sql.Result
		res, err = dbTx.ExecContext(ctx, update, w.account.Balance, w.account.ID, w.expected)
		if err != nil {
			err = mapConflict(err)
			return nil, err
		}
		var n int64
		n, err = res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			err = ErrStaleBalance
			return nil, err
		}
	}

	transfer.ID = s.node.Generate().Int64()
	const insert = `INSERT INTO transfers (id, source_account_id, destination_account_id, amount, created_at)
	VALUES ($1, $2, $3, $4, $5)`
	_, err = dbTx.ExecContext(ctx, insert,
		transfer.ID, transfer.SourceAccountID, transfer.DestinationAccountID, transfer.Amount, transfer.CreatedAt,
	)
	if err != nil {
		err = mapConflict(err)
		return nil, err
	}

	if err = dbTx.Commit(); err != nil {
		err = mapConflict(err)
		return nil, err
	}
	return &transfer, nil
}

func (s *Store) GetTransfer(ctx context.Context, id int64) (*models.Transfer, error) {
	const query = `SELECT id, source_account_id, destination_account_id, amount, created_at
	FROM transfers WHERE id = $1`

	var t models.Transfer
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.SourceAccountID, &t.DestinationAccountID, &t.Amount, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTransfers(ctx context.Context) ([]models.Transfer, error) {
	const query = `SELECT id, source_account_id, destination_account_id, amount, created_at
	FROM transfers ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.SourceAccountID, &t.DestinationAccountID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

// DeleteTransfer removes a ledger record without touching balances.
func (s *Store) DeleteTransfer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrTransferNotFound
	}
	return nil
}

// mapForeignKey turns a transfers→accounts foreign key violation into the
// referential-integrity refusal callers already handle.
func mapForeignKey(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation {
		return models.ErrAccountHasTransfers
	}
	return err
}

// mapConflict tags serialization failures and deadlocks as stale-balance
// conflicts so the coordinator's retry loop picks them up.
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %v", ErrStaleBalance, err)
		}
	}
	return err
}

var _ interfaces.AccountStore = (*Store)(nil)
var _ interfaces.TransferLedger = (*Store)(nil)
