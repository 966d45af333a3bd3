package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/apexledger/transfer-engine/internal/models"
)

func TestMapForeignKey(t *testing.T) {
	fkErr := &pq.Error{Code: pq.ErrorCode(codeForeignKeyViolation)}
	if got := mapForeignKey(fkErr); !errors.Is(got, models.ErrAccountHasTransfers) {
		t.Errorf("mapForeignKey(23503) = %v, want ErrAccountHasTransfers", got)
	}
	// wrapped errors still map
	if got := mapForeignKey(fmt.Errorf("delete account: %w", fkErr)); !errors.Is(got, models.ErrAccountHasTransfers) {
		t.Errorf("mapForeignKey(wrapped 23503) = %v, want ErrAccountHasTransfers", got)
	}

	other := errors.New("connection reset")
	if got := mapForeignKey(other); got != other {
		t.Errorf("mapForeignKey(%v) = %v, want it unchanged", other, got)
	}
	unique := &pq.Error{Code: "23505"}
	if got := mapForeignKey(unique); errors.Is(got, models.ErrAccountHasTransfers) {
		t.Error("mapForeignKey(23505) mapped a non-FK violation")
	}
}

func TestMapConflict(t *testing.T) {
	for _, code := range []string{codeSerializationFailure, codeDeadlockDetected} {
		err := &pq.Error{Code: pq.ErrorCode(code)}
		if got := mapConflict(err); !errors.Is(got, ErrStaleBalance) {
			t.Errorf("mapConflict(%s) = %v, want ErrStaleBalance", code, got)
		}
	}
	other := errors.New("connection reset")
	if got := mapConflict(other); got != other {
		t.Errorf("mapConflict(%v) = %v, want it unchanged", other, got)
	}
}
