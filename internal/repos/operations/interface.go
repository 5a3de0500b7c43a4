package operations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrOperationNotFound  = errors.New("operation not found")
)

// Operation is a claimed idempotency key. ResultID and ResultBalance are set
// in the same transaction as the mutation the key guards, so a committed key
// always carries them.
type Operation struct {
	Key           uuid.UUID
	Operation     string
	AccountID     uint64
	ResultID      *int64
	ResultBalance *int64
	CreatedAt     time.Time
}

// Operations records client-supplied idempotency keys. Claiming a key inside
// the mutation's transaction makes a retried request fail instead of applying
// twice; Get lets the caller answer the retry with the original outcome.
type Operations interface {
	Claim(tx *sql.Tx, key uuid.UUID, operation string, accountID uint64) error
	Complete(tx *sql.Tx, key uuid.UUID, resultID, resultBalance int64) error
	Get(ctx context.Context, key uuid.UUID) (Operation, error)
}
