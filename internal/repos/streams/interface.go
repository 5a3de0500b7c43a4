package streams

import (
	"database/sql"
	"errors"
)

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrNoOwner        = errors.New("stream has no owner")
)

// Streams resolves the account that receives donations made to a stream.
// Stream metadata itself is managed elsewhere.
type Streams interface {
	OwnerOf(tx *sql.Tx, streamID uint64) (uint64, error)
}
