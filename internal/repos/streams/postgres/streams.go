package streams

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/strimboom/boombucks/internal/repos/streams"
)

var _ streams.Streams = (*streamsRepo)(nil)

type streamsRepo struct{ db *sql.DB }

func New(db *sql.DB) *streamsRepo {
	return &streamsRepo{db: db}
}

// OwnerOf returns ErrStreamNotFound for an unknown stream and ErrNoOwner for
// a stream whose creator is gone.
func (r *streamsRepo) OwnerOf(tx *sql.Tx, streamID uint64) (uint64, error) {
	var owner sql.NullInt64

	err := tx.QueryRow(`
		SELECT user_id
		FROM streams
		WHERE id = $1
	`, streamID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, streams.ErrStreamNotFound
		}

		return 0, fmt.Errorf("resolve stream owner: %w", err)
	}

	if !owner.Valid {
		return 0, streams.ErrNoOwner
	}

	return uint64(owner.Int64), nil
}
