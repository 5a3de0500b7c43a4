package donations

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrDonationNotFound = errors.New("donation not found")

// Donation is written once per successful donation and never changed.
// DonorID is nil when the donor account no longer exists; RecipientID is nil
// when the stream had no owner to credit.
type Donation struct {
	ID          int64
	StreamID    uint64
	DonorID     *uint64
	RecipientID *uint64
	Amount      int64
	Message     string
	CreatedAt   time.Time
}

type NewDonation struct {
	StreamID    uint64
	DonorID     uint64
	RecipientID *uint64
	Amount      int64
	Message     string
}

type Donations interface {
	Insert(tx *sql.Tx, d NewDonation) (Donation, error)
	Get(ctx context.Context, id int64) (Donation, error)
	ListByStream(ctx context.Context, streamID uint64, limit int) ([]Donation, error)
}
