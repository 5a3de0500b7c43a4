package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrEntryNotFound = errors.New("ledger entry not found")

type Kind string

const (
	KindPurchase         Kind = "purchase"
	KindWithdraw         Kind = "withdraw"
	KindAdPurchase       Kind = "ad_purchase"
	KindDonationSent     Kind = "donation_sent"
	KindDonationReceived Kind = "donation_received"
	KindReferralReward   Kind = "referral_reward"
)

type Status string

const StatusCompleted Status = "completed"

// Entry is one immutable ledger row. Amount is signed: credits are positive,
// debits negative.
type Entry struct {
	ID          int64
	AccountID   uint64
	Kind        Kind
	Amount      int64
	Currency    string
	Description string
	Status      Status
	CreatedAt   time.Time
}

// NewEntry is what callers append; id, status and timestamp are assigned by
// the store.
type NewEntry struct {
	AccountID   uint64
	Kind        Kind
	Amount      int64
	Currency    string
	Description string
}

// Ledger is the append-only Transaction Ledger.
type Ledger interface {
	Append(tx *sql.Tx, e NewEntry) (Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	ListByAccount(ctx context.Context, accountID uint64, limit int) ([]Entry, error)
}
