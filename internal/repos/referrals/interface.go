package referrals

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrAlreadyRewarded = errors.New("referral already rewarded")

type Status string

const (
	StatusPending  Status = "pending"
	StatusRewarded Status = "rewarded"
)

// Referral is the relationship between a referrer and the user they brought
// in. PurchaseAmount only grows; Status moves pending -> rewarded once.
type Referral struct {
	ID             int64
	ReferrerID     uint64
	ReferredID     uint64
	PurchaseAmount int64
	RewardEarned   int64
	Status         Status
	CreatedAt      time.Time
	RewardedAt     *time.Time
}

type Referrals interface {
	// LockOrCreate returns the (referrer, referred) row, creating a pending one
	// if needed, and holds its row lock until the transaction ends.
	LockOrCreate(tx *sql.Tx, referrerID, referredID uint64) (Referral, error)
	AddPurchase(tx *sql.Tx, id int64, amount int64) (int64, error)
	MarkRewarded(tx *sql.Tx, id int64, reward int64) error
	ListByReferrer(ctx context.Context, referrerID uint64) ([]Referral, error)
}
