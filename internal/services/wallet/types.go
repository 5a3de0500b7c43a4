package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/repos/accounts"
	"github.com/strimboom/boombucks/internal/repos/ledger"
	"github.com/strimboom/boombucks/internal/repos/operations"
	"github.com/strimboom/boombucks/internal/repos/referrals"
	"github.com/strimboom/boombucks/internal/repos/streams"
)

// Amount is a whole number of ledger units (boombucks).
type Amount int64

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrSelfReferral        = errors.New("account cannot refer itself")
	ErrRecipientNotFound   = errors.New("donation recipient not found")

	// Re-exported so callers only need this package for errors.Is.
	ErrInsufficientFunds  = accounts.ErrInsufficientFunds
	ErrAccountNotFound    = accounts.ErrAccountNotFound
	ErrStreamNotFound     = streams.ErrStreamNotFound
	ErrDuplicateOperation = operations.ErrDuplicateOperation
)

type TransferRequest struct {
	FromAccountID uint64
	ToAccountID   uint64
	Amount        Amount
	Description   string
}

// TransferResult describes one applied transfer. To* fields are unset when
// the destination could not be resolved and only the debit was applied.
type TransferResult struct {
	FromAccountID uint64
	FromBalance   Amount
	SentEntry     ledger.Entry

	ToAccountID   *uint64
	ToBalance     Amount
	ReceivedEntry *ledger.Entry

	Amount Amount
}

type DonateRequest struct {
	StreamID       uint64
	DonorID        uint64
	Amount         Amount
	Message        string
	IdempotencyKey uuid.UUID
}

type DonationReceipt struct {
	DonationID   int64
	StreamID     uint64
	DonorID      uint64
	RecipientID  *uint64
	Amount       Amount
	Message      string
	CreatedAt    time.Time
	DonorBalance Amount
	// Replayed is set when the idempotency key had already been used and
	// this is the stored outcome of that first request.
	Replayed bool
}

type ReferralCredit struct {
	ReferrerID     uint64
	ReferredID     uint64
	PurchaseAmount Amount
}

// AccrualResult is the relationship state after one qualifying purchase.
// Rewarded is true only for the call that granted the reward.
type AccrualResult struct {
	ReferralID       int64
	Status           referrals.Status
	CumulativeAmount Amount
	RewardEarned     Amount
	Rewarded         bool
	RewardEntry      *ledger.Entry
}

type TopUpType string

const (
	TopUpBuy        TopUpType = "buy"
	TopUpWithdraw   TopUpType = "withdraw"
	TopUpAdPurchase TopUpType = "ad_purchase"
)

type TopUpRequest struct {
	AccountID      uint64
	Amount         Amount
	Currency       string
	Type           TopUpType
	Description    string
	IdempotencyKey uuid.UUID
}

type TopUpResult struct {
	Entry      ledger.Entry
	NewBalance Amount
	Replayed   bool
}

type Account struct {
	ID      uint64
	Balance Amount
	Created bool
}
