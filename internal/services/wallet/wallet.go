// Package wallet is the boombucks ledger core: balance reads, transfers,
// donations, referral accrual and top-ups. Every mutation runs as one
// Postgres transaction in which the touched account rows are locked, the
// balances changed and the matching ledger entries appended.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/strimboom/boombucks/internal/infra/metrics"
	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/accounts"
	pgaccounts "github.com/strimboom/boombucks/internal/repos/accounts/postgres"
	"github.com/strimboom/boombucks/internal/repos/donations"
	pgdonations "github.com/strimboom/boombucks/internal/repos/donations/postgres"
	"github.com/strimboom/boombucks/internal/repos/ledger"
	pgledger "github.com/strimboom/boombucks/internal/repos/ledger/postgres"
	"github.com/strimboom/boombucks/internal/repos/operations"
	pgoperations "github.com/strimboom/boombucks/internal/repos/operations/postgres"
	"github.com/strimboom/boombucks/internal/repos/referrals"
	pgreferrals "github.com/strimboom/boombucks/internal/repos/referrals/postgres"
	"github.com/strimboom/boombucks/internal/repos/streams"
	pgstreams "github.com/strimboom/boombucks/internal/repos/streams/postgres"
)

const (
	maxHistory   = 100
	maxDonations = 50
)

// Operation names, used for idempotency keys and metrics.
const (
	opTransfer       = "transfer"
	opDonate         = "donate"
	opCreditReferral = "credit_referral"
	opTopUp          = "topup"
)

// Repos is the data-access surface the service depends on.
type Repos struct {
	Accounts   accounts.Accounts
	Ledger     ledger.Ledger
	Donations  donations.Donations
	Referrals  referrals.Referrals
	Streams    streams.Streams
	Operations operations.Operations
}

type Service struct {
	db     *sql.DB
	repos  Repos
	policy Policy
	log    *slog.Logger
	stats  *metrics.Recorder
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.stats = m }
}

// New wires the Postgres repositories.
func New(db *sql.DB, policy Policy, opts ...Option) (*Service, error) {
	return NewWithRepos(db, Repos{
		Accounts:   pgaccounts.New(db),
		Ledger:     pgledger.New(db),
		Donations:  pgdonations.New(db),
		Referrals:  pgreferrals.New(db),
		Streams:    pgstreams.New(db),
		Operations: pgoperations.New(db),
	}, policy, opts...)
}

// NewWithRepos builds a service over arbitrary repository implementations.
// db only supplies the transactions they run in.
func NewWithRepos(db *sql.DB, repos Repos, policy Policy, opts ...Option) (*Service, error) {
	err := policy.Validate()
	if err != nil {
		return nil, fmt.Errorf("ledger policy: %w", err)
	}

	s := &Service{
		db:     db,
		repos:  repos,
		policy: policy,
		log:    slog.Default(),
		stats:  metrics.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Service) Policy() Policy { return s.policy }

// GetBalance returns the committed balance (no locks).
func (s *Service) GetBalance(ctx context.Context, accountID uint64) (Amount, error) {
	balance, err := s.repos.Accounts.GetBalance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return Amount(balance), nil
}

// OpenAccount creates a zero-balance account if it does not exist yet.
func (s *Service) OpenAccount(ctx context.Context, accountID uint64) (Account, error) {
	if accountID == 0 {
		return Account{}, fmt.Errorf("account id: %w", ErrInvalidArgument)
	}

	var acc Account

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err := s.repos.Accounts.Create(tx, accountID)
		if err != nil {
			return err
		}

		balance, err := s.repos.Accounts.LockAndGetBalance(tx, accountID)
		if err != nil {
			return err
		}

		acc = Account{ID: accountID, Balance: Amount(balance), Created: created}

		return nil
	})
	if err != nil {
		return Account{}, fmt.Errorf("open account: %w", err)
	}

	if acc.Created {
		s.log.InfoContext(ctx, "account opened", "account_id", accountID)
	}

	return acc, nil
}

// History returns up to limit ledger entries of an account, newest first.
func (s *Service) History(ctx context.Context, accountID uint64, limit int) ([]ledger.Entry, error) {
	_, err := s.repos.Accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	entries, err := s.repos.Ledger.ListByAccount(ctx, accountID, clampLimit(limit, maxHistory))
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return entries, nil
}

// StreamDonations returns up to limit donations made on a stream, newest first.
func (s *Service) StreamDonations(ctx context.Context, streamID uint64, limit int) ([]donations.Donation, error) {
	if streamID == 0 {
		return nil, fmt.Errorf("stream id: %w", ErrInvalidArgument)
	}

	list, err := s.repos.Donations.ListByStream(ctx, streamID, clampLimit(limit, maxDonations))
	if err != nil {
		return nil, fmt.Errorf("stream donations: %w", err)
	}

	return list, nil
}

// Referrals lists the relationships where accountID is the referrer.
func (s *Service) Referrals(ctx context.Context, referrerID uint64) ([]referrals.Referral, error) {
	if referrerID == 0 {
		return nil, fmt.Errorf("referrer id: %w", ErrInvalidArgument)
	}

	list, err := s.repos.Referrals.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("referrals: %w", err)
	}

	return list, nil
}

func clampLimit(limit, upper int) int {
	if limit <= 0 || limit > upper {
		return upper
	}

	return limit
}

// adjustBalance applies a signed delta to a locked account and returns the
// new balance. A debit that would go below zero fails with
// ErrInsufficientFunds and changes nothing.
func (s *Service) adjustBalance(tx *sql.Tx, accountID uint64, delta Amount) (Amount, error) {
	var (
		balance int64
		err     error
	)

	switch {
	case delta > 0:
		balance, err = s.repos.Accounts.IncreaseBalance(tx, accountID, int64(delta))
	case delta < 0:
		balance, err = s.repos.Accounts.DecreaseBalance(tx, accountID, int64(-delta))
	default:
		balance, err = s.repos.Accounts.LockAndGetBalance(tx, accountID)
	}

	if err != nil {
		return 0, fmt.Errorf("adjust balance of %d by %d: %w", accountID, delta, err)
	}

	return Amount(balance), nil
}

// observe records the outcome of an operation in metrics.
func (s *Service) observe(op string, err error) {
	switch {
	case err == nil:
		s.stats.Operation(op, metrics.ResultOK)
	case isRejection(err):
		s.stats.Operation(op, metrics.ResultRejected)
	default:
		s.stats.Operation(op, metrics.ResultFailed)
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidArgument, ErrUnsupportedCurrency, ErrSelfReferral,
		ErrRecipientNotFound, ErrInsufficientFunds, ErrAccountNotFound, ErrStreamNotFound,
		ErrDuplicateOperation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
