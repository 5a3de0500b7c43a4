package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/infra/metrics"
	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/ledger"
)

// TopUp applies a purchase feed event to an account. TopUpBuy credits the
// account; TopUpWithdraw and TopUpAdPurchase debit it and fail with
// ErrInsufficientFunds when the balance does not cover the amount. The ledger
// entry and the balance change commit together.
func (s *Service) TopUp(ctx context.Context, req TopUpRequest) (TopUpResult, error) {
	var res TopUpResult

	kind, currency, err := s.validateTopUp(req)
	if err == nil {
		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var terr error

			res, terr = s.topUp(tx, req, kind, currency)

			return terr
		})
	}

	if err != nil && req.IdempotencyKey != uuid.Nil && errors.Is(err, ErrDuplicateOperation) {
		replayed, rerr := s.replayTopUp(ctx, req, kind)
		if rerr == nil {
			s.stats.Operation(opTopUp, metrics.ResultReplayed)
			s.log.InfoContext(ctx, "top-up replayed",
				"entry_id", replayed.Entry.ID,
				"idempotency_key", req.IdempotencyKey,
			)

			return replayed, nil
		}

		err = rerr
	}

	s.observe(opTopUp, err)

	if err != nil {
		return TopUpResult{}, fmt.Errorf("top up: %w", err)
	}

	s.stats.Moved(string(res.Entry.Kind), res.Entry.Amount)

	s.log.InfoContext(ctx, "top-up applied",
		"account_id", req.AccountID,
		"kind", res.Entry.Kind,
		"amount", res.Entry.Amount,
		"entry_id", res.Entry.ID,
		"new_balance", res.NewBalance,
	)

	return res, nil
}

func (s *Service) validateTopUp(req TopUpRequest) (ledger.Kind, string, error) {
	if req.AccountID == 0 {
		return "", "", fmt.Errorf("account id: %w", ErrInvalidArgument)
	}

	if req.Amount <= 0 {
		return "", "", fmt.Errorf("amount %d: %w", req.Amount, ErrInvalidAmount)
	}

	currency, err := s.policy.resolveCurrency(req.Currency)
	if err != nil {
		return "", "", err
	}

	var kind ledger.Kind

	switch req.Type {
	case "", TopUpBuy:
		kind = ledger.KindPurchase
	case TopUpWithdraw:
		kind = ledger.KindWithdraw
	case TopUpAdPurchase:
		kind = ledger.KindAdPurchase
	default:
		return "", "", fmt.Errorf("top-up type %q: %w", req.Type, ErrInvalidArgument)
	}

	return kind, currency, nil
}

func (s *Service) topUp(tx *sql.Tx, req TopUpRequest, kind ledger.Kind, currency string) (TopUpResult, error) {
	if req.IdempotencyKey != uuid.Nil {
		err := s.repos.Operations.Claim(tx, req.IdempotencyKey, opTopUp, req.AccountID)
		if err != nil {
			return TopUpResult{}, fmt.Errorf("claim idempotency key: %w", err)
		}
	}

	balance, err := s.repos.Accounts.LockAndGetBalance(tx, req.AccountID)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("lock account: %w", err)
	}

	delta := req.Amount
	if kind != ledger.KindPurchase {
		if Amount(balance) < req.Amount {
			return TopUpResult{}, fmt.Errorf("balance %d < %d: %w", balance, req.Amount, ErrInsufficientFunds)
		}

		delta = -req.Amount
	}

	newBalance, err := s.adjustBalance(tx, req.AccountID, delta)
	if err != nil {
		return TopUpResult{}, err
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("%s of %d %s", kind, req.Amount, currency)
	}

	entry, err := s.repos.Ledger.Append(tx, ledger.NewEntry{
		AccountID:   req.AccountID,
		Kind:        kind,
		Amount:      int64(delta),
		Currency:    currency,
		Description: description,
	})
	if err != nil {
		return TopUpResult{}, fmt.Errorf("append entry: %w", err)
	}

	if req.IdempotencyKey != uuid.Nil {
		err = s.repos.Operations.Complete(tx, req.IdempotencyKey, entry.ID, int64(newBalance))
		if err != nil {
			return TopUpResult{}, fmt.Errorf("complete idempotency key: %w", err)
		}
	}

	return TopUpResult{Entry: entry, NewBalance: newBalance}, nil
}

// replayTopUp answers a retried top-up with the entry and balance produced by
// the request that first used the key.
func (s *Service) replayTopUp(ctx context.Context, req TopUpRequest, kind ledger.Kind) (TopUpResult, error) {
	op, err := s.repos.Operations.Get(ctx, req.IdempotencyKey)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("load idempotency key: %w", err)
	}

	if op.Operation != opTopUp || op.AccountID != req.AccountID || op.ResultID == nil || op.ResultBalance == nil {
		return TopUpResult{}, fmt.Errorf("key %s belongs to another request: %w", req.IdempotencyKey, ErrDuplicateOperation)
	}

	entry, err := s.repos.Ledger.Get(ctx, *op.ResultID)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("load ledger entry %d: %w", *op.ResultID, err)
	}

	amount := entry.Amount
	if amount < 0 {
		amount = -amount
	}

	if entry.Kind != kind || Amount(amount) != req.Amount {
		return TopUpResult{}, fmt.Errorf("key %s belongs to another request: %w", req.IdempotencyKey, ErrDuplicateOperation)
	}

	return TopUpResult{Entry: entry, NewBalance: Amount(*op.ResultBalance), Replayed: true}, nil
}
