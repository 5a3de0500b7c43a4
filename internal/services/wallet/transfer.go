package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/ledger"
)

// Transfer moves amount from one account to another as a single atomic unit.
// Self-transfers are allowed: they net to zero but still leave both entries.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	var res TransferResult

	err := validateTransfer(req.FromAccountID, req.Amount)
	if err == nil && req.ToAccountID == 0 {
		err = fmt.Errorf("to account id: %w", ErrInvalidArgument)
	}

	if err == nil {
		to := req.ToAccountID

		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var terr error

			res, terr = s.transfer(tx, req.FromAccountID, &to, req.Amount, req.Description, req.Description)

			return terr
		})
	}

	s.observe(opTransfer, err)

	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer: %w", err)
	}

	s.recordTransfer(ctx, res)

	return res, nil
}

func validateTransfer(from uint64, amount Amount) error {
	if from == 0 {
		return fmt.Errorf("from account id: %w", ErrInvalidArgument)
	}

	if amount <= 0 {
		return fmt.Errorf("amount %d: %w", amount, ErrInvalidAmount)
	}

	return nil
}

// transfer runs inside tx:
//
// 1) Lock source and destination rows in ascending id order.
// 2) Check the source balance against amount.
// 3) Debit the source and append its donation_sent entry.
// 4) If a destination is known, credit it and append donation_received.
//
// to == nil means the destination has no owner; only steps 1-3 apply.
func (s *Service) transfer(tx *sql.Tx, from uint64, to *uint64, amount Amount, sentDesc, receivedDesc string) (TransferResult, error) {
	ids := []uint64{from}
	if to != nil {
		ids = append(ids, *to)
	}

	// 1) Lock
	balances, err := s.repos.Accounts.LockBalances(tx, ids...)
	if err != nil {
		return TransferResult{}, fmt.Errorf("lock accounts: %w", err)
	}

	// 2) Pre-check against the locked balance
	if Amount(balances[from]) < amount {
		return TransferResult{}, fmt.Errorf("balance %d < %d: %w", balances[from], amount, ErrInsufficientFunds)
	}

	// 3) Debit
	fromBalance, err := s.adjustBalance(tx, from, -amount)
	if err != nil {
		return TransferResult{}, fmt.Errorf("debit: %w", err)
	}

	sent, err := s.repos.Ledger.Append(tx, ledger.NewEntry{
		AccountID:   from,
		Kind:        ledger.KindDonationSent,
		Amount:      -int64(amount),
		Currency:    s.policy.Currency,
		Description: sentDesc,
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("append sent entry: %w", err)
	}

	res := TransferResult{
		FromAccountID: from,
		FromBalance:   fromBalance,
		SentEntry:     sent,
		Amount:        amount,
	}

	if to == nil {
		return res, nil
	}

	// 4) Credit
	toBalance, err := s.adjustBalance(tx, *to, amount)
	if err != nil {
		return TransferResult{}, fmt.Errorf("credit: %w", err)
	}

	received, err := s.repos.Ledger.Append(tx, ledger.NewEntry{
		AccountID:   *to,
		Kind:        ledger.KindDonationReceived,
		Amount:      int64(amount),
		Currency:    s.policy.Currency,
		Description: receivedDesc,
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("append received entry: %w", err)
	}

	toID := *to
	res.ToAccountID = &toID
	res.ToBalance = toBalance
	res.ReceivedEntry = &received

	return res, nil
}

func (s *Service) recordTransfer(ctx context.Context, res TransferResult) {
	s.stats.Moved(string(ledger.KindDonationSent), int64(res.Amount))

	attrs := []any{
		"from_account_id", res.FromAccountID,
		"amount", res.Amount,
		"sent_entry_id", res.SentEntry.ID,
	}

	if res.ToAccountID != nil {
		s.stats.Moved(string(ledger.KindDonationReceived), int64(res.Amount))

		attrs = append(attrs, "to_account_id", *res.ToAccountID, "received_entry_id", res.ReceivedEntry.ID)
	}

	s.log.InfoContext(ctx, "transfer applied", attrs...)
}
