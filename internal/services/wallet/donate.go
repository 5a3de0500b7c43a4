package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/infra/metrics"
	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/donations"
	"github.com/strimboom/boombucks/internal/repos/ledger"
	"github.com/strimboom/boombucks/internal/repos/streams"
)

const maxMessageLen = 500

// Donate transfers amount from the donor to the owner of the stream and
// records the donation.
//
// A stream without an owner is refused with ErrRecipientNotFound under the
// default policy. With Policy.RequireRecipient off the donor is still debited
// and nobody is credited.
func (s *Service) Donate(ctx context.Context, req DonateRequest) (DonationReceipt, error) {
	var receipt DonationReceipt

	err := validateDonation(req)
	if err == nil {
		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var derr error

			receipt, derr = s.donate(tx, req)

			return derr
		})
	}

	if err != nil && req.IdempotencyKey != uuid.Nil && errors.Is(err, ErrDuplicateOperation) {
		replayed, rerr := s.replayDonation(ctx, req)
		if rerr == nil {
			s.stats.Operation(opDonate, metrics.ResultReplayed)
			s.log.InfoContext(ctx, "donation replayed",
				"donation_id", replayed.DonationID,
				"idempotency_key", req.IdempotencyKey,
			)

			return replayed, nil
		}

		err = rerr
	}

	s.observe(opDonate, err)

	if err != nil {
		return DonationReceipt{}, fmt.Errorf("donate: %w", err)
	}

	s.stats.Moved(string(ledger.KindDonationSent), int64(receipt.Amount))
	if receipt.RecipientID != nil {
		s.stats.Moved(string(ledger.KindDonationReceived), int64(receipt.Amount))
	}

	s.log.InfoContext(ctx, "donation applied",
		"donation_id", receipt.DonationID,
		"stream_id", receipt.StreamID,
		"donor_id", receipt.DonorID,
		"recipient_id", receipt.RecipientID,
		"amount", receipt.Amount,
	)

	return receipt, nil
}

func validateDonation(req DonateRequest) error {
	if req.StreamID == 0 {
		return fmt.Errorf("stream id: %w", ErrInvalidArgument)
	}

	if len(req.Message) > maxMessageLen {
		return fmt.Errorf("message longer than %d bytes: %w", maxMessageLen, ErrInvalidArgument)
	}

	return validateTransfer(req.DonorID, req.Amount)
}

func (s *Service) donate(tx *sql.Tx, req DonateRequest) (DonationReceipt, error) {
	if req.IdempotencyKey != uuid.Nil {
		err := s.repos.Operations.Claim(tx, req.IdempotencyKey, opDonate, req.DonorID)
		if err != nil {
			return DonationReceipt{}, fmt.Errorf("claim idempotency key: %w", err)
		}
	}

	recipient, err := s.resolveRecipient(tx, req.StreamID)
	if err != nil {
		return DonationReceipt{}, err
	}

	res, err := s.transfer(tx, req.DonorID, recipient, req.Amount,
		fmt.Sprintf("Donation to stream %d", req.StreamID),
		fmt.Sprintf("Donation on stream %d", req.StreamID),
	)
	if err != nil {
		return DonationReceipt{}, err
	}

	d, err := s.repos.Donations.Insert(tx, donations.NewDonation{
		StreamID:    req.StreamID,
		DonorID:     req.DonorID,
		RecipientID: res.ToAccountID,
		Amount:      int64(req.Amount),
		Message:     req.Message,
	})
	if err != nil {
		return DonationReceipt{}, fmt.Errorf("record donation: %w", err)
	}

	if req.IdempotencyKey != uuid.Nil {
		err = s.repos.Operations.Complete(tx, req.IdempotencyKey, d.ID, int64(res.FromBalance))
		if err != nil {
			return DonationReceipt{}, fmt.Errorf("complete idempotency key: %w", err)
		}
	}

	return DonationReceipt{
		DonationID:   d.ID,
		StreamID:     d.StreamID,
		DonorID:      req.DonorID,
		RecipientID:  res.ToAccountID,
		Amount:       req.Amount,
		Message:      d.Message,
		CreatedAt:    d.CreatedAt,
		DonorBalance: res.FromBalance,
	}, nil
}

// replayDonation answers a retried donation with the receipt of the request
// that first used the key. A key reused for a different donation stays a
// duplicate.
func (s *Service) replayDonation(ctx context.Context, req DonateRequest) (DonationReceipt, error) {
	op, err := s.repos.Operations.Get(ctx, req.IdempotencyKey)
	if err != nil {
		return DonationReceipt{}, fmt.Errorf("load idempotency key: %w", err)
	}

	if op.Operation != opDonate || op.AccountID != req.DonorID || op.ResultID == nil || op.ResultBalance == nil {
		return DonationReceipt{}, fmt.Errorf("key %s belongs to another request: %w", req.IdempotencyKey, ErrDuplicateOperation)
	}

	d, err := s.repos.Donations.Get(ctx, *op.ResultID)
	if err != nil {
		return DonationReceipt{}, fmt.Errorf("load donation %d: %w", *op.ResultID, err)
	}

	if d.StreamID != req.StreamID || d.Amount != int64(req.Amount) {
		return DonationReceipt{}, fmt.Errorf("key %s belongs to another request: %w", req.IdempotencyKey, ErrDuplicateOperation)
	}

	return DonationReceipt{
		DonationID:   d.ID,
		StreamID:     d.StreamID,
		DonorID:      req.DonorID,
		RecipientID:  d.RecipientID,
		Amount:       Amount(d.Amount),
		Message:      d.Message,
		CreatedAt:    d.CreatedAt,
		DonorBalance: Amount(*op.ResultBalance),
		Replayed:     true,
	}, nil
}

// resolveRecipient returns the account credited for a donation on streamID,
// or nil when the stream has no owner and the policy tolerates that.
func (s *Service) resolveRecipient(tx *sql.Tx, streamID uint64) (*uint64, error) {
	owner, err := s.repos.Streams.OwnerOf(tx, streamID)
	if err == nil {
		return &owner, nil
	}

	if errors.Is(err, streams.ErrNoOwner) {
		if s.policy.RequireRecipient {
			return nil, fmt.Errorf("stream %d: %w", streamID, ErrRecipientNotFound)
		}

		return nil, nil
	}

	return nil, fmt.Errorf("resolve recipient: %w", err)
}
