package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/ledger"
	"github.com/strimboom/boombucks/internal/repos/referrals"
)

// CreditReferral adds a qualifying purchase of the referred user to the
// (referrer, referred) relationship. The first call that brings the
// cumulative amount to the policy threshold credits the referrer with the
// policy reward; later calls keep accumulating but never reward again.
//
// A zero purchase only registers the relationship.
func (s *Service) CreditReferral(ctx context.Context, req ReferralCredit) (AccrualResult, error) {
	var res AccrualResult

	err := validateReferral(req)
	if err == nil {
		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var rerr error

			res, rerr = s.creditReferral(tx, req)

			return rerr
		})
	}

	s.observe(opCreditReferral, err)

	if err != nil {
		return AccrualResult{}, fmt.Errorf("credit referral: %w", err)
	}

	if res.Rewarded {
		s.stats.Rewarded()
		s.stats.Moved(string(ledger.KindReferralReward), int64(res.RewardEarned))

		s.log.InfoContext(ctx, "referral rewarded",
			"referral_id", res.ReferralID,
			"referrer_id", req.ReferrerID,
			"referred_id", req.ReferredID,
			"cumulative_amount", res.CumulativeAmount,
			"reward", res.RewardEarned,
			"entry_id", res.RewardEntry.ID,
		)
	}

	return res, nil
}

func validateReferral(req ReferralCredit) error {
	if req.ReferrerID == 0 || req.ReferredID == 0 {
		return fmt.Errorf("referrer and referred ids are required: %w", ErrInvalidArgument)
	}

	if req.ReferrerID == req.ReferredID {
		return fmt.Errorf("account %d: %w", req.ReferrerID, ErrSelfReferral)
	}

	if req.PurchaseAmount < 0 {
		return fmt.Errorf("purchase amount %d: %w", req.PurchaseAmount, ErrInvalidAmount)
	}

	return nil
}

func (s *Service) creditReferral(tx *sql.Tx, req ReferralCredit) (AccrualResult, error) {
	for _, id := range []uint64{req.ReferrerID, req.ReferredID} {
		err := s.repos.Accounts.Exists(tx, id)
		if err != nil {
			return AccrualResult{}, fmt.Errorf("account %d: %w", id, err)
		}
	}

	// The relationship row lock serializes accruals of one pair.
	ref, err := s.repos.Referrals.LockOrCreate(tx, req.ReferrerID, req.ReferredID)
	if err != nil {
		return AccrualResult{}, fmt.Errorf("lock referral: %w", err)
	}

	total := ref.PurchaseAmount
	if req.PurchaseAmount > 0 {
		total, err = s.repos.Referrals.AddPurchase(tx, ref.ID, int64(req.PurchaseAmount))
		if err != nil {
			return AccrualResult{}, fmt.Errorf("add purchase: %w", err)
		}
	}

	res := AccrualResult{
		ReferralID:       ref.ID,
		Status:           ref.Status,
		CumulativeAmount: Amount(total),
		RewardEarned:     Amount(ref.RewardEarned),
	}

	if ref.Status != referrals.StatusPending || Amount(total) < s.policy.ReferralThreshold {
		return res, nil
	}

	reward := s.policy.ReferralReward

	err = s.repos.Referrals.MarkRewarded(tx, ref.ID, int64(reward))
	if err != nil {
		return AccrualResult{}, fmt.Errorf("mark rewarded: %w", err)
	}

	_, err = s.adjustBalance(tx, req.ReferrerID, reward)
	if err != nil {
		return AccrualResult{}, fmt.Errorf("credit referrer: %w", err)
	}

	entry, err := s.repos.Ledger.Append(tx, ledger.NewEntry{
		AccountID:   req.ReferrerID,
		Kind:        ledger.KindReferralReward,
		Amount:      int64(reward),
		Currency:    s.policy.Currency,
		Description: fmt.Sprintf("Referral reward for user %d", req.ReferredID),
	})
	if err != nil {
		return AccrualResult{}, fmt.Errorf("append reward entry: %w", err)
	}

	res.Status = referrals.StatusRewarded
	res.RewardEarned = reward
	res.Rewarded = true
	res.RewardEntry = &entry

	return res, nil
}
