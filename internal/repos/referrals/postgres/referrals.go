package referrals

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/accounts"
	"github.com/strimboom/boombucks/internal/repos/referrals"
)

var _ referrals.Referrals = (*referralsRepo)(nil)

type referralsRepo struct{ db *sql.DB }

func New(db *sql.DB) *referralsRepo {
	return &referralsRepo{db: db}
}

const selectColumns = `id, referrer_id, referred_user_id, purchase_amount, reward_earned, status, created_at, rewarded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReferral(s scanner) (referrals.Referral, error) {
	var (
		ref        referrals.Referral
		rewardedAt sql.NullTime
	)

	err := s.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.PurchaseAmount,
		&ref.RewardEarned, &ref.Status, &ref.CreatedAt, &rewardedAt)
	if err != nil {
		return referrals.Referral{}, err
	}

	if rewardedAt.Valid {
		ref.RewardedAt = &rewardedAt.Time
	}

	return ref, nil
}

// LockOrCreate relies on the (referrer_id, referred_user_id) unique constraint:
// concurrent first attributions both end up locking the same single row.
func (r *referralsRepo) LockOrCreate(tx *sql.Tx, referrerID, referredID uint64) (referrals.Referral, error) {
	_, err := tx.Exec(`
		INSERT INTO referrals (referrer_id, referred_user_id, purchase_amount, status)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (referrer_id, referred_user_id) DO NOTHING
	`, referrerID, referredID, referrals.StatusPending)
	if err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return referrals.Referral{}, accounts.ErrAccountNotFound
		}

		return referrals.Referral{}, fmt.Errorf("create referral: %w", err)
	}

	ref, err := scanReferral(tx.QueryRow(`
		SELECT `+selectColumns+`
		FROM referrals
		WHERE referrer_id = $1 AND referred_user_id = $2
		FOR UPDATE
	`, referrerID, referredID))
	if err != nil {
		return referrals.Referral{}, fmt.Errorf("lock referral: %w", err)
	}

	return ref, nil
}

// AddPurchase accumulates amount and returns the new cumulative total.
func (r *referralsRepo) AddPurchase(tx *sql.Tx, id int64, amount int64) (int64, error) {
	var total int64

	err := tx.QueryRow(`
		UPDATE referrals
		SET purchase_amount = purchase_amount + $2
		WHERE id = $1
		RETURNING purchase_amount
	`, id, amount).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("add referral purchase: %w", err)
	}

	return total, nil
}

// MarkRewarded is a compare-and-set on status; it fails with
// ErrAlreadyRewarded unless the row is still pending.
func (r *referralsRepo) MarkRewarded(tx *sql.Tx, id int64, reward int64) error {
	res, err := tx.Exec(`
		UPDATE referrals
		SET status = $2, reward_earned = $3, rewarded_at = now()
		WHERE id = $1
		  AND status = $4
	`, id, referrals.StatusRewarded, reward, referrals.StatusPending)
	if err != nil {
		return fmt.Errorf("mark referral rewarded: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return referrals.ErrAlreadyRewarded
	}

	return nil
}

func (r *referralsRepo) ListByReferrer(ctx context.Context, referrerID uint64) ([]referrals.Referral, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC, id DESC
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var out []referrals.Referral

	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}

		out = append(out, ref)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", err)
	}

	return out, nil
}
