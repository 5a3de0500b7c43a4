package donations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/strimboom/boombucks/internal/repos/donations"
)

var _ donations.Donations = (*donationsRepo)(nil)

type donationsRepo struct{ db *sql.DB }

func New(db *sql.DB) *donationsRepo {
	return &donationsRepo{db: db}
}

func (r *donationsRepo) Insert(tx *sql.Tx, d donations.NewDonation) (donations.Donation, error) {
	var recipient sql.NullInt64
	if d.RecipientID != nil {
		recipient = sql.NullInt64{Int64: int64(*d.RecipientID), Valid: true}
	}

	donorID := d.DonorID
	out := donations.Donation{
		StreamID:    d.StreamID,
		DonorID:     &donorID,
		RecipientID: d.RecipientID,
		Amount:      d.Amount,
		Message:     d.Message,
	}

	err := tx.QueryRow(`
		INSERT INTO donations (stream_id, from_user_id, to_user_id, amount, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, d.StreamID, d.DonorID, recipient, d.Amount, d.Message).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return donations.Donation{}, fmt.Errorf("insert donation: %w", err)
	}

	return out, nil
}

func (r *donationsRepo) Get(ctx context.Context, id int64) (donations.Donation, error) {
	var (
		d         donations.Donation
		donor     sql.NullInt64
		recipient sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, stream_id, from_user_id, to_user_id, amount, message, created_at
		FROM donations
		WHERE id = $1
	`, id).Scan(&d.ID, &d.StreamID, &donor, &recipient, &d.Amount, &d.Message, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return donations.Donation{}, donations.ErrDonationNotFound
		}

		return donations.Donation{}, fmt.Errorf("get donation: %w", err)
	}

	d.DonorID = nullableID(donor)
	d.RecipientID = nullableID(recipient)

	return d, nil
}

// ListByStream returns the newest donations first.
func (r *donationsRepo) ListByStream(ctx context.Context, streamID uint64, limit int) ([]donations.Donation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stream_id, from_user_id, to_user_id, amount, message, created_at
		FROM donations
		WHERE stream_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, streamID, limit)
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]donations.Donation, 0, limit)

	for rows.Next() {
		var (
			d         donations.Donation
			donor     sql.NullInt64
			recipient sql.NullInt64
		)

		err = rows.Scan(&d.ID, &d.StreamID, &donor, &recipient, &d.Amount, &d.Message, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}

		d.DonorID = nullableID(donor)
		d.RecipientID = nullableID(recipient)

		out = append(out, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}

	return out, nil
}

func nullableID(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}

	id := uint64(v.Int64)

	return &id
}
