package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/accounts"
	"github.com/strimboom/boombucks/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Append(tx *sql.Tx, e ledger.NewEntry) (ledger.Entry, error) {
	out := ledger.Entry{
		AccountID:   e.AccountID,
		Kind:        e.Kind,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
	}

	err := tx.QueryRow(`
		INSERT INTO ledger_entries (account_id, kind, amount, currency, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`, e.AccountID, e.Kind, e.Amount, e.Currency, e.Description, ledger.StatusCompleted).
		Scan(&out.ID, &out.Status, &out.CreatedAt)
	if err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return ledger.Entry{}, accounts.ErrAccountNotFound
		}

		return ledger.Entry{}, fmt.Errorf("append ledger entry: %w", err)
	}

	return out, nil
}

func (r *ledgerRepo) Get(ctx context.Context, id int64) (ledger.Entry, error) {
	var e ledger.Entry

	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, kind, amount, currency, description, status, created_at
		FROM ledger_entries
		WHERE id = $1
	`, id).Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.Currency, &e.Description, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Entry{}, ledger.ErrEntryNotFound
		}

		return ledger.Entry{}, fmt.Errorf("get ledger entry: %w", err)
	}

	return e, nil
}

// ListByAccount returns the newest entries first.
func (r *ledgerRepo) ListByAccount(ctx context.Context, accountID uint64, limit int) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, kind, amount, currency, description, status, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	entries := make([]ledger.Entry, 0, limit)

	for rows.Next() {
		var e ledger.Entry

		err = rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.Currency, &e.Description, &e.Status, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}
