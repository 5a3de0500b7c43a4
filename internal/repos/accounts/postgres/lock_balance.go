package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/strimboom/boombucks/internal/repos/accounts"
)

// LockAndGetBalance takes FOR NO KEY UPDATE rather than FOR UPDATE: foreign
// key checks from inserts that reference the account (ledger entries,
// operation keys, referrals) take FOR KEY SHARE, which must not queue behind
// a balance lock held by another transaction.
func (r *accountsRepo) LockAndGetBalance(tx *sql.Tx, accountID uint64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		SELECT balance
		FROM accounts
		WHERE id = $1
		FOR NO KEY UPDATE
	`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

// LockBalances row-locks every given account in ascending id order, so two
// operations touching the same pair of accounts can never deadlock. Duplicate
// ids are locked once. Any missing account fails with ErrAccountNotFound.
func (r *accountsRepo) LockBalances(tx *sql.Tx, accountIDs ...uint64) (map[uint64]int64, error) {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	balances := make(map[uint64]int64, len(ids))

	for _, id := range ids {
		balance, err := r.LockAndGetBalance(tx, id)
		if err != nil {
			return nil, fmt.Errorf("lock account %d: %w", id, err)
		}

		balances[id] = balance
	}

	return balances, nil
}
