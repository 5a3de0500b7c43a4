package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/strimboom/boombucks/internal/repos/accounts"
)

// IncreaseBalance credits amount and returns the new balance.
func (r *accountsRepo) IncreaseBalance(tx *sql.Tx, accountID uint64, amount int64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`, accountID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return balance, nil
}
