package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/accounts"
)

// DecreaseBalance debits amount and returns the new balance. The guard in the
// WHERE clause keeps the balance non-negative even without a prior lock; a
// missing account is reported the same way as a short balance.
func (r *accountsRepo) DecreaseBalance(tx *sql.Tx, accountID uint64, amount int64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		UPDATE accounts
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
		RETURNING balance
	`, accountID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgutils.IsCheckViolation(err) {
			return 0, accounts.ErrInsufficientFunds
		}

		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	return balance, nil
}
