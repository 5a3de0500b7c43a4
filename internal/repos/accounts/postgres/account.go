package accounts

import (
	"database/sql"
	"fmt"

	"github.com/strimboom/boombucks/internal/repos/accounts"
)

// Create inserts a zero-balance account; an existing account is left as is.
func (r *accountsRepo) Create(tx *sql.Tx, accountID uint64) (bool, error) {
	res, err := tx.Exec(`
		INSERT INTO accounts (id, balance)
		VALUES ($1, 0)
		ON CONFLICT (id) DO NOTHING
	`, accountID)
	if err != nil {
		return false, fmt.Errorf("create account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *accountsRepo) Exists(tx *sql.Tx, accountID uint64) error {
	var exists bool

	err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)
	`, accountID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return accounts.ErrAccountNotFound
	}

	return nil
}
