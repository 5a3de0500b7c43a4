package accounts

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
)

// Accounts is the Account Store. Every method taking a *sql.Tx runs inside
// the caller's atomic unit; balances are only mutated through those methods.
type Accounts interface {
	Create(tx *sql.Tx, accountID uint64) (created bool, err error)
	// Exists returns ErrAccountNotFound for an unknown id. It takes no lock.
	Exists(tx *sql.Tx, accountID uint64) error
	GetBalance(ctx context.Context, accountID uint64) (int64, error)
	LockAndGetBalance(tx *sql.Tx, accountID uint64) (int64, error)
	LockBalances(tx *sql.Tx, accountIDs ...uint64) (map[uint64]int64, error)
	IncreaseBalance(tx *sql.Tx, accountID uint64, amount int64) (int64, error)
	DecreaseBalance(tx *sql.Tx, accountID uint64, amount int64) (int64, error)
}
