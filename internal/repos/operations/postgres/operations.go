package operations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/repos/accounts"
	"github.com/strimboom/boombucks/internal/repos/operations"
)

var _ operations.Operations = (*operationsRepo)(nil)

type operationsRepo struct{ db *sql.DB }

func New(db *sql.DB) *operationsRepo {
	return &operationsRepo{db: db}
}

func (r *operationsRepo) Claim(tx *sql.Tx, key uuid.UUID, operation string, accountID uint64) error {
	_, err := tx.Exec(`
		INSERT INTO operation_keys (key, operation, account_id)
		VALUES ($1, $2, $3)
	`, key, operation, accountID)
	if err != nil {
		switch {
		case pgutils.IsUniqueViolation(err):
			return operations.ErrDuplicateOperation
		case pgutils.IsForeignKeyViolation(err):
			return accounts.ErrAccountNotFound
		default:
			return fmt.Errorf("claim operation key: %w", err)
		}
	}

	return nil
}

// Complete stores the outcome of the operation guarded by key.
func (r *operationsRepo) Complete(tx *sql.Tx, key uuid.UUID, resultID, resultBalance int64) error {
	res, err := tx.Exec(`
		UPDATE operation_keys
		SET result_id = $2, result_balance = $3
		WHERE key = $1
	`, key, resultID, resultBalance)
	if err != nil {
		return fmt.Errorf("complete operation key: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return operations.ErrOperationNotFound
	}

	return nil
}

func (r *operationsRepo) Get(ctx context.Context, key uuid.UUID) (operations.Operation, error) {
	var (
		op       operations.Operation
		resultID sql.NullInt64
		balance  sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT key, operation, account_id, result_id, result_balance, created_at
		FROM operation_keys
		WHERE key = $1
	`, key).Scan(&op.Key, &op.Operation, &op.AccountID, &resultID, &balance, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return operations.Operation{}, operations.ErrOperationNotFound
		}

		return operations.Operation{}, fmt.Errorf("get operation key: %w", err)
	}

	if resultID.Valid {
		op.ResultID = &resultID.Int64
	}

	if balance.Valid {
		op.ResultBalance = &balance.Int64
	}

	return op, nil
}
