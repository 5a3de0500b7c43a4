package accounts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strimboom/boombucks/internal/infra/pgtestutil"
	"github.com/strimboom/boombucks/internal/repos/accounts"
)

func TestAccounts_IncreaseBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		seed        bool
		start       int64
		accountID   uint64
		amount      int64
		wantBalance int64
		wantErr     error
	}{
		{name: "increase_from_zero", seed: true, start: 0, accountID: 101, amount: 20, wantBalance: 20},
		{name: "increase_from_positive", seed: true, start: 5, accountID: 102, amount: 20, wantBalance: 25},
		{name: "increase_large_balance", seed: true, start: 900_000_000_000_000, accountID: 103, amount: 123, wantBalance: 900_000_000_000_123},
		{name: "missing_account", accountID: 104, amount: 1, wantErr: accounts.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seed {
				pgtestutil.SeedAccount(t, db, tt.accountID, tt.start)
			}

			repo := New(db)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			got, err := repo.IncreaseBalance(tx, tt.accountID, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("increase balance: %v", err)
			}
			if got != tt.wantBalance {
				t.Fatalf("returned balance: want %d, got %d", tt.wantBalance, got)
			}

			err = tx.Commit()
			if err != nil {
				t.Fatalf("commit: %v", err)
			}

			if stored := pgtestutil.Balance(t, db, tt.accountID); stored != tt.wantBalance {
				t.Fatalf("stored balance: want %d, got %d", tt.wantBalance, stored)
			}
		})
	}
}

func TestAccounts_DecreaseBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		seed        bool
		start       int64
		amount      int64
		wantBalance int64
		wantErr     error
	}{
		{name: "sufficient_funds", seed: true, start: 10, amount: 4, wantBalance: 6},
		{name: "exact_to_zero", seed: true, start: 3, amount: 3, wantBalance: 0},
		{name: "insufficient_funds_unchanged", seed: true, start: 3, amount: 5, wantBalance: 3, wantErr: accounts.ErrInsufficientFunds},
		{name: "missing_account_as_insufficient", amount: 1, wantErr: accounts.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			const id = 201
			if tt.seed {
				pgtestutil.SeedAccount(t, db, id, tt.start)
			}

			repo := New(db)

			tx, err := db.BeginTx(t.Context(), nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			got, err := repo.DecreaseBalance(tx, id, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("decrease balance: %v", err)
				}
				if got != tt.wantBalance {
					t.Fatalf("returned balance: want %d, got %d", tt.wantBalance, got)
				}
				err = tx.Commit()
				if err != nil {
					t.Fatalf("commit: %v", err)
				}
			}

			if tt.seed {
				if stored := pgtestutil.Balance(t, db, id); stored != tt.wantBalance {
					t.Fatalf("stored balance: want %d, got %d", tt.wantBalance, stored)
				}
			}
		})
	}
}

func TestAccounts_DecreaseBalance_ConcurrentGuard(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, 1000)

	repo := New(db)

	var (
		wg                    sync.WaitGroup
		mu                    sync.Mutex
		success, insufficient int
	)

	worker := func(name string) {
		defer wg.Done()

		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			t.Errorf("[%s] begin tx: %v", name, err)
			return
		}
		defer func() { _ = tx.Rollback() }()

		_, err = repo.LockAndGetBalance(tx, 1)
		if err != nil {
			t.Errorf("[%s] lock balance: %v", name, err)
			return
		}

		_, err = repo.DecreaseBalance(tx, 1, 1000)
		if err == nil {
			mu.Lock()
			success++
			mu.Unlock()

			err = tx.Commit()
			if err != nil {
				t.Errorf("[%s] commit: %v", name, err)
			}
			return
		}

		if errors.Is(err, accounts.ErrInsufficientFunds) {
			mu.Lock()
			insufficient++
			mu.Unlock()
			return
		}

		t.Errorf("[%s] unexpected error: %v", name, err)
	}

	wg.Add(2)
	go worker("A")
	go worker("B")
	wg.Wait()

	if success != 1 || insufficient != 1 {
		t.Fatalf("want 1 success and 1 insufficient, got success=%d insufficient=%d", success, insufficient)
	}
}
