package ledger

import (
	"errors"
	"testing"

	"github.com/strimboom/boombucks/internal/infra/pgtestutil"
	"github.com/strimboom/boombucks/internal/repos/accounts"
	"github.com/strimboom/boombucks/internal/repos/ledger"
)

func TestLedger_Append(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    bool
		entry   ledger.NewEntry
		wantErr error
	}{
		{
			name:  "ok_purchase",
			seed:  true,
			entry: ledger.NewEntry{AccountID: 1, Kind: ledger.KindPurchase, Amount: 20, Currency: "BBS", Description: "top-up"},
		},
		{
			name:  "ok_negative_donation",
			seed:  true,
			entry: ledger.NewEntry{AccountID: 1, Kind: ledger.KindDonationSent, Amount: -4, Currency: "BBS"},
		},
		{
			name:    "unknown_account",
			entry:   ledger.NewEntry{AccountID: 1, Kind: ledger.KindPurchase, Amount: 1, Currency: "BBS"},
			wantErr: accounts.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seed {
				pgtestutil.SeedAccount(t, db, tt.entry.AccountID, 0)
			}

			tx, err := db.BeginTx(t.Context(), nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			got, err := New(db).Append(tx, tt.entry)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("append: %v", err)
			}

			if got.ID == 0 || got.CreatedAt.IsZero() {
				t.Fatalf("store-assigned fields missing: %+v", got)
			}
			if got.Status != ledger.StatusCompleted {
				t.Fatalf("status: want completed, got %s", got.Status)
			}
			if got.Amount != tt.entry.Amount || got.Kind != tt.entry.Kind {
				t.Fatalf("entry mismatch: %+v", got)
			}
		})
	}
}

func TestLedger_IsAppendOnly(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, 0)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	e, err := New(db).Append(tx, ledger.NewEntry{AccountID: 1, Kind: ledger.KindPurchase, Amount: 5, Currency: "BBS"})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("append: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, err = db.Exec(`UPDATE ledger_entries SET amount = 500 WHERE id = $1`, e.ID)
	if err == nil {
		t.Fatal("update of a ledger entry must fail")
	}

	_, err = db.Exec(`DELETE FROM ledger_entries WHERE id = $1`, e.ID)
	if err == nil {
		t.Fatal("delete of a ledger entry must fail")
	}
}

func TestLedger_ListByAccount_NewestFirst(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, 0)
	pgtestutil.SeedAccount(t, db, 2, 0)

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	for _, e := range []ledger.NewEntry{
		{AccountID: 1, Kind: ledger.KindPurchase, Amount: 10, Currency: "BBS"},
		{AccountID: 2, Kind: ledger.KindPurchase, Amount: 99, Currency: "BBS"},
		{AccountID: 1, Kind: ledger.KindDonationSent, Amount: -3, Currency: "BBS"},
		{AccountID: 1, Kind: ledger.KindReferralReward, Amount: 1, Currency: "BBS"},
	} {
		_, err = repo.Append(tx, e)
		if err != nil {
			_ = tx.Rollback()
			t.Fatalf("append: %v", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.ListByAccount(t.Context(), 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("limit: want 2 entries, got %d", len(got))
	}
	if got[0].Kind != ledger.KindReferralReward || got[1].Kind != ledger.KindDonationSent {
		t.Fatalf("order: got %s, %s", got[0].Kind, got[1].Kind)
	}
	for _, e := range got {
		if e.AccountID != 1 {
			t.Fatalf("foreign entry leaked: %+v", e)
		}
	}
}

func TestLedger_Get(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, 0)

	repo := New(db)

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	appended, err := repo.Append(tx, ledger.NewEntry{AccountID: 1, Kind: ledger.KindWithdraw, Amount: -3, Currency: "BBS", Description: "cash out"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.Get(t.Context(), appended.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != appended.ID || got.Kind != ledger.KindWithdraw || got.Amount != -3 || got.Description != "cash out" {
		t.Fatalf("unexpected entry: %+v", got)
	}

	_, err = repo.Get(t.Context(), appended.ID+1000)
	if !errors.Is(err, ledger.ErrEntryNotFound) {
		t.Fatalf("missing entry: want ErrEntryNotFound, got %v", err)
	}
}
