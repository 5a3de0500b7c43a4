package wallet

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/infra/pgtestutil"
	"github.com/strimboom/boombucks/internal/repos/ledger"
)

func TestService_TopUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		start       int64
		req         TopUpRequest
		wantErr     error
		wantBalance int64
		wantKind    ledger.Kind
		wantAmount  int64
	}{
		{
			name: "buy_credits", start: 5,
			req:         TopUpRequest{AccountID: donorID, Amount: 20, Currency: "BBS", Type: TopUpBuy},
			wantBalance: 25, wantKind: ledger.KindPurchase, wantAmount: 20,
		},
		{
			name: "default_type_and_currency", start: 0,
			req:         TopUpRequest{AccountID: donorID, Amount: 7},
			wantBalance: 7, wantKind: ledger.KindPurchase, wantAmount: 7,
		},
		{
			name: "withdraw_debits", start: 10,
			req:         TopUpRequest{AccountID: donorID, Amount: 4, Type: TopUpWithdraw},
			wantBalance: 6, wantKind: ledger.KindWithdraw, wantAmount: -4,
		},
		{
			name: "ad_purchase_debits", start: 10,
			req:         TopUpRequest{AccountID: donorID, Amount: 10, Type: TopUpAdPurchase},
			wantBalance: 0, wantKind: ledger.KindAdPurchase, wantAmount: -10,
		},
		{
			name: "withdraw_insufficient", start: 3,
			req:     TopUpRequest{AccountID: donorID, Amount: 4, Type: TopUpWithdraw},
			wantErr: ErrInsufficientFunds, wantBalance: 3,
		},
		{
			name: "zero_amount", start: 3,
			req:     TopUpRequest{AccountID: donorID, Amount: 0},
			wantErr: ErrInvalidAmount, wantBalance: 3,
		},
		{
			name: "foreign_currency", start: 3,
			req:     TopUpRequest{AccountID: donorID, Amount: 1, Currency: "USD"},
			wantErr: ErrUnsupportedCurrency, wantBalance: 3,
		},
		{
			name: "unknown_type", start: 3,
			req:     TopUpRequest{AccountID: donorID, Amount: 1, Type: "refund"},
			wantErr: ErrInvalidArgument, wantBalance: 3,
		},
		{
			name: "unknown_account",
			req:  TopUpRequest{AccountID: 999, Amount: 1}, wantErr: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, db := newTestService(t, DefaultPolicy())
			pgtestutil.SeedAccount(t, db, donorID, tt.start)

			res, err := svc.TopUp(t.Context(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				if got := pgtestutil.Balance(t, db, donorID); got != tt.wantBalance {
					t.Fatalf("balance: want %d, got %d", tt.wantBalance, got)
				}
				if got := ledgerCount(t, db, donorID); got != 0 {
					t.Fatalf("ledger entries after failure: %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("top up: %v", err)
			}

			if int64(res.NewBalance) != tt.wantBalance {
				t.Fatalf("new balance: want %d, got %d", tt.wantBalance, res.NewBalance)
			}
			if res.Entry.ID == 0 || res.Entry.Kind != tt.wantKind || res.Entry.Amount != tt.wantAmount {
				t.Fatalf("entry: %+v", res.Entry)
			}
			if res.Entry.Status != ledger.StatusCompleted || res.Entry.Currency != "BBS" {
				t.Fatalf("entry status/currency: %+v", res.Entry)
			}
			if got := pgtestutil.Balance(t, db, donorID); got != tt.wantBalance {
				t.Fatalf("stored balance: want %d, got %d", tt.wantBalance, got)
			}
		})
	}
}

func TestService_TopUp_IdempotencyKey(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, DefaultPolicy())

	req := TopUpRequest{AccountID: donorID, Amount: 5, IdempotencyKey: uuid.New()}

	first, err := svc.TopUp(t.Context(), req)
	if err != nil {
		t.Fatalf("first top up: %v", err)
	}

	_, err = svc.TopUp(t.Context(), TopUpRequest{AccountID: donorID, Amount: 2})
	if err != nil {
		t.Fatalf("unkeyed top up: %v", err)
	}

	retry, err := svc.TopUp(t.Context(), req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retry.Replayed || retry.Entry.ID != first.Entry.ID || retry.NewBalance != 5 {
		t.Fatalf("retry must return the original result: first %+v, retry %+v", first, retry)
	}

	tests := []struct {
		name string
		req  TopUpRequest
	}{
		{name: "other_amount", req: TopUpRequest{AccountID: donorID, Amount: 6, IdempotencyKey: req.IdempotencyKey}},
		{name: "other_type", req: TopUpRequest{AccountID: donorID, Amount: 5, Type: TopUpWithdraw, IdempotencyKey: req.IdempotencyKey}},
		{name: "other_account", req: TopUpRequest{AccountID: otherUser, Amount: 5, IdempotencyKey: req.IdempotencyKey}},
	}

	for _, tt := range tests {
		_, err = svc.TopUp(t.Context(), tt.req)
		if !errors.Is(err, ErrDuplicateOperation) {
			t.Errorf("%s: want ErrDuplicateOperation, got %v", tt.name, err)
		}
	}

	if got := pgtestutil.Balance(t, db, donorID); got != 7 {
		t.Fatalf("balance: want 7, got %d", got)
	}
	if got := ledgerCount(t, db, donorID); got != 2 {
		t.Fatalf("ledger entries: want 2, got %d", got)
	}
}
