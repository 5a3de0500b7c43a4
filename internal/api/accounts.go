package api

import (
	"net/http"
	"time"

	"github.com/strimboom/boombucks/internal/repos/ledger"
	"github.com/strimboom/boombucks/internal/services/wallet"
)

type balanceResponse struct {
	AccountID uint64 `json:"accountId"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
}

type entryResponse struct {
	ID          int64     `json:"id"`
	AccountID   uint64    `json:"accountId"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Type:        string(e.Kind),
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}
}

// OpenAccountHandler handles PUT /accounts/{accountId}.
// 201 when the account was created, 200 when it already existed.
func (h *HandlerProvider) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	acc, err := h.svc.OpenAccount(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if acc.Created {
		status = http.StatusCreated
	}

	writeJSON(w, status, balanceResponse{
		AccountID: acc.ID,
		Balance:   int64(acc.Balance),
		Currency:  h.svc.Policy().Currency,
	})
}

// GetBalanceHandler handles GET /accounts/{accountId}/balance.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	bal, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID: accountID,
		Balance:   int64(bal),
		Currency:  h.svc.Policy().Currency,
	})
}

// HistoryHandler handles GET /accounts/{accountId}/transactions?limit=.
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	entries, err := h.svc.History(r.Context(), accountID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

type topUpRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type topUpResponse struct {
	LedgerEntryID int64  `json:"ledgerEntryId"`
	NewBalance    int64  `json:"newBalance"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
}

// TopUpHandler handles POST /accounts/{accountId}/topups.
func (h *HandlerProvider) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	key, err := parseIdempotencyKey(r.Header)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	var req topUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.TopUp(r.Context(), wallet.TopUpRequest{
		AccountID:      accountID,
		Amount:         wallet.Amount(req.Amount),
		Currency:       req.Currency,
		Type:           wallet.TopUpType(req.Type),
		Description:    req.Description,
		IdempotencyKey: key,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, createdStatus(w, res.Replayed), topUpResponse{
		LedgerEntryID: res.Entry.ID,
		NewBalance:    int64(res.NewBalance),
		Type:          string(res.Entry.Kind),
		Currency:      res.Entry.Currency,
	})
}

type transferRequest struct {
	ToAccountID uint64 `json:"toAccountId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type transferResponse struct {
	FromAccountID   uint64 `json:"fromAccountId"`
	ToAccountID     uint64 `json:"toAccountId"`
	Amount          int64  `json:"amount"`
	NewBalance      int64  `json:"newBalance"`
	SentEntryID     int64  `json:"sentEntryId"`
	ReceivedEntryID int64  `json:"receivedEntryId"`
}

// TransferHandler handles POST /accounts/{accountId}/transfers.
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Transfer(r.Context(), wallet.TransferRequest{
		FromAccountID: accountID,
		ToAccountID:   req.ToAccountID,
		Amount:        wallet.Amount(req.Amount),
		Description:   req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := transferResponse{
		FromAccountID: res.FromAccountID,
		Amount:        int64(res.Amount),
		NewBalance:    int64(res.FromBalance),
		SentEntryID:   res.SentEntry.ID,
	}
	if res.ToAccountID != nil {
		resp.ToAccountID = *res.ToAccountID
	}
	if res.ReceivedEntry != nil {
		resp.ReceivedEntryID = res.ReceivedEntry.ID
	}

	writeJSON(w, http.StatusCreated, resp)
}
