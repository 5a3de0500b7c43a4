package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/strimboom/boombucks/internal/repos/donations"
	"github.com/strimboom/boombucks/internal/repos/ledger"
	"github.com/strimboom/boombucks/internal/repos/referrals"
	"github.com/strimboom/boombucks/internal/services/wallet"
)

// Wallet is the part of the ledger service the HTTP layer calls.
type Wallet interface {
	Policy() wallet.Policy
	GetBalance(ctx context.Context, accountID uint64) (wallet.Amount, error)
	OpenAccount(ctx context.Context, accountID uint64) (wallet.Account, error)
	History(ctx context.Context, accountID uint64, limit int) ([]ledger.Entry, error)
	Transfer(ctx context.Context, req wallet.TransferRequest) (wallet.TransferResult, error)
	TopUp(ctx context.Context, req wallet.TopUpRequest) (wallet.TopUpResult, error)
	Donate(ctx context.Context, req wallet.DonateRequest) (wallet.DonationReceipt, error)
	StreamDonations(ctx context.Context, streamID uint64, limit int) ([]donations.Donation, error)
	CreditReferral(ctx context.Context, req wallet.ReferralCredit) (wallet.AccrualResult, error)
	Referrals(ctx context.Context, referrerID uint64) ([]referrals.Referral, error)
}

// HandlerProvider wraps a Wallet and exposes HTTP handlers.
type HandlerProvider struct {
	svc Wallet
}

func NewHandler(svc Wallet) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// Machine-readable error codes returned in the "code" field.
const (
	codeInvalidAmount      = "invalid_amount"
	codeInvalidArgument    = "invalid_argument"
	codeInsufficientFunds  = "insufficient_funds"
	codeAccountNotFound    = "account_not_found"
	codeStreamNotFound     = "stream_not_found"
	codeRecipientNotFound  = "recipient_not_found"
	codeDuplicateOperation = "duplicate_operation"
	codeStorageFailure     = "storage_failure"
)

const (
	idempotencyHeader = "Idempotency-Key"
	// idempotencyHitHeader marks a response replayed from an earlier request
	// with the same key.
	idempotencyHitHeader = "X-Idempotency-Hit"
)

// --- Helpers ---

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// createdStatus is 201 for a new mutation and 200 for a replay, which also
// gets the idempotency hit header.
func createdStatus(w http.ResponseWriter, replayed bool) int {
	if !replayed {
		return http.StatusCreated
	}

	w.Header().Set(idempotencyHitHeader, "true")

	return http.StatusOK
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps service errors to a status and code. Anything not
// recognised is a storage failure and is logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, codeInvalidAmount, "amount must be positive")
	case errors.Is(err, wallet.ErrInvalidArgument),
		errors.Is(err, wallet.ErrSelfReferral),
		errors.Is(err, wallet.ErrUnsupportedCurrency):
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, codeInsufficientFunds, "insufficient funds")
	case errors.Is(err, wallet.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
	case errors.Is(err, wallet.ErrStreamNotFound):
		writeError(w, http.StatusNotFound, codeStreamNotFound, "stream not found")
	case errors.Is(err, wallet.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, codeRecipientNotFound, "stream has no owner to receive donations")
	case errors.Is(err, wallet.ErrDuplicateOperation):
		writeError(w, http.StatusConflict, codeDuplicateOperation, "operation already applied")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeStorageFailure, "internal error")
	}
}

// parseIDParam reads a positive integer chi route parameter such as
// {accountId} or {streamId}.
func parseIDParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	if id == 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}

	return id, nil
}

// parseLimit reads an optional ?limit= query value; 0 means the service default.
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}

	return n, nil
}

func parseIdempotencyKey(h http.Header) (uuid.UUID, error) {
	raw := strings.TrimSpace(h.Get(idempotencyHeader))
	if raw == "" {
		return uuid.Nil, nil
	}

	key, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", idempotencyHeader, err)
	}

	return key, nil
}

// decodeBody reads one JSON object, capped at 1MB, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	//nolint:errcheck
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeInvalidArgument, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid JSON")

		return false
	}

	return true
}
