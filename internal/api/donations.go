package api

import (
	"net/http"
	"time"

	"github.com/strimboom/boombucks/internal/repos/donations"
	"github.com/strimboom/boombucks/internal/services/wallet"
)

type donateRequest struct {
	FromUserID uint64 `json:"fromUserId"`
	Amount     int64  `json:"amount"`
	Message    string `json:"message"`
}

type donationResponse struct {
	DonationID int64     `json:"donationId"`
	StreamID   uint64    `json:"streamId"`
	FromUserID *uint64   `json:"fromUserId"`
	ToUserID   *uint64   `json:"toUserId"`
	Amount     int64     `json:"amount"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

func toDonationResponse(d donations.Donation) donationResponse {
	return donationResponse{
		DonationID: d.ID,
		StreamID:   d.StreamID,
		FromUserID: d.DonorID,
		ToUserID:   d.RecipientID,
		Amount:     d.Amount,
		Message:    d.Message,
		Timestamp:  d.CreatedAt,
	}
}

// DonateHandler handles POST /streams/{streamId}/donations.
func (h *HandlerProvider) DonateHandler(w http.ResponseWriter, r *http.Request) {
	streamID, err := parseIDParam(r, "streamId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	key, err := parseIdempotencyKey(r.Header)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	var req donateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := h.svc.Donate(r.Context(), wallet.DonateRequest{
		StreamID:       streamID,
		DonorID:        req.FromUserID,
		Amount:         wallet.Amount(req.Amount),
		Message:        req.Message,
		IdempotencyKey: key,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	donor := receipt.DonorID

	writeJSON(w, createdStatus(w, receipt.Replayed), donationResponse{
		DonationID: receipt.DonationID,
		StreamID:   receipt.StreamID,
		FromUserID: &donor,
		ToUserID:   receipt.RecipientID,
		Amount:     int64(receipt.Amount),
		Message:    receipt.Message,
		Timestamp:  receipt.CreatedAt,
	})
}

// StreamDonationsHandler handles GET /streams/{streamId}/donations?limit=.
func (h *HandlerProvider) StreamDonationsHandler(w http.ResponseWriter, r *http.Request) {
	streamID, err := parseIDParam(r, "streamId")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	list, err := h.svc.StreamDonations(r.Context(), streamID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]donationResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDonationResponse(d))
	}

	writeJSON(w, http.StatusOK, map[string]any{"donations": out})
}
