package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/strimboom/boombucks/internal/repos/referrals"
	"github.com/strimboom/boombucks/internal/services/wallet"
)

type creditReferralRequest struct {
	ReferrerID     uint64 `json:"referrerId"`
	ReferredUserID uint64 `json:"referredUserId"`
	PurchaseAmount int64  `json:"purchaseAmount"`
}

type creditReferralResponse struct {
	RelationshipStatus string `json:"relationshipStatus"`
	CumulativeAmount   int64  `json:"cumulativeAmount"`
	RewardEarned       int64  `json:"rewardEarned"`
	Rewarded           bool   `json:"rewarded"`
}

type referralResponse struct {
	ID             int64      `json:"id"`
	ReferrerID     uint64     `json:"referrerId"`
	ReferredUserID uint64     `json:"referredUserId"`
	PurchaseAmount int64      `json:"purchaseAmount"`
	RewardEarned   int64      `json:"rewardEarned"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	RewardedAt     *time.Time `json:"rewardedAt,omitempty"`
}

// CreditReferralHandler handles POST /referrals.
func (h *HandlerProvider) CreditReferralHandler(w http.ResponseWriter, r *http.Request) {
	var req creditReferralRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.CreditReferral(r.Context(), wallet.ReferralCredit{
		ReferrerID:     req.ReferrerID,
		ReferredID:     req.ReferredUserID,
		PurchaseAmount: wallet.Amount(req.PurchaseAmount),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, creditReferralResponse{
		RelationshipStatus: string(res.Status),
		CumulativeAmount:   int64(res.CumulativeAmount),
		RewardEarned:       int64(res.RewardEarned),
		Rewarded:           res.Rewarded,
	})
}

// ListReferralsHandler handles GET /referrals?referrer_id=.
func (h *HandlerProvider) ListReferralsHandler(w http.ResponseWriter, r *http.Request) {
	referrerID, err := strconv.ParseUint(r.URL.Query().Get("referrer_id"), 10, 64)
	if err != nil || referrerID == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "referrer_id must be a positive integer")
		return
	}

	list, err := h.svc.Referrals(r.Context(), referrerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]referralResponse, 0, len(list))
	for _, ref := range list {
		out = append(out, toReferralResponse(ref))
	}

	writeJSON(w, http.StatusOK, map[string]any{"referrals": out})
}

func toReferralResponse(ref referrals.Referral) referralResponse {
	return referralResponse{
		ID:             ref.ID,
		ReferrerID:     ref.ReferrerID,
		ReferredUserID: ref.ReferredID,
		PurchaseAmount: ref.PurchaseAmount,
		RewardEarned:   ref.RewardEarned,
		Status:         string(ref.Status),
		CreatedAt:      ref.CreatedAt,
		RewardedAt:     ref.RewardedAt,
	}
}
