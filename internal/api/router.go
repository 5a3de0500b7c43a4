package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers all API endpoints. metrics may be nil, in which case
// /metrics is not served.
func NewRouter(svc Wallet, metrics http.Handler) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/accounts/{accountId}", func(r chi.Router) {
		r.Put("/", h.OpenAccountHandler)
		r.Get("/balance", h.GetBalanceHandler)
		r.Get("/transactions", h.HistoryHandler)
		r.Post("/topups", h.TopUpHandler)
		r.Post("/transfers", h.TransferHandler)
	})

	r.Route("/streams/{streamId}/donations", func(r chi.Router) {
		r.Post("/", h.DonateHandler)
		r.Get("/", h.StreamDonationsHandler)
	})

	r.Post("/referrals", h.CreditReferralHandler)
	r.Get("/referrals", h.ListReferralsHandler)

	return r
}
