package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HintResponse struct {
	Hint      string `json:"hint"`
	TeamScore int    `json:"team_score"`
	TeamCoins int    `json:"team_coins"`
}

func handleHint(store Store, logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		out, err := requestHint(r.Context(), store, broker, sess, chi.URLParam(r, "riddleID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, HintResponse{
			Hint:      out.Hint,
			TeamScore: out.Totals.Score,
			TeamCoins: out.Totals.Coins,
		})
	}
}
