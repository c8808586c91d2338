package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type AnswerResponse struct {
	IsCorrect     bool        `json:"isCorrect"`
	UpdatedRiddle *RiddleView `json:"updatedRiddle,omitempty"`
	TeamScore     int         `json:"team_score"`
	TeamCoins     int         `json:"team_coins"`
}

func handleCheckAnswer(store Store, logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Answer = strings.TrimSpace(req.Answer)
		if req.Answer == "" {
			writeError(w, http.StatusBadRequest, "answer is required")
			return
		}

		out, err := checkAnswer(r.Context(), store, logger, broker, sess,
			chi.URLParam(r, "riddleID"), req.Answer)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AnswerResponse{
			IsCorrect:     out.Correct,
			UpdatedRiddle: out.Riddle,
			TeamScore:     out.Totals.Score,
			TeamCoins:     out.Totals.Coins,
		})
	}
}
