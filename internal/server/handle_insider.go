package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cityrun/quest/internal/quest"
)

type MarkAttendanceRequest struct {
	QuestionID    string `json:"question_id"`
	CommandID     string `json:"command_id"`
	ScannedUserID string `json:"scanned_user_id"`
}

type MarkAttendanceResponse struct {
	OK        bool `json:"ok"`
	TeamScore int  `json:"team_score"`
	TeamCoins int  `json:"team_coins"`
}

// handleMarkAttendance is called by an insider physically present at the
// riddle's location after scanning a team member's code.
func handleMarkAttendance(store Store, logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scanner, err := userFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		var req MarkAttendanceRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.QuestionID == "" || req.CommandID == "" || req.ScannedUserID == "" {
			writeError(w, http.StatusBadRequest, "question_id, command_id and scanned_user_id are required")
			return
		}

		// The credited user must actually be on the team.
		member, err := store.TeamForUser(r.Context(), scanner.EventID, req.ScannedUserID)
		if errors.Is(err, quest.ErrNotFound) || (err == nil && member.Team.ID != req.CommandID) {
			writeDomainError(w, logger, fmt.Errorf("%w: scanned user is not on that team", quest.ErrBadRequest))
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		totals, err := markInsiderAttendance(r.Context(), store, logger, broker,
			scanner, req.CommandID, req.QuestionID, req.ScannedUserID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, MarkAttendanceResponse{
			OK:        true,
			TeamScore: totals.Score,
			TeamCoins: totals.Coins,
		})
	}
}
