package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cityrun/quest/internal/quest"
)

type CreateTeamRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

type TeamResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Language  string       `json:"language"`
	Members   []TeamMember `json:"members"`
	TeamScore int          `json:"team_score"`
	TeamCoins int          `json:"team_coins"`
}

// handleCreateTeam creates a team with the caller as its captain and
// records the initial coin grant.
func handleCreateTeam(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}
		if sess.TeamID != "" {
			writeDomainError(w, logger, fmt.Errorf("%w: you already belong to a team", quest.ErrBadRequest))
			return
		}

		var req CreateTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.Language == "" {
			writeError(w, http.StatusBadRequest, "name and language are required")
			return
		}

		team, err := store.CreateTeam(r.Context(), sess.EventID, req.Name, req.Language, sess.UserID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		// Initial grant. A failure here is a seeding defect worth surfacing.
		err = store.RecordAttempt(r.Context(), attemptRecord{
			TeamID:   team.ID,
			UserID:   sess.UserID,
			TypeName: quest.TypeMoneyStart,
			Payload:  "initial grant",
			IsTrue:   true,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeTeam(w, r, store, logger, team, http.StatusCreated)
	}
}

type RenameTeamRequest struct {
	Name string `json:"name"`
}

// handleRenameTeam renames a team. Captain only; the new name must be
// unique within the event.
func handleRenameTeam(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := captainFromRequest(r, store, chi.URLParam(r, "teamID"))
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		var req RenameTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := store.RenameTeam(r.Context(), sess.TeamID, req.Name); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		team, err := store.TeamForUser(r.Context(), sess.EventID, sess.UserID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeTeam(w, r, store, logger, team.Team, http.StatusOK)
	}
}

// handleDeleteTeam deletes a team. Captain only.
func handleDeleteTeam(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := captainFromRequest(r, store, chi.URLParam(r, "teamID"))
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		if err := store.DeleteTeam(r.Context(), sess.TeamID); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func handleMyTeam(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		member, err := store.TeamForUser(r.Context(), sess.EventID, sess.UserID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeTeam(w, r, store, logger, member.Team, http.StatusOK)
	}
}

// captainFromRequest resolves the session and requires the caller to be the
// captain of the team named in the URL.
func captainFromRequest(r *http.Request, store Store, teamID string) (session, error) {
	sess, err := teamFromRequest(r, store)
	if err != nil {
		return sess, err
	}
	if sess.TeamID != teamID {
		return sess, quest.ErrNotFound
	}
	if sess.TeamRole != quest.TeamRoleCaptain {
		return sess, fmt.Errorf("%w: only the captain can do this", quest.ErrForbidden)
	}
	return sess, nil
}

func writeTeam(w http.ResponseWriter, r *http.Request, store Store, logger *slog.Logger, team quest.Team, status int) {
	members, err := store.TeamMembers(r.Context(), team.ID)
	if err != nil {
		writeDomainError(w, logger, err)
		return
	}
	totals, err := store.TeamTotals(r.Context(), team.ID)
	if err != nil && !errors.Is(err, quest.ErrNotFound) {
		writeDomainError(w, logger, err)
		return
	}

	writeJSON(w, status, TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		Language:  team.Language,
		Members:   members,
		TeamScore: totals.Score,
		TeamCoins: totals.Coins,
	})
}
