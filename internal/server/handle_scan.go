package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cityrun/quest/internal/quest"
)

type QRCodeResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// handleQRCode issues the caller's own short-lived QR identity token.
func handleQRCode(store Store, logger *slog.Logger, tokens TokenStore, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := userFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		token, err := tokens.Issue(r.Context(), sess.UserID, ttl)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, QRCodeResponse{
			Token:     token,
			ExpiresIn: int(ttl / time.Second),
		})
	}
}

type QRScanRequest struct {
	Token string `json:"token"`
}

type QRVerifyResponse struct {
	IsCaptain bool         `json:"isCaptain"`
	CanJoin   bool         `json:"canJoin"`
	UserName  string       `json:"userName,omitempty"`
	TeamID    string       `json:"teamId,omitempty"`
	TeamName  string       `json:"teamName,omitempty"`
	Members   []TeamMember `json:"members,omitempty"`
	Score     *int         `json:"score,omitempty"`
}

// handleQRVerify resolves a scanned code with role-gated visibility: guests
// only learn whether the owner is a joinable captain, privileged roles see
// the roster, and ctc additionally sees the team score.
func handleQRVerify(store Store, logger *slog.Logger, tokens TokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scanner, err := userFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		switch scanner.Role {
		case quest.RoleGuest, quest.RoleInsider, quest.RoleOrganizer, quest.RoleCTC:
		default:
			writeDomainError(w, logger, quest.ErrForbidden)
			return
		}

		var req QRScanRequest
		if err := readJSON(r, &req); err != nil || req.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}

		targetID, err := tokens.Resolve(r.Context(), req.Token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		target, err := store.UserByID(r.Context(), targetID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		var resp QRVerifyResponse
		onTeam := false
		member, err := store.TeamForUser(r.Context(), scanner.EventID, target.ID)
		switch {
		case err == nil:
			onTeam = true
			resp.IsCaptain = member.Role == quest.TeamRoleCaptain
		case errors.Is(err, quest.ErrNotFound):
			// Target has no team; nothing to reveal beyond that.
		default:
			writeDomainError(w, logger, err)
			return
		}

		// Guests get no PII beyond the captain/joinable flags; privileged
		// roles see the target's team whether or not they are its captain.
		if scanner.Role != quest.RoleGuest {
			resp.UserName = target.Name
		}

		if onTeam {
			members, err := store.TeamMembers(r.Context(), member.Team.ID)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			resp.CanJoin = resp.IsCaptain &&
				len(members) < quest.MaxTeamSize && scanner.TeamID == ""

			if scanner.Role != quest.RoleGuest {
				resp.TeamID = member.Team.ID
				resp.TeamName = member.Team.Name
				resp.Members = members
			}
			if scanner.Role == quest.RoleCTC {
				totals, err := store.TeamTotals(r.Context(), member.Team.ID)
				if err != nil {
					writeDomainError(w, logger, err)
					return
				}
				resp.Score = &totals.Score
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type QRJoinResponse struct {
	OK       bool   `json:"ok"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

// handleQRJoin adds the scanner to the team whose captain's code was
// scanned.
func handleQRJoin(store Store, logger *slog.Logger, tokens TokenStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scanner, err := userFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}
		if scanner.Role != quest.RoleGuest && scanner.Role != quest.RoleOrganizer {
			writeDomainError(w, logger, quest.ErrForbidden)
			return
		}

		var req QRScanRequest
		if err := readJSON(r, &req); err != nil || req.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}

		targetID, err := tokens.Resolve(r.Context(), req.Token)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		owner, err := store.TeamForUser(r.Context(), scanner.EventID, targetID)
		if errors.Is(err, quest.ErrNotFound) || (err == nil && owner.Role != quest.TeamRoleCaptain) {
			writeDomainError(w, logger, fmt.Errorf("%w: code owner is not a team captain", quest.ErrBadRequest))
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		if scanner.TeamID != "" {
			writeDomainError(w, logger, fmt.Errorf("%w: you already belong to a team", quest.ErrBadRequest))
			return
		}

		members, err := store.TeamMembers(r.Context(), owner.Team.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if len(members) >= quest.MaxTeamSize {
			writeDomainError(w, logger, fmt.Errorf("%w: team is full", quest.ErrBadRequest))
			return
		}

		if err := store.AddTeamMember(r.Context(), owner.Team.ID, scanner.UserID, quest.TeamRoleMember); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		broker.Publish(owner.Team.ID, TeamEvent{
			Type:     "member_joined",
			UserName: scanner.UserName,
		})

		writeJSON(w, http.StatusOK, QRJoinResponse{
			OK:       true,
			TeamID:   owner.Team.ID,
			TeamName: owner.Team.Name,
		})
	}
}
