package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cityrun/quest/internal/quest"
)

type BlockView struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Riddles []RiddleView `json:"riddles,omitempty"`
}

type QuestResponse struct {
	Blocks    []BlockView `json:"blocks"`
	TeamScore int         `json:"team_score"`
	TeamCoins int         `json:"team_coins"`
}

func riddleViews(ctx context.Context, store Store, teamID, blockID string) ([]RiddleView, error) {
	riddles, err := store.BlockRiddles(ctx, blockID)
	if err != nil {
		return nil, err
	}
	statuses, err := store.RiddleStatuses(ctx, teamID, blockID)
	if err != nil {
		return nil, err
	}

	views := []RiddleView{}
	for _, rd := range riddles {
		st := statuses[rd.ID]
		v := RiddleView{
			ID:             rd.ID,
			Title:          rd.Title,
			Body:           rd.Body,
			HasHint:        rd.Hint != "",
			Solved:         st.Solved,
			HintUsed:       st.HintUsed,
			InsiderVisited: st.InsiderVisited,
		}
		if st.Solved {
			v.SolvedText = rd.SolvedText
		}
		views = append(views, v)
	}
	return views, nil
}

// handleQuestList returns the caller's blocks, filtered to the team's
// language. Pass ?expand=riddles for the full tree with per-riddle status.
func handleQuestList(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		blocks, err := store.ListBlocks(r.Context(), sess.EventID, sess.Language)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		expand := r.URL.Query().Get("expand") == "riddles"

		resp := QuestResponse{Blocks: []BlockView{}}
		for _, b := range blocks {
			view := BlockView{ID: b.ID, Title: b.Title}
			if expand {
				view.Riddles, err = riddleViews(r.Context(), store, sess.TeamID, b.ID)
				if err != nil {
					writeDomainError(w, logger, err)
					return
				}
			}
			resp.Blocks = append(resp.Blocks, view)
		}

		totals, err := store.TeamTotals(r.Context(), sess.TeamID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp.TeamScore = totals.Score
		resp.TeamCoins = totals.Coins

		writeJSON(w, http.StatusOK, resp)
	}
}

// handleQuestBlock returns one block with riddles expanded. Blocks in
// another language are hidden behind ErrLanguageMismatch.
func handleQuestBlock(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := teamFromRequest(r, store)
		if err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		block, err := store.BlockByID(r.Context(), chi.URLParam(r, "blockID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if block.Language != sess.Language {
			writeDomainError(w, logger, quest.ErrLanguageMismatch)
			return
		}

		views, err := riddleViews(r.Context(), store, sess.TeamID, block.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		totals, err := store.TeamTotals(r.Context(), sess.TeamID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, QuestResponse{
			Blocks:    []BlockView{{ID: block.ID, Title: block.Title, Riddles: views}},
			TeamScore: totals.Score,
			TeamCoins: totals.Coins,
		})
	}
}

// writeAuthOrDomainError distinguishes missing sessions (401) from domain
// errors raised while resolving the caller's team.
func writeAuthOrDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, errNoSession) {
		writeError(w, http.StatusUnauthorized, "invalid or missing session token")
		return
	}
	writeDomainError(w, logger, err)
}
