package server

import (
	"log/slog"
	"math"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/cityrun/quest/internal/quest"
)

type TeamStats struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Score    int    `json:"score"`
	Coins    int    `json:"coins"`
	Solved   int    `json:"solved"`
}

// requireOrganizer admits organizer-role user sessions and organizer
// console (admin cookie) sessions.
func requireOrganizer(r *http.Request, store Store) error {
	sess, err := userFromRequest(r, store)
	if err == nil {
		if sess.Role == quest.RoleOrganizer {
			return nil
		}
		return quest.ErrForbidden
	}

	if _, aerr := adminFromRequest(r, store); aerr == nil {
		return nil
	}
	return err
}

func handleCommandStats(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireOrganizer(r, store); err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		event, err := store.ActiveEvent(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		scores, err := store.TeamScores(r.Context(), event.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		stats := []TeamStats{}
		for _, ts := range scores {
			stats = append(stats, TeamStats{
				ID:       ts.TeamID,
				Name:     ts.Name,
				Language: ts.Language,
				Score:    ts.Totals.Score,
				Coins:    ts.Totals.Coins,
				Solved:   ts.Solved,
			})
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	FinalScore float64 `json:"finalScore"`
}

// handleLeaderboard ranks teams by coins*0.5 + score. Teams at or below the
// participation threshold are excluded; ties break by team id so the order
// is deterministic.
func handleLeaderboard(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := store.ActiveEvent(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		scores, err := store.TeamScores(r.Context(), event.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		ranked := rankTeams(scores)
		entries := []LeaderboardEntry{}
		for i, ts := range ranked {
			entries = append(entries, LeaderboardEntry{
				Rank:       i + 1,
				Name:       ts.Name,
				FinalScore: ts.Totals.FinalScore(),
			})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func rankTeams(scores []teamScore) []teamScore {
	var ranked []teamScore
	for _, ts := range scores {
		if ts.Totals.FinalScore() > quest.LeaderboardThreshold {
			ranked = append(ranked, ts)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		fi, fj := ranked[i].Totals.FinalScore(), ranked[j].Totals.FinalScore()
		if fi != fj {
			return fi > fj
		}
		return ranked[i].TeamID < ranked[j].TeamID
	})
	return ranked
}

type AnswersExport struct {
	Event  string             `json:"event"`
	Blocks []AnswersBlockView `json:"blocks"`
}

type AnswersBlockView struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Language string              `json:"language"`
	Riddles  []AnswersRiddleView `json:"riddles"`
}

type AnswersRiddleView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Answers   []string `json:"answers"`
	SolveRate float64  `json:"solveRate"` // percent, one decimal
}

// handleAnswersExport dumps the full block/riddle tree with accepted
// answers and per-riddle solve rates across qualifying teams.
func handleAnswersExport(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireOrganizer(r, store); err != nil {
			writeAuthOrDomainError(w, logger, err)
			return
		}

		event, err := store.EventByName(r.Context(), chi.URLParam(r, "eventName"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		scores, err := store.TeamScores(r.Context(), event.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		solved, err := store.SolvedRiddleTeams(r.Context(), event.ID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		// Qualifying teams per language: above the threshold, matching the
		// block's language.
		qualifying := make(map[string][]string)
		for _, ts := range scores {
			if ts.Totals.FinalScore() > quest.LeaderboardThreshold {
				qualifying[ts.Language] = append(qualifying[ts.Language], ts.TeamID)
			}
		}

		blocks, err := store.ListBlocks(r.Context(), event.ID, "")
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		export := AnswersExport{Event: event.Name, Blocks: []AnswersBlockView{}}
		for _, b := range blocks {
			bv := AnswersBlockView{ID: b.ID, Title: b.Title, Language: b.Language, Riddles: []AnswersRiddleView{}}

			riddles, err := store.BlockRiddles(r.Context(), b.ID)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			for _, rd := range riddles {
				answers, err := store.RiddleAnswers(r.Context(), rd.ID)
				if err != nil {
					writeDomainError(w, logger, err)
					return
				}
				if answers == nil {
					answers = []string{}
				}
				bv.Riddles = append(bv.Riddles, AnswersRiddleView{
					ID:        rd.ID,
					Title:     rd.Title,
					Answers:   answers,
					SolveRate: solveRate(qualifying[b.Language], solved[rd.ID]),
				})
			}
			export.Blocks = append(export.Blocks, bv)
		}

		writeJSON(w, http.StatusOK, export)
	}
}

// solveRate is the percentage of qualifying teams holding a successful
// solve, rounded to one decimal. No qualifying peers yields 0.0, not a
// division error.
func solveRate(qualifying []string, solvedBy map[string]bool) float64 {
	if len(qualifying) == 0 {
		return 0.0
	}
	count := 0
	for _, teamID := range qualifying {
		if solvedBy[teamID] {
			count++
		}
	}
	pct := 100 * float64(count) / float64(len(qualifying))
	return math.Round(pct*10) / 10
}
