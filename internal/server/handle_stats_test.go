package server

import (
	"net/http"
	"testing"

	"github.com/cityrun/quest/internal/quest"
)

func TestLeaderboardRanking(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doJSON(t, r, http.MethodGet, "/api/quest/leaderboard", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty board: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	entries := decode[[]LeaderboardEntry](t, w)
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %v", entries)
	}

	createTeam(t, r, tokAlice, "Lynx", "en")
	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")
	submitAnswer(t, r, tokAlice, "r-fountain", "1651")
	createTeam(t, r, tokBob, "Волга", "ru")

	w = doJSON(t, r, http.MethodGet, "/api/quest/leaderboard", "", nil)
	entries = decode[[]LeaderboardEntry](t, w)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Lynx: score 7 + coins 70 * 0.5 = 42. Волга: coins 30 * 0.5 = 15.
	if entries[0].Rank != 1 || entries[0].Name != "Lynx" || entries[0].FinalScore != 42 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Rank != 2 || entries[1].Name != "Волга" || entries[1].FinalScore != 15 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestRankTeams(t *testing.T) {
	scores := []teamScore{
		{TeamID: "t-b", Name: "B", Totals: quest.Totals{Score: 0, Coins: 30}},
		{TeamID: "t-a", Name: "A", Totals: quest.Totals{Score: 0, Coins: 30}},
		{TeamID: "t-c", Name: "C", Totals: quest.Totals{Score: 7, Coins: 70}},
		{TeamID: "t-d", Name: "D", Totals: quest.Totals{Score: 2, Coins: 0}},
		{TeamID: "t-e", Name: "E", Totals: quest.Totals{Score: 0, Coins: 0}},
	}

	ranked := rankTeams(scores)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 teams above the threshold, got %d", len(ranked))
	}
	if ranked[0].TeamID != "t-c" {
		t.Errorf("expected t-c first, got %s", ranked[0].TeamID)
	}
	// Equal final scores break ties by team id.
	if ranked[1].TeamID != "t-a" || ranked[2].TeamID != "t-b" {
		t.Errorf("expected tie broken by id, got %s then %s", ranked[1].TeamID, ranked[2].TeamID)
	}
}

func TestCommandStatsRequiresOrganizer(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	w := doJSON(t, r, http.MethodGet, "/api/quest/commands/stats", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/quest/commands/stats", tokAlice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("guest: expected 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/quest/commands/stats", tokOlga, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("organizer: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats := decode[[]TeamStats](t, w)
	if len(stats) != 1 || stats[0].Name != "Lynx" || stats[0].Coins != 30 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestAnswersExport(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")
	createTeam(t, r, tokBob, "Owls", "en")
	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")

	w := doJSON(t, r, http.MethodGet, "/api/quest/events/city-run-demo/answers", tokAlice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("guest: expected 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/quest/events/city-run-demo/answers", tokOlga, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("organizer: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	export := decode[AnswersExport](t, w)

	if export.Event != "city-run-demo" || len(export.Blocks) != 2 {
		t.Fatalf("unexpected export shape: %+v", export)
	}

	riddles := map[string]AnswersRiddleView{}
	for _, b := range export.Blocks {
		for _, rd := range b.Riddles {
			riddles[rd.ID] = rd
		}
	}
	if got := riddles["r-lamppost"].Answers; len(got) != 1 || got[0] != "Tverskoy Blvd 23" {
		t.Errorf("expected the accepted answer, got %v", got)
	}
	// One of two qualifying en teams solved it.
	if riddles["r-lamppost"].SolveRate != 50.0 {
		t.Errorf("expected solve rate 50.0, got %v", riddles["r-lamppost"].SolveRate)
	}
	if riddles["r-fountain"].SolveRate != 0.0 {
		t.Errorf("expected solve rate 0.0, got %v", riddles["r-fountain"].SolveRate)
	}
	// No qualifying ru teams at all.
	if riddles["r-bridge"].SolveRate != 0.0 {
		t.Errorf("expected solve rate 0.0, got %v", riddles["r-bridge"].SolveRate)
	}

	w = doJSON(t, r, http.MethodGet, "/api/quest/events/no-such-event/answers", tokOlga, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown event: expected 404, got %d", w.Code)
	}
}

func TestSolveRate(t *testing.T) {
	if got := solveRate(nil, nil); got != 0.0 {
		t.Errorf("no qualifying teams: expected 0.0, got %v", got)
	}

	qualifying := []string{"t-a", "t-b", "t-c"}
	solved := map[string]bool{"t-a": true}
	if got := solveRate(qualifying, solved); got != 33.3 {
		t.Errorf("expected 33.3, got %v", got)
	}

	solved["t-b"] = true
	solved["t-c"] = true
	if got := solveRate(qualifying, solved); got != 100.0 {
		t.Errorf("expected 100.0, got %v", got)
	}
}
