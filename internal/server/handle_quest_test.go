package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/cityrun/quest/internal/quest"
)

func TestCheckAnswerFlow(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	// Wrong answer is recorded but does not score.
	resp := submitAnswer(t, r, tokAlice, "r-lamppost", "some other street")
	if resp.IsCorrect {
		t.Error("wrong answer: expected isCorrect=false")
	}
	if resp.UpdatedRiddle != nil {
		t.Error("wrong answer: expected no updatedRiddle")
	}
	if resp.TeamScore != 0 || resp.TeamCoins != 30 {
		t.Errorf("wrong answer: expected 0/30, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}

	// Correct answer scores and reveals the solved text.
	resp = submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")
	if !resp.IsCorrect {
		t.Fatal("correct answer: expected isCorrect=true")
	}
	if resp.UpdatedRiddle == nil || !resp.UpdatedRiddle.Solved {
		t.Fatal("correct answer: expected a solved updatedRiddle")
	}
	if resp.UpdatedRiddle.SolvedText == "" {
		t.Error("correct answer: expected solvedText to be revealed")
	}
	if resp.TeamScore != 2 || resp.TeamCoins != 40 {
		t.Errorf("correct answer: expected 2/40, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}
}

func TestCheckAnswerNormalization(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	// Same word set, different order, case and punctuation.
	resp := submitAnswer(t, r, tokAlice, "r-lamppost", "  blvd, 23 TVERSKOY! ")
	if !resp.IsCorrect {
		t.Error("reordered answer: expected isCorrect=true")
	}
}

func TestCheckAnswerIdempotent(t *testing.T) {
	r, store := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")

	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")

	// Any further attempt on a solved riddle is rejected.
	w := doJSON(t, r, http.MethodPost, "/api/quest/riddles/r-lamppost/check-answer",
		tokAlice, AnswerRequest{Answer: "Tverskoy Blvd 23"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second correct: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/quest/riddles/r-lamppost/check-answer",
		tokAlice, AnswerRequest{Answer: "wrong"})
	if w.Code != http.StatusConflict {
		t.Fatalf("wrong after solve: expected 409, got %d", w.Code)
	}

	// The ledger holds the single reward.
	totals, err := store.TeamTotals(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("team totals: %v", err)
	}
	if totals.Score != 2 || totals.Coins != 40 {
		t.Errorf("expected 2/40 after duplicate attempts, got %d/%d", totals.Score, totals.Coins)
	}
}

func TestQuestionBlockBonus(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	// One solve is not enough for the bonus.
	resp := submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")
	if resp.TeamScore != 2 || resp.TeamCoins != 40 {
		t.Errorf("expected 2/40 before block completion, got %d/%d",
			resp.TeamScore, resp.TeamCoins)
	}

	resp = submitAnswer(t, r, tokAlice, "r-fountain", "1651")

	// 30 start + 10 + 10 + 20 block bonus; 2 + 2 + 3 block bonus.
	if resp.TeamScore != 7 || resp.TeamCoins != 70 {
		t.Errorf("expected 7/70 after completing the block, got %d/%d",
			resp.TeamScore, resp.TeamCoins)
	}
}

func TestQuestionBlockBonusOrderIndependent(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokBob, "Owls", "en")

	submitAnswer(t, r, tokBob, "r-fountain", "1651")
	resp := submitAnswer(t, r, tokBob, "r-lamppost", "Tverskoy Blvd 23")
	if resp.TeamScore != 7 || resp.TeamCoins != 70 {
		t.Errorf("expected 7/70 regardless of solve order, got %d/%d",
			resp.TeamScore, resp.TeamCoins)
	}
}

func TestHintChargesOnce(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	w := doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-lamppost/hint", tokAlice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hint: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[HintResponse](t, w)
	if resp.Hint == "" {
		t.Error("expected hint text")
	}
	if resp.TeamCoins != 15 {
		t.Errorf("expected 15 coins after purchase, got %d", resp.TeamCoins)
	}

	// Repeat requests are free.
	for i := 0; i < 2; i++ {
		w = doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-lamppost/hint", tokAlice, nil)
		resp = decode[HintResponse](t, w)
		if resp.TeamCoins != 15 {
			t.Fatalf("repeat %d: expected 15 coins, got %d", i, resp.TeamCoins)
		}
	}

	// Solving after a hint pays the reduced reward.
	ans := submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")
	if ans.TeamScore != 1 || ans.TeamCoins != 25 {
		t.Errorf("expected 1/25 after hinted solve, got %d/%d", ans.TeamScore, ans.TeamCoins)
	}
}

func TestHintInsufficientCoins(t *testing.T) {
	r, store := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")
	ctx := context.Background()

	// Drain the balance to zero with two hint purchases.
	err := store.RecordAttempt(ctx, attemptRecord{
		TeamID:    team.ID,
		UserID:    "u-alice",
		RiddleID:  "r-bridge",
		TypeName:  quest.TypeHint,
		Dimension: quest.DimHint,
		IsTrue:    true,
	})
	if err != nil {
		t.Fatalf("record drain attempt: %v", err)
	}
	w := doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-fountain/hint", tokAlice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second hint: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-lamppost/hint", tokAlice, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("broke team: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// The failed purchase left no ledger entry.
	purchased, err := store.HasSuccessfulAttempt(ctx, team.ID, "r-lamppost", quest.TypeHint)
	if err != nil {
		t.Fatalf("has successful attempt: %v", err)
	}
	if purchased {
		t.Error("expected no hint entry after rejected purchase")
	}
}

func TestHintMissing(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokBob, "Волга", "ru")

	w := doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-bridge/hint", tokBob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("riddle without hint: expected 404, got %d", w.Code)
	}
}

func TestLanguageGate(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")

	w := doJSON(t, r, http.MethodGet, "/api/quest/b-riverside", tokAlice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign block: expected 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/quest/riddles/r-bridge/check-answer",
		tokAlice, AnswerRequest{Answer: "мост"})
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign riddle: expected 403, got %d", w.Code)
	}
}

func TestQuestList(t *testing.T) {
	r, _ := newTestEnv(t)
	createTeam(t, r, tokAlice, "Lynx", "en")
	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")

	w := doJSON(t, r, http.MethodGet, "/api/quest/?expand=riddles", tokAlice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[QuestResponse](t, w)

	if len(resp.Blocks) != 1 || resp.Blocks[0].ID != "b-oldtown" {
		t.Fatalf("expected only the en block, got %v", resp.Blocks)
	}
	if len(resp.Blocks[0].Riddles) != 2 {
		t.Fatalf("expected 2 riddles, got %d", len(resp.Blocks[0].Riddles))
	}

	byID := map[string]RiddleView{}
	for _, v := range resp.Blocks[0].Riddles {
		byID[v.ID] = v
	}
	if !byID["r-lamppost"].Solved || byID["r-lamppost"].SolvedText == "" {
		t.Errorf("expected r-lamppost solved with text, got %+v", byID["r-lamppost"])
	}
	if byID["r-fountain"].Solved || byID["r-fountain"].SolvedText != "" {
		t.Errorf("expected r-fountain unsolved and hidden, got %+v", byID["r-fountain"])
	}
	if resp.TeamScore != 2 || resp.TeamCoins != 40 {
		t.Errorf("expected totals 2/40, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}
}
