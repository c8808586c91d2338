package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func markAttendance(t *testing.T, h http.Handler, token, riddleID, teamID, userID string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, h, http.MethodPost, "/api/quest/insiders/attendance/mark", token,
		MarkAttendanceRequest{
			QuestionID:    riddleID,
			CommandID:     teamID,
			ScannedUserID: userID,
		})
}

func TestInsiderMarkFlow(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")

	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")

	w := markAttendance(t, r, tokIgor, "r-lamppost", team.ID, "u-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("mark: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[MarkAttendanceResponse](t, w)
	if !resp.OK {
		t.Error("expected ok=true")
	}
	// 2 solve + 3 insider; coins untouched by the visit.
	if resp.TeamScore != 5 || resp.TeamCoins != 40 {
		t.Errorf("expected 5/40, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}

	// Second visit for the same riddle is rejected.
	w = markAttendance(t, r, tokIgor, "r-lamppost", team.ID, "u-alice")
	if w.Code != http.StatusConflict {
		t.Errorf("double mark: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInsiderMarkUnsolved(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")

	w := markAttendance(t, r, tokIgor, "r-fountain", team.ID, "u-alice")
	if w.Code != http.StatusConflict {
		t.Errorf("unsolved riddle: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInsiderMarkNotAssigned(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokBob, "Волга", "ru")
	submitAnswer(t, r, tokBob, "r-bridge", "мост")

	// Igor is not the insider for the riverside block.
	w := markAttendance(t, r, tokIgor, "r-bridge", team.ID, "u-bob")
	if w.Code != http.StatusForbidden {
		t.Errorf("unassigned insider: expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInsiderMarkWrongTeamMember(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")
	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")

	// Bob is not on Alice's team.
	w := markAttendance(t, r, tokIgor, "r-lamppost", team.ID, "u-bob")
	if w.Code != http.StatusBadRequest {
		t.Errorf("foreign member: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInsiderHintedVisit(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")

	// Hint first, then solve, then the insider visit pays the reduced rate.
	w := doJSON(t, r, http.MethodGet, "/api/quest/riddles/r-fountain/hint", tokAlice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hint: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	submitAnswer(t, r, tokAlice, "r-fountain", "1651")

	w = markAttendance(t, r, tokIgor, "r-fountain", team.ID, "u-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("mark: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[MarkAttendanceResponse](t, w)
	// question_hint 1 + insider_hint 2; coins 30 - 15 hint + 10 solve.
	if resp.TeamScore != 3 || resp.TeamCoins != 25 {
		t.Errorf("expected 3/25, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}
}

func TestInsiderBlockBonus(t *testing.T) {
	r, _ := newTestEnv(t)
	team := createTeam(t, r, tokAlice, "Lynx", "en")

	submitAnswer(t, r, tokAlice, "r-lamppost", "Tverskoy Blvd 23")
	submitAnswer(t, r, tokAlice, "r-fountain", "1651")

	w := markAttendance(t, r, tokIgor, "r-lamppost", team.ID, "u-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("first mark: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = markAttendance(t, r, tokIgor, "r-fountain", team.ID, "u-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("second mark: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[MarkAttendanceResponse](t, w)

	// Questions: 2+2+3 block. Insiders: 3+3+3 block. Coins: 30+10+10+20+20.
	if resp.TeamScore != 16 || resp.TeamCoins != 90 {
		t.Errorf("expected 16/90 after both visits, got %d/%d", resp.TeamScore, resp.TeamCoins)
	}
}
