package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityrun/quest/internal/database"
	"github.com/cityrun/quest/internal/migrations"
)

// Fixed session tokens from the demo seed.
const (
	tokAlice = "s-alice"
	tokBob   = "s-bob"
	tokCarol = "s-carol"
	tokDave  = "s-dave"
	tokErin  = "s-erin"
	tokFrank = "s-frank"
	tokGrace = "s-grace"
	tokIgor  = "s-igor" // insider
	tokOlga  = "s-olga" // organizer
	tokCass  = "s-cass" // ctc
)

func newTestEnv(t *testing.T) (*chi.Mux, *SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSQLiteStore(db)
	if err := store.SeedDemo(ctx, logger); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, Deps{
		Store:      store,
		Tokens:     newMemoryTokenStore(),
		Broker:     NewBroker(),
		QRTokenTTL: 2 * time.Minute,
	})
	return r, store
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createTeam(t *testing.T, h http.Handler, token, name, language string) TeamResponse {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/teams", token, CreateTeamRequest{
		Name:     name,
		Language: language,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[TeamResponse](t, w)
}

func submitAnswer(t *testing.T, h http.Handler, token, riddleID, answer string) AnswerResponse {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/quest/riddles/"+riddleID+"/check-answer",
		token, AnswerRequest{Answer: answer})
	if w.Code != http.StatusOK {
		t.Fatalf("check answer %s: expected 200, got %d: %s", riddleID, w.Code, w.Body.String())
	}
	return decode[AnswerResponse](t, w)
}

type staticChecker struct{ err error }

func (c staticChecker) Check(context.Context) error { return c.err }

func TestHealthz(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := handleHealth(logger, map[string]Checker{
		"sqlite": staticChecker{},
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	h = handleHealth(logger, map[string]Checker{
		"sqlite": staticChecker{},
		"redis":  staticChecker{err: io.EOF},
	})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	resp := decode[HealthResponse](t, w)
	if resp["sqlite"].Status != "ok" || resp["redis"].Status != "error" {
		t.Errorf("unexpected health body: %v", resp)
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doJSON(t, r, http.MethodGet, "/api/quest/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/quest/", "bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}

	// Valid session but no team yet.
	w = doJSON(t, r, http.MethodGet, "/api/quest/", tokAlice, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no team: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionWithoutActiveEvent(t *testing.T) {
	r, store := newTestEnv(t)

	if _, err := store.db.ExecContext(context.Background(),
		`UPDATE events SET is_active = 0`); err != nil {
		t.Fatalf("deactivating event: %v", err)
	}

	// A valid session must not read as unauthenticated when the deployment
	// has no active event.
	w := doJSON(t, r, http.MethodGet, "/api/teams/me", tokAlice, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/teams/me", "bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}
