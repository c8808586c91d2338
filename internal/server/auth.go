package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cityrun/quest/internal/quest"
)

// session is the resolved identity of a request: the user plus their team
// membership in the active event, if any.
type session struct {
	UserID   string
	UserName string
	Role     quest.Role
	EventID  string
	TeamID   string // empty when the user has no team this event
	TeamRole quest.TeamRole
	Language string // team language, empty without a team
}

var errNoSession = errors.New("no valid session")

func userFromRequest(r *http.Request, store Store) (session, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return session{}, errNoSession
	}
	return store.SessionFromToken(r.Context(), token)
}

// teamFromRequest resolves the session and requires team membership.
func teamFromRequest(r *http.Request, store Store) (session, error) {
	sess, err := userFromRequest(r, store)
	if err != nil {
		return sess, err
	}
	if sess.TeamID == "" {
		return sess, fmt.Errorf("%w: you are not on a team", quest.ErrBadRequest)
	}
	return sess, nil
}
